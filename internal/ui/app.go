package ui

import (
	"fmt"
	"image"
	"time"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/app"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/theme"
	"fyne.io/fyne/v2/widget"
	"github.com/sirupsen/logrus"

	"pizzadetector/internal/config"
	"pizzadetector/internal/ui/cwidget"
	"pizzadetector/processing/capture"
	"pizzadetector/processing/celebration"
	processing "pizzadetector/processing/detector"
)

type DetectApp struct {
	fyneApp fyne.App
	mainWin fyne.Window
	log     *logrus.Logger

	config     *config.Config
	configPath string
	processor  *processing.Processor
	spawner    *celebration.Spawner
	stage      *FyneStage

	stopChan chan struct{}

	dynamicSettings *fyne.Container
	staticSettings  *fyne.Container

	videoCanvas    *canvas.Image
	latencyLabel   *widget.Label
	fpsLabel       *widget.Label
	celebrateLabel *widget.Label
}

// CreateApp builds the window and the sprite stage. The pipeline is wired in
// afterwards with Attach, since the spawner needs the stage.
func CreateApp(cfg *config.Config, configPath string, log *logrus.Logger) *DetectApp {
	a := app.NewWithID("io.pizzadetector.demo")
	w := a.NewWindow("Pizza Detector")

	w.Resize(fyne.NewSize(1200, 700))

	sprite, err := LoadSprite(cfg.Celebration.Sprite)
	if err != nil {
		log.WithError(err).Warn("using built-in pizza sprite")
	}

	return &DetectApp{
		fyneApp:    a,
		mainWin:    w,
		log:        log,
		config:     cfg,
		configPath: configPath,
		stage:      NewFyneStage(sprite, cfg.Celebration.SpriteSize),
	}
}

func (a *DetectApp) Stage() *FyneStage { return a.stage }

// Scheduler is the Fyne main goroutine.
func (a *DetectApp) Scheduler() celebration.Scheduler {
	return celebration.SchedulerFunc(fyne.Do)
}

func (a *DetectApp) Attach(p *processing.Processor, s *celebration.Spawner) {
	a.processor = p
	a.spawner = s
}

func (a *DetectApp) Run() {
	a.dynamicSettings = container.NewVBox()

	sourceTypeSelect := widget.NewSelect(config.SourcesList[:], func(s string) {
		a.config.SetSource(config.SourceType(s))
		a.refreshSettingsUI(s)
	})

	sourceTypeSelect.SetSelected(string(a.config.GetSource()))

	settingsLabel := widget.NewLabelWithStyle("Configuration", fyne.TextAlignLeading, fyne.TextStyle{Bold: true})

	a.videoCanvas = canvas.NewImageFromImage(nil)
	a.videoCanvas.FillMode = canvas.ImageFillContain
	a.videoCanvas.SetMinSize(fyne.NewSize(640, 480))

	a.latencyLabel = widget.NewLabel(formatLatency(0))
	a.fpsLabel = widget.NewLabel(formatFPS(0))
	a.celebrateLabel = widget.NewLabel(formatCelebrations(0, 0))

	videoContainer := container.NewBorder(
		container.NewHBox(a.fpsLabel, widget.NewSeparator(), a.latencyLabel, widget.NewSeparator(), a.celebrateLabel),
		nil, nil, nil,
		container.NewStack(a.videoCanvas, a.stage.Object()),
	)

	a.setupConfigSettings()

	sidebar := container.NewVBox(
		settingsLabel,
		widget.NewSeparator(),
		widget.NewLabel("Source Type:"),
		sourceTypeSelect,
		widget.NewSeparator(),
		a.dynamicSettings,
		a.staticSettings,
		widget.NewSeparator(),
		widget.NewButtonWithIcon("Start Processing", theme.MediaPlayIcon(), func() {
			a.StartProcessing(true)
		}),
		widget.NewButtonWithIcon("Celebrate", theme.MediaFastForwardIcon(), func() {
			a.spawner.Trigger()
		}),
	)

	split := container.NewHSplit(
		container.NewPadded(sidebar),
		container.NewPadded(videoContainer),
	)
	split.SetOffset(0.3)

	a.mainWin.SetContent(split)

	a.refreshSettingsUI(string(a.config.GetSource()))

	a.mainWin.SetCloseIntercept(func() {
		a.StopProcessing()
		if err := a.config.Save(a.configPath); err != nil {
			a.log.WithError(err).Warn("could not save config")
		}
		a.mainWin.Close()
	})

	a.mainWin.CenterOnScreen()
	a.mainWin.ShowAndRun()
}

func (a *DetectApp) StopProcessing() {
	if a.stopChan != nil {
		close(a.stopChan)
		a.stopChan = nil
	}
	a.processor.Stop()
}

func (a *DetectApp) StartProcessing(forceRestart bool) {
	if a.processor.IsActive() && !forceRestart {
		return
	}

	a.StopProcessing()

	streamer, err := capture.NewStreamer(a.config)
	if err != nil {
		dialog.ShowError(err, a.mainWin)
		return
	}

	stop := make(chan struct{})
	a.stopChan = stop

	result := a.processor.Start(streamer)

	go func() {
		if err := <-result; err != nil {
			a.log.WithError(err).Error("capture did not start")
			fyne.Do(func() { dialog.ShowError(err, a.mainWin) })
			return
		}
		go a.runPlayerLoop(stop)
		go a.runStatLoop(stop)
		go a.runErrorLoop(stop)
	}()
}

func (a *DetectApp) runStatLoop(stop <-chan struct{}) {
	uiTicker := time.NewTicker(time.Millisecond * 200)
	defer uiTicker.Stop()

	for {
		select {
		case <-uiTicker.C:
			latency := a.processor.Latency()
			fps := a.processor.FPS()
			triggers, active := a.spawner.Triggers(), a.spawner.Active()

			fyne.Do(func() {
				a.latencyLabel.SetText(formatLatency(latency))
				a.fpsLabel.SetText(formatFPS(fps))
				a.celebrateLabel.SetText(formatCelebrations(triggers, active))
			})
		case <-stop:
			return
		}
	}
}

func (a *DetectApp) runErrorLoop(stop <-chan struct{}) {
	select {
	case err := <-a.processor.ErrChan:
		fyne.Do(func() { dialog.ShowError(err, a.mainWin) })
	case <-stop:
	}
}

func formatFPS(v uint) string {
	return fmt.Sprintf("FPS: %d", v)
}

func formatLatency(v time.Duration) string {
	return fmt.Sprintf("Latency: %d ms", v.Milliseconds())
}

func formatCelebrations(triggers, active int64) string {
	return fmt.Sprintf("Pizzas: %d (flying %d)", triggers, active)
}

func (a *DetectApp) runPlayerLoop(stop <-chan struct{}) {
	frameChan := a.processor.OutImageStream

	displayFPS := time.Duration(a.config.GetFPS())
	if displayFPS == 0 {
		displayFPS = 24
	}
	displayTicker := time.NewTicker(time.Second / displayFPS)
	defer displayTicker.Stop()

	var lastFrame image.Image

	for {
		select {
		case frame := <-frameChan:
			if frame != nil {
				lastFrame = frame
			}

		case <-displayTicker.C:
			if lastFrame != nil {
				img := lastFrame
				fyne.Do(func() {
					a.videoCanvas.Image = img
					a.videoCanvas.Refresh()
				})
			}

		case <-stop:
			return
		}
	}
}

func (a *DetectApp) setupConfigSettings() {
	a.staticSettings = container.NewVBox()

	fpsInput := cwidget.NewIntInput(
		"FPS",
		"Enter integer",
		int(a.config.GetFPS()),
		func(i int) {
			a.config.SetFPS(uint(i))
		},
	)

	widthInput := cwidget.NewIntInput(
		"Width",
		"Enter integer",
		a.config.GetWidth(),
		func(i int) {
			a.config.SetWidth(i)
		},
	)

	heightInput := cwidget.NewIntInput(
		"Height",
		"Enter integer",
		a.config.GetHeight(),
		func(i int) {
			a.config.SetHeight(i)
		},
	)

	thresholdInput := cwidget.NewFloatInput(
		"Threshold (on relaunch)",
		"0.0 - 1.0",
		a.config.GetThreshold(),
		0, 1,
		func(f float64) {
			a.config.SetThreshold(f)
		},
	)

	applyCfg := widget.NewButton("Save config", func() {
		if err := a.config.Save(a.configPath); err != nil {
			dialog.ShowError(err, a.mainWin)
			return
		}
		a.StartProcessing(true)
	})

	a.staticSettings.Add(fpsInput)
	a.staticSettings.Add(widthInput)
	a.staticSettings.Add(heightInput)
	a.staticSettings.Add(thresholdInput)

	a.staticSettings.Add(applyCfg)
}

func (a *DetectApp) refreshSettingsUI(sourceType string) {
	a.dynamicSettings.Objects = nil
	a.StopProcessing()

	switch config.SourceType(sourceType) {
	case config.SourceLocal:
		pathEntry := widget.NewEntry()
		pathEntry.SetPlaceHolder("/path/to/video.mp4")
		pathEntry.SetText(a.config.Local.Path)

		pathEntry.OnChanged = func(s string) {
			a.config.Local.Path = s
		}

		fileBtn := widget.NewButtonWithIcon("Open File", theme.FolderOpenIcon(), func() {
			dialog.ShowFileOpen(func(reader fyne.URIReadCloser, err error) {
				if err == nil && reader != nil {
					pathEntry.SetText(reader.URI().Path())
					reader.Close()
				}
			}, a.mainWin)
		})

		a.dynamicSettings.Add(widget.NewLabel("Video Path:"))
		a.dynamicSettings.Add(container.NewBorder(nil, nil, nil, fileBtn, pathEntry))

	case config.SourceWebcam:
		deviceSelect := widget.NewSelect([]string{"Loading cameras..."}, func(s string) {
			if s != "Loading cameras..." && s != "No cameras found" {
				a.config.Webcam.DeviceID = s
			}
		})
		deviceSelect.SetSelected("Loading cameras...")
		deviceSelect.Disable()

		a.dynamicSettings.Add(widget.NewLabel("Select Camera:"))
		a.dynamicSettings.Add(deviceSelect)

		go func() {
			devices, err := capture.ListCameras()

			fyne.Do(func() {
				switch {
				case err != nil:
					dialog.ShowError(err, a.mainWin)
					deviceSelect.Options = []string{"Error listing cameras"}
				case len(devices) == 0:
					deviceSelect.Options = []string{"No cameras found"}
				default:
					deviceSelect.Options = devices
					deviceSelect.Enable()

					if a.config.Webcam.DeviceID != "" {
						deviceSelect.SetSelected(a.config.Webcam.DeviceID)
					} else {
						deviceSelect.SetSelected(devices[0])
					}
				}
				deviceSelect.Refresh()
			})
		}()

	case config.SourceCamera:
		deviceInput := cwidget.NewIntInput(
			"Camera index",
			"0",
			a.config.Camera.DeviceID+1,
			func(i int) {
				a.config.Camera.DeviceID = i - 1
			},
		)

		a.dynamicSettings.Add(widget.NewLabel("OpenCV camera (1 = first):"))
		a.dynamicSettings.Add(deviceInput)
	}

	a.dynamicSettings.Refresh()
}
