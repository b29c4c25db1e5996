package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/spf13/viper"
)

type SourceType string

const (
	SourceLocal  SourceType = "Local"
	SourceWebcam SourceType = "Web-Camera"
	SourceCamera SourceType = "Camera"

	DefaultConfigPath   string = "config.json"
	DefaultRemoteHost   string = "localhost:8080"
	DefaultTargetLabel  string = "pizza"
	DefaultModelPath    string = "models/yolov8n.onnx"
	DefaultCropAndScale string = "center-crop"
)

type BackendType string

const (
	BackendYOLO   BackendType = "yolo"
	BackendRemote BackendType = "remote"
)

var SourcesList = [...]string{
	string(SourceLocal),
	string(SourceWebcam),
	string(SourceCamera),
}

type LocalConfig struct {
	Path string `json:"path" mapstructure:"path"`
}

type WebcamConfig struct {
	DeviceID string `json:"device_id" mapstructure:"device_id"`
}

// CameraConfig selects an OpenCV capture device by index.
type CameraConfig struct {
	DeviceID int `json:"device_id" mapstructure:"device_id"`
}

type DetectorConfig struct {
	Backend      BackendType   `json:"backend" mapstructure:"backend"`
	ModelPath    string        `json:"model_path" mapstructure:"model_path"`
	RemoteHost   string        `json:"remote_host" mapstructure:"remote_host"`
	TargetLabel  string        `json:"target_label" mapstructure:"target_label"`
	Threshold    float64       `json:"threshold" mapstructure:"threshold"`
	CropAndScale string        `json:"crop_and_scale" mapstructure:"crop_and_scale"`
	Timeout      time.Duration `json:"timeout" mapstructure:"timeout"`
	InputSize    int           `json:"input_size" mapstructure:"input_size"`
}

type CelebrationConfig struct {
	Count      int           `json:"count" mapstructure:"count"`
	Duration   time.Duration `json:"duration" mapstructure:"duration"`
	Jitter     float64       `json:"jitter" mapstructure:"jitter"`
	SpriteSize float32       `json:"sprite_size" mapstructure:"sprite_size"`
	// Sprite is a PNG or JPEG image. Empty uses the built-in slice.
	Sprite string `json:"sprite" mapstructure:"sprite"`
}

type LogConfig struct {
	Level string `json:"level" mapstructure:"level"`
	File  string `json:"file" mapstructure:"file"`
}

type Config struct {
	mu sync.RWMutex

	ActiveSource SourceType `json:"active_source" mapstructure:"active_source"`
	TargetFPS    uint       `json:"target_fps" mapstructure:"target_fps"`
	ScaledWidth  int        `json:"scaled_width" mapstructure:"scaled_width"`
	ScaledHeight int        `json:"scaled_height" mapstructure:"scaled_height"`
	// Orientation is the clockwise turn that makes captured frames upright:
	// up, right, down or left.
	Orientation string `json:"orientation" mapstructure:"orientation"`

	Local  LocalConfig  `json:"local" mapstructure:"local"`
	Webcam WebcamConfig `json:"webcam" mapstructure:"webcam"`
	Camera CameraConfig `json:"camera" mapstructure:"camera"`

	Detector    DetectorConfig    `json:"detector" mapstructure:"detector"`
	Celebration CelebrationConfig `json:"celebration" mapstructure:"celebration"`
	Log         LogConfig         `json:"log" mapstructure:"log"`
}

func (c *Config) GetFPS() uint {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.TargetFPS
}

func (c *Config) SetFPS(fps uint) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.TargetFPS = fps
}

func (c *Config) GetWidth() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.ScaledWidth
}

func (c *Config) SetWidth(width int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.ScaledWidth = width
}

func (c *Config) GetHeight() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.ScaledHeight
}

func (c *Config) SetHeight(height int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.ScaledHeight = height
}

func (c *Config) GetSource() SourceType {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.ActiveSource
}

func (c *Config) SetSource(s SourceType) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.ActiveSource = s
}

func (c *Config) GetThreshold() float64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.Detector.Threshold
}

func (c *Config) SetThreshold(t float64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.Detector.Threshold = t
}

// Validate reports the first setting that would make the pipeline unusable.
func (c *Config) Validate() error {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if c.Detector.Threshold < 0 || c.Detector.Threshold > 1 {
		return fmt.Errorf("detector.threshold must be within [0,1], got %v", c.Detector.Threshold)
	}
	if c.Detector.TargetLabel == "" {
		return errors.New("detector.target_label is empty")
	}
	if c.Celebration.Count <= 0 {
		return fmt.Errorf("celebration.count must be positive, got %d", c.Celebration.Count)
	}
	if c.Celebration.Duration <= 0 {
		return fmt.Errorf("celebration.duration must be positive, got %s", c.Celebration.Duration)
	}
	if c.ScaledWidth <= 0 || c.ScaledHeight <= 0 {
		return fmt.Errorf("scaled size must be positive, got %dx%d", c.ScaledWidth, c.ScaledHeight)
	}
	return nil
}

// Save writes the config to path in the format its extension names, JSON
// when the extension is not one viper knows.
func (c *Config) Save(path string) error {
	v := viper.New()
	setConfigType(v, path)

	c.mu.RLock()
	for key, value := range c.settings() {
		v.Set(key, value)
	}
	c.mu.RUnlock()

	if err := v.WriteConfigAs(path); err != nil {
		return fmt.Errorf("write config %s: %w", path, err)
	}
	return nil
}

func setConfigType(v *viper.Viper, path string) {
	ext := strings.TrimPrefix(filepath.Ext(path), ".")
	if !slices.Contains(viper.SupportedExts, ext) {
		v.SetConfigType("json")
	}
}

// Load reads path (JSON or YAML, by extension) on top of the defaults.
// A missing file is not an error. PIZZA_* environment variables override
// file values, e.g. PIZZA_DETECTOR_THRESHOLD=0.4.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix("PIZZA")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		setConfigType(v, path)
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) && !errors.Is(err, os.ErrNotExist) {
				return nil, fmt.Errorf("read config %s: %w", path, err)
			}
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	for key, value := range NewDefaultConfig().settings() {
		v.SetDefault(key, value)
	}
}

// settings flattens the config into viper keys. Durations are written as
// strings so saved files stay readable.
func (c *Config) settings() map[string]any {
	return map[string]any{
		"active_source": string(c.ActiveSource),
		"target_fps":    c.TargetFPS,
		"scaled_width":  c.ScaledWidth,
		"scaled_height": c.ScaledHeight,
		"orientation":   c.Orientation,

		"local.path":       c.Local.Path,
		"webcam.device_id": c.Webcam.DeviceID,
		"camera.device_id": c.Camera.DeviceID,

		"detector.backend":        string(c.Detector.Backend),
		"detector.model_path":     c.Detector.ModelPath,
		"detector.remote_host":    c.Detector.RemoteHost,
		"detector.target_label":   c.Detector.TargetLabel,
		"detector.threshold":      c.Detector.Threshold,
		"detector.crop_and_scale": c.Detector.CropAndScale,
		"detector.timeout":        c.Detector.Timeout.String(),
		"detector.input_size":     c.Detector.InputSize,

		"celebration.count":       c.Celebration.Count,
		"celebration.duration":    c.Celebration.Duration.String(),
		"celebration.jitter":      c.Celebration.Jitter,
		"celebration.sprite_size": c.Celebration.SpriteSize,
		"celebration.sprite":      c.Celebration.Sprite,

		"log.level": c.Log.Level,
		"log.file":  c.Log.File,
	}
}

func NewDefaultConfig() *Config {
	return &Config{
		ActiveSource: SourceCamera,
		Local:        LocalConfig{Path: ""},
		Webcam:       WebcamConfig{DeviceID: "/dev/video0"},
		Camera:       CameraConfig{DeviceID: 0},
		TargetFPS:    24,
		ScaledWidth:  640,
		ScaledHeight: 480,
		Orientation:  "up",
		Detector: DetectorConfig{
			Backend:      BackendYOLO,
			ModelPath:    DefaultModelPath,
			RemoteHost:   DefaultRemoteHost,
			TargetLabel:  DefaultTargetLabel,
			Threshold:    0.2,
			CropAndScale: DefaultCropAndScale,
			Timeout:      2 * time.Second,
			InputSize:    640,
		},
		Celebration: CelebrationConfig{
			Count:      10,
			Duration:   2 * time.Second,
			Jitter:     50,
			SpriteSize: 100,
		},
		Log: LogConfig{Level: "info"},
	}
}
