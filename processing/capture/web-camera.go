package capture

import (
	"bytes"
	"fmt"
	"os/exec"
	"regexp"
	"runtime"
)

// FFmpegWebcamStreamer reads a webcam through ffmpeg (v4l2 or dshow).
type FFmpegWebcamStreamer struct {
	*ffmpegPipe

	deviceName string
}

func NewFFmpegWebcam(deviceName string, targetFps uint, scaledWidth int, scaledHeight int) *FFmpegWebcamStreamer {
	return &FFmpegWebcamStreamer{
		ffmpegPipe: newFFmpegPipe(webcamArgs(runtime.GOOS, deviceName, targetFps, scaledWidth, scaledHeight), scaledWidth, scaledHeight, 0),
		deviceName: deviceName,
	}
}

func webcamArgs(goos, deviceName string, fps uint, width, height int) []string {
	if goos == "windows" {
		return rawvideoArgs([]string{"-f", "dshow", "-i", fmt.Sprintf("video=%s", deviceName)}, fps, width, height)
	}
	return rawvideoArgs([]string{"-f", "v4l2", "-i", deviceName}, fps, width, height)
}

var dshowDevice = regexp.MustCompile(`"([^"]+)"\s+\(video\)`)

func ListCameras() ([]string, error) {
	if runtime.GOOS != "windows" {
		return []string{"/dev/video0", "/dev/video1"}, nil
	}

	cmd := exec.Command("ffmpeg", "-list_devices", "true", "-f", "dshow", "-i", "dummy")
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	// ffmpeg exits non-zero with -list_devices; the listing is on stderr.
	cmd.Run()

	return parseDshowDevices(stderr.String()), nil
}

func parseDshowDevices(output string) []string {
	var cameras []string
	seen := make(map[string]bool)

	for _, m := range dshowDevice.FindAllStringSubmatch(output, -1) {
		name := m[1]
		if name != "dummy" && !seen[name] {
			cameras = append(cameras, name)
			seen[name] = true
		}
	}
	return cameras
}
