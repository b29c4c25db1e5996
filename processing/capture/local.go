package capture

import (
	"encoding/json"
	"fmt"
	"os/exec"
	"time"
)

const standardFps uint = 30

// LocalFileStreamer plays a video file at the target rate, as if it were a
// camera.
type LocalFileStreamer struct {
	*ffmpegPipe

	path string
}

// NewLocalStreamer fails early when path has no decodable video stream, so
// a bad file is reported before the session starts.
func NewLocalStreamer(path string, targetFPS uint, scaledWidth int, scaledHeight int) (*LocalFileStreamer, error) {
	if err := probeVideo(path); err != nil {
		return nil, fmt.Errorf("failed to probe video: %w", err)
	}

	if targetFPS == 0 {
		targetFPS = standardFps
	}

	args := rawvideoArgs([]string{"-re", "-i", path}, targetFPS, scaledWidth, scaledHeight)

	return &LocalFileStreamer{
		ffmpegPipe: newFFmpegPipe(args, scaledWidth, scaledHeight, time.Second/time.Duration(targetFPS)),
		path:       path,
	}, nil
}

type probeData struct {
	Streams []struct {
		Width  uint16 `json:"width"`
		Height uint16 `json:"height"`
	} `json:"streams"`
}

func probeVideo(path string) error {
	cmd := exec.Command("ffprobe",
		"-v", "error",
		"-select_streams", "v:0",
		"-show_entries", "stream=width,height",
		"-of", "json",
		path,
	)

	output, err := cmd.Output()
	if err != nil {
		return err
	}

	return parseProbe(output)
}

func parseProbe(output []byte) error {
	var data probeData
	if err := json.Unmarshal(output, &data); err != nil {
		return err
	}

	if len(data.Streams) == 0 {
		return fmt.Errorf("no video streams found")
	}
	if s := data.Streams[0]; s.Width == 0 || s.Height == 0 {
		return fmt.Errorf("video stream has no dimensions")
	}
	return nil
}
