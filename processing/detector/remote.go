package processing

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"image"
	"image/jpeg"
	"net/url"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"pizzadetector/internal/models"
)

// RemoteLabeler asks a detection server over a websocket. Each request is
// one binary JPEG message answered by one JSON array of detections.
type RemoteLabeler struct {
	serverURL string
	dialer    *websocket.Dialer
	inputSize int
	timeout   time.Duration
	log       *logrus.Entry

	mu   sync.Mutex
	conn *websocket.Conn
}

func NewRemoteLabeler(host string, inputSize int, timeout time.Duration, log *logrus.Logger) *RemoteLabeler {
	u := url.URL{Scheme: "ws", Host: host, Path: "/ws"}

	if timeout <= 0 {
		timeout = 2 * time.Second
	}

	return &RemoteLabeler{
		serverURL: u.String(),
		dialer:    websocket.DefaultDialer,
		inputSize: inputSize,
		timeout:   timeout,
		log:       log.WithField("component", "remote-labeler"),
	}
}

func (r *RemoteLabeler) Predict(ctx context.Context, img image.Image, opts Options) ([]models.Label, error) {
	var payload image.Image = img
	if r.inputSize > 0 {
		payload = fitSquare(img, opts.CropAndScale, r.inputSize)
	}

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, payload, nil); err != nil {
		return nil, fmt.Errorf("jpeg encode: %w", err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	deadline := time.Now().Add(r.timeout)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}

	conn, err := r.connect(ctx, deadline)
	if err != nil {
		return nil, err
	}

	message, err := r.roundTrip(conn, buf.Bytes(), deadline)
	if err != nil {
		r.log.WithError(err).Debug("dropping detector connection")
		r.closeConn()
		return nil, err
	}

	var results []models.DetectionResult
	if err := json.Unmarshal(message, &results); err != nil {
		return nil, fmt.Errorf("decode detections: %w", err)
	}

	return aboveThreshold(models.Labels(results), opts.Threshold), nil
}

func (r *RemoteLabeler) connect(ctx context.Context, deadline time.Time) (*websocket.Conn, error) {
	if r.conn != nil {
		return r.conn, nil
	}

	dialCtx, cancel := context.WithDeadline(ctx, deadline)
	defer cancel()

	conn, _, err := r.dialer.DialContext(dialCtx, r.serverURL, nil)
	if err != nil {
		return nil, fmt.Errorf("connect to %s: %w", r.serverURL, err)
	}

	r.log.WithField("url", r.serverURL).Info("connected to detection server")
	r.conn = conn
	return conn, nil
}

func (r *RemoteLabeler) roundTrip(conn *websocket.Conn, frame []byte, deadline time.Time) ([]byte, error) {
	if err := conn.SetWriteDeadline(deadline); err != nil {
		return nil, err
	}
	if err := conn.WriteMessage(websocket.BinaryMessage, frame); err != nil {
		return nil, fmt.Errorf("send frame: %w", err)
	}

	if err := conn.SetReadDeadline(deadline); err != nil {
		return nil, err
	}
	_, message, err := conn.ReadMessage()
	if err != nil {
		return nil, fmt.Errorf("read detections: %w", err)
	}
	return message, nil
}

func (r *RemoteLabeler) closeConn() {
	if r.conn != nil {
		r.conn.Close()
		r.conn = nil
	}
}

func (r *RemoteLabeler) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.closeConn()
	return nil
}
