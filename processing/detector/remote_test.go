package processing

import (
	"context"
	"encoding/json"
	"image"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pizzadetector/internal/log"
	"pizzadetector/internal/models"
)

type detectionServer struct {
	reply    []models.DetectionResult
	frames   atomic.Int32
	conns    atomic.Int32
	closeNow atomic.Bool
	silent   bool
}

func (s *detectionServer) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	upgrader := websocket.Upgrader{}
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	defer conn.Close()
	s.conns.Add(1)

	for {
		kind, _, err := conn.ReadMessage()
		if err != nil {
			return
		}
		if kind != websocket.BinaryMessage {
			continue
		}
		s.frames.Add(1)

		if s.closeNow.Swap(false) {
			return
		}
		if s.silent {
			continue
		}

		msg, _ := json.Marshal(s.reply)
		if err := conn.WriteMessage(websocket.TextMessage, msg); err != nil {
			return
		}
	}
}

func startServer(t *testing.T, s *detectionServer) string {
	t.Helper()
	srv := httptest.NewServer(s)
	t.Cleanup(srv.Close)

	u, err := url.Parse(srv.URL)
	require.NoError(t, err)
	return u.Host
}

func testImage() image.Image {
	return image.NewRGBA(image.Rect(0, 0, 64, 48))
}

func TestRemoteLabeler_Predict(t *testing.T) {
	server := &detectionServer{reply: []models.DetectionResult{
		{Label: "pizza", Confidence: 0.5, Box: []float32{0, 0, 1, 1}},
		{Label: "pizza", Confidence: 0.75},
		{Label: "cup", Confidence: 0.125},
	}}
	host := startServer(t, server)

	labeler := NewRemoteLabeler(host, 32, time.Second, log.Nop())
	defer labeler.Close()

	labels, err := labeler.Predict(context.Background(), testImage(), Options{CropAndScale: CenterCrop, Threshold: 0.2})
	require.NoError(t, err)

	assert.Equal(t, []models.Label{{Name: "pizza", Confidence: 0.75}}, labels)
	assert.Equal(t, int32(1), server.frames.Load())
}

func TestRemoteLabeler_ReusesConnection(t *testing.T) {
	server := &detectionServer{}
	host := startServer(t, server)

	labeler := NewRemoteLabeler(host, 0, time.Second, log.Nop())
	defer labeler.Close()

	for i := 0; i < 3; i++ {
		_, err := labeler.Predict(context.Background(), testImage(), Options{Threshold: 0.2})
		require.NoError(t, err)
	}

	assert.Equal(t, int32(1), server.conns.Load())
	assert.Equal(t, int32(3), server.frames.Load())
}

func TestRemoteLabeler_ReconnectsAfterFailure(t *testing.T) {
	server := &detectionServer{}
	server.closeNow.Store(true)
	host := startServer(t, server)

	labeler := NewRemoteLabeler(host, 0, time.Second, log.Nop())
	defer labeler.Close()

	_, err := labeler.Predict(context.Background(), testImage(), Options{})
	assert.Error(t, err)

	_, err = labeler.Predict(context.Background(), testImage(), Options{})
	assert.NoError(t, err)
	assert.Equal(t, int32(2), server.conns.Load())
}

func TestRemoteLabeler_Timeout(t *testing.T) {
	server := &detectionServer{silent: true}
	host := startServer(t, server)

	labeler := NewRemoteLabeler(host, 0, 50*time.Millisecond, log.Nop())
	defer labeler.Close()

	start := time.Now()
	_, err := labeler.Predict(context.Background(), testImage(), Options{})
	assert.Error(t, err)
	assert.Less(t, time.Since(start), time.Second)
}

func TestRemoteLabeler_Unreachable(t *testing.T) {
	labeler := NewRemoteLabeler("127.0.0.1:1", 0, 200*time.Millisecond, log.Nop())
	defer labeler.Close()

	_, err := labeler.Predict(context.Background(), testImage(), Options{})
	assert.Error(t, err)
}
