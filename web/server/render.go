package server

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"image"
	"image/png"
	"log"
	"net/http"
	"os"
	"time"

	"github.com/gorilla/websocket"

	"github.com/df07/go-pathtracer/pkg/core"
	"github.com/df07/go-pathtracer/pkg/renderer"
	"github.com/df07/go-pathtracer/pkg/scene"
)

// Stream message types
const (
	MessageConsole  = "console"
	MessageProgress = "progress"
	MessageComplete = "complete"
	MessageError    = "error"
)

// StreamMessage is one websocket frame of a render stream
type StreamMessage struct {
	Type     string          `json:"type"`
	Console  *ConsoleMessage `json:"console,omitempty"`
	Progress *ProgressUpdate `json:"progress,omitempty"`
	Error    string          `json:"error,omitempty"`
}

// ProgressUpdate represents the image after one pass
type ProgressUpdate struct {
	PassNumber  int    `json:"passNumber"`
	TotalPasses int    `json:"totalPasses"`
	ImageData   string `json:"imageData"` // Base64 encoded PNG
	Stats       Stats  `json:"stats"`
	IsComplete  bool   `json:"isComplete"`
	ElapsedMs   int64  `json:"elapsedMs"`
}

// Stats represents render statistics
type Stats struct {
	TotalPixels      int                      `json:"totalPixels"`
	SamplesPerPixel  int                      `json:"samplesPerPixel"`
	Passes           int                      `json:"passes"`
	Batches          int                      `json:"batches"`
	Workers          int                      `json:"workers"`
	AverageLuminance float64                  `json:"averageLuminance"`
	Hits             map[string]core.HitCount `json:"hits,omitempty"`
}

// handleRender streams a progressive render over a websocket.
// Console lines and pass previews are interleaved in render order.
func (s *Server) handleRender(w http.ResponseWriter, r *http.Request) {
	req, err := parseRenderRequest(r.URL.Query())
	if err != nil {
		http.Error(w, fmt.Sprintf("Invalid request: %v", err), http.StatusBadRequest)
		return
	}

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Println("upgrade:", err)
		return
	}
	defer conn.Close()

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	// reader: the client never sends, so any read result means it went away
	go func() {
		defer cancel()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	renderID := fmt.Sprintf("render-%d", time.Now().UnixNano())
	consoleChan := make(chan ConsoleMessage, 100)
	logger := NewWebLogger(renderID, consoleChan, os.Stdout)

	raytracer, err := s.setupRenderer(req, logger)
	if err != nil {
		s.sendError(conn, err)
		return
	}

	startTime := time.Now()
	passChan, errChan := raytracer.RenderProgressive(ctx)

	for passChan != nil {
		select {
		case msg := <-consoleChan:
			if err := sendConsole(conn, msg); err != nil {
				cancel()
				return
			}
		case result, ok := <-passChan:
			if !ok {
				passChan = nil
				break
			}
			if err := s.sendPass(conn, result, startTime); err != nil {
				log.Printf("Error sending pass %d: %v", result.PassNumber, err)
				cancel()
				return
			}
		case <-ctx.Done():
			return
		}
	}

	// The error channel is closed before the pass channel
	renderErr := <-errChan

	// Flush console lines logged after the last pass
	for drained := false; !drained; {
		select {
		case msg := <-consoleChan:
			if err := sendConsole(conn, msg); err != nil {
				return
			}
		default:
			drained = true
		}
	}

	if renderErr != nil {
		s.sendError(conn, fmt.Errorf("render error: %w", renderErr))
		return
	}

	conn.WriteJSON(StreamMessage{Type: MessageComplete})
	conn.WriteMessage(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, "render complete"))
}

// setupRenderer builds the requested scene and a raytracer for it
func (s *Server) setupRenderer(req *RenderRequest, logger core.Logger) (*renderer.Raytracer, error) {
	settings := req.Settings()
	sceneObj, err := scene.New(req.Scene, settings, scene.Options{Seed: req.Seed, RecordStats: true})
	if err != nil {
		return nil, err
	}
	logger.Printf("Built %s scene with %d primitives\n", sceneObj.Name, sceneObj.Primitives)

	config := renderer.DefaultRenderConfig()
	config.Passes = req.Passes
	config.Seed = req.Seed
	return renderer.NewRaytracer(sceneObj, settings, config, logger)
}

func sendConsole(conn *websocket.Conn, msg ConsoleMessage) error {
	return conn.WriteJSON(StreamMessage{Type: MessageConsole, Console: &msg})
}

// sendPass encodes the running image of a pass and sends it as a progress update
func (s *Server) sendPass(conn *websocket.Conn, result renderer.PassResult, startTime time.Time) error {
	img := result.Buffer.Image()
	imageData, err := imageToBase64PNG(img)
	if err != nil {
		return fmt.Errorf("failed to encode image: %w", err)
	}

	stats := Stats{
		TotalPixels:      result.Stats.TotalPixels,
		SamplesPerPixel:  result.Stats.TotalSamples,
		Passes:           result.Stats.Passes,
		Batches:          result.Stats.Batches,
		Workers:          result.Stats.Workers,
		AverageLuminance: renderer.CalculateAverageLuminance(img),
	}
	if categories := result.Stats.Hits.Categories(); len(categories) > 0 {
		stats.Hits = make(map[string]core.HitCount, len(categories))
		for _, category := range categories {
			stats.Hits[category] = result.Stats.Hits.Record(category)
		}
	}

	return conn.WriteJSON(StreamMessage{
		Type: MessageProgress,
		Progress: &ProgressUpdate{
			PassNumber:  result.PassNumber,
			TotalPasses: result.TotalPasses,
			ImageData:   imageData,
			Stats:       stats,
			IsComplete:  result.IsLast,
			ElapsedMs:   time.Since(startTime).Milliseconds(),
		},
	})
}

func (s *Server) sendError(conn *websocket.Conn, err error) {
	log.Printf("Render failed: %v", err)
	conn.WriteJSON(StreamMessage{Type: MessageError, Error: err.Error()})
	conn.WriteMessage(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseInternalServerErr, "render failed"))
}

// imageToBase64PNG converts an image to base64-encoded PNG
func imageToBase64PNG(img image.Image) (string, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(buf.Bytes()), nil
}
