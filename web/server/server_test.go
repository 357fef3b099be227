package server

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"image/png"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/df07/go-pathtracer/pkg/scene"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	ts := httptest.NewServer(NewServer(0).Handler())
	t.Cleanup(ts.Close)
	return ts
}

func TestHandleHealth(t *testing.T) {
	ts := newTestServer(t)

	resp, err := http.Get(ts.URL + "/api/health")
	if err != nil {
		t.Fatalf("Request failed: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Errorf("Expected 200, got %d", resp.StatusCode)
	}
	var body map[string]string
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("Failed to decode: %v", err)
	}
	if body["status"] != "ok" {
		t.Errorf("Expected status ok, got %v", body)
	}
}

func TestHandleScenes(t *testing.T) {
	ts := newTestServer(t)

	resp, err := http.Get(ts.URL + "/api/scenes")
	if err != nil {
		t.Fatalf("Request failed: %v", err)
	}
	defer resp.Body.Close()

	var body scene.ScenesResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("Failed to decode: %v", err)
	}

	ids := map[string]bool{}
	for _, group := range body.Groups {
		for _, info := range group.Scenes {
			ids[info.ID] = true
		}
	}
	for _, name := range scene.Names() {
		if !ids[name] {
			t.Errorf("Scene %q missing from /api/scenes", name)
		}
	}
}

func TestParseRenderRequest(t *testing.T) {
	tests := []struct {
		name        string
		query       string
		expected    RenderRequest
		expectError bool
	}{
		{
			name:     "defaults",
			query:    "",
			expected: RenderRequest{Scene: "book-cover", Width: 200, Height: 100, Samples: 100, Depth: 50, Passes: 10, Seed: 42},
		},
		{
			name:     "explicit",
			query:    "scene=checker&width=64&height=32&samples=8&depth=5&passes=2&seed=9",
			expected: RenderRequest{Scene: "checker", Width: 64, Height: 32, Samples: 8, Depth: 5, Passes: 2, Seed: 9},
		},
		{name: "width too small", query: "width=1", expectError: true},
		{name: "samples not a number", query: "samples=lots", expectError: true},
		{name: "negative seed", query: "seed=-1", expectError: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			values, _ := url.ParseQuery(tt.query)
			req, err := parseRenderRequest(values)
			if tt.expectError {
				if err == nil {
					t.Error("Expected error")
				}
				return
			}
			if err != nil {
				t.Fatalf("Unexpected error: %v", err)
			}
			if *req != tt.expected {
				t.Errorf("Expected %+v, got %+v", tt.expected, *req)
			}
		})
	}
}

func TestHandleInspect(t *testing.T) {
	ts := newTestServer(t)

	get := func(query string) (int, InspectResponse) {
		resp, err := http.Get(ts.URL + "/api/inspect?" + query)
		if err != nil {
			t.Fatalf("Request failed: %v", err)
		}
		defer resp.Body.Close()
		var body InspectResponse
		json.NewDecoder(resp.Body).Decode(&body)
		return resp.StatusCode, body
	}

	// The center of the image looks straight at the front of the sphere
	status, body := get("scene=sphere&width=20&height=10&x=10&y=5")
	if status != http.StatusOK {
		t.Fatalf("Expected 200, got %d", status)
	}
	if !body.Hit || body.MaterialType != "lambertian" || !body.FrontFace {
		t.Errorf("Expected front-facing lambertian hit, got %+v", body)
	}
	if body.Distance < 0.5 || body.Distance > 0.55 {
		t.Errorf("Expected distance near 0.5, got %f", body.Distance)
	}

	// The top row sees only sky
	status, body = get("scene=sphere&width=20&height=10&x=0&y=0")
	if status != http.StatusOK || body.Hit {
		t.Errorf("Expected sky miss, got status %d %+v", status, body)
	}
	if body.Background[2] < 0.999 || body.Background[0] >= 1 {
		t.Errorf("Expected blue tinted sky, got %v", body.Background)
	}

	for _, query := range []string{
		"scene=sphere&width=20&height=10&x=20&y=0",
		"scene=sphere&width=20&height=10&x=a&y=0",
		"scene=missing&width=20&height=10&x=1&y=1",
	} {
		if status, _ := get(query); status != http.StatusBadRequest {
			t.Errorf("%s: expected 400, got %d", query, status)
		}
	}
}

func dialRender(t *testing.T, ts *httptest.Server, query string) (*websocket.Conn, *http.Response, error) {
	t.Helper()
	wsURL := "ws" + strings.TrimPrefix(ts.URL, "http") + "/api/render?" + query
	return websocket.DefaultDialer.Dial(wsURL, nil)
}

func TestHandleRender_StreamsPasses(t *testing.T) {
	ts := newTestServer(t)

	conn, _, err := dialRender(t, ts, "scene=sphere&width=16&height=8&samples=3&depth=4&passes=3")
	if err != nil {
		t.Fatalf("Dial failed: %v", err)
	}
	defer conn.Close()
	conn.SetReadDeadline(time.Now().Add(30 * time.Second))

	var progress []ProgressUpdate
	consoleLines := 0
	for done := false; !done; {
		var msg StreamMessage
		if err := conn.ReadJSON(&msg); err != nil {
			t.Fatalf("Read failed after %d updates: %v", len(progress), err)
		}
		switch msg.Type {
		case MessageConsole:
			consoleLines++
		case MessageProgress:
			progress = append(progress, *msg.Progress)
		case MessageComplete:
			done = true
		case MessageError:
			t.Fatalf("Render error: %s", msg.Error)
		}
	}

	if len(progress) != 3 {
		t.Fatalf("Expected 3 progress updates, got %d", len(progress))
	}
	if consoleLines == 0 {
		t.Error("Expected console lines in the stream")
	}
	for i, update := range progress {
		if update.PassNumber != i+1 || update.TotalPasses != 3 {
			t.Errorf("Update %d: unexpected pass %d of %d", i, update.PassNumber, update.TotalPasses)
		}
		if update.Stats.SamplesPerPixel != i+1 {
			t.Errorf("Update %d: expected %d samples, got %d", i, i+1, update.Stats.SamplesPerPixel)
		}
	}

	last := progress[len(progress)-1]
	if !last.IsComplete {
		t.Error("Expected last update to be complete")
	}
	if last.Stats.Hits["world"].Hits == 0 {
		t.Errorf("Expected world hits in stats, got %+v", last.Stats.Hits)
	}

	data, err := base64.StdEncoding.DecodeString(last.ImageData)
	if err != nil {
		t.Fatalf("Invalid base64: %v", err)
	}
	img, err := png.Decode(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("Invalid PNG: %v", err)
	}
	if img.Bounds().Dx() != 16 || img.Bounds().Dy() != 8 {
		t.Errorf("Expected 16x8 image, got %v", img.Bounds())
	}
}

func TestHandleRender_InvalidRequest(t *testing.T) {
	ts := newTestServer(t)

	_, resp, err := dialRender(t, ts, "width=5")
	if err != websocket.ErrBadHandshake {
		t.Fatalf("Expected bad handshake, got %v", err)
	}
	if resp == nil || resp.StatusCode != http.StatusBadRequest {
		t.Errorf("Expected 400 response, got %v", resp)
	}
}

func TestHandleRender_UnknownScene(t *testing.T) {
	ts := newTestServer(t)

	conn, _, err := dialRender(t, ts, "scene=nonexistent&width=16&height=8&samples=1")
	if err != nil {
		t.Fatalf("Dial failed: %v", err)
	}
	defer conn.Close()
	conn.SetReadDeadline(time.Now().Add(10 * time.Second))

	var msg StreamMessage
	if err := conn.ReadJSON(&msg); err != nil {
		t.Fatalf("Read failed: %v", err)
	}
	if msg.Type != MessageError || !strings.Contains(msg.Error, "unknown scene") {
		t.Errorf("Expected unknown scene error, got %+v", msg)
	}
}
