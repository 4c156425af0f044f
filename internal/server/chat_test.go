package server

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"go.uber.org/zap"

	"github.com/campuslens/campuslens/internal/catalog"
	"github.com/campuslens/campuslens/internal/config"
	"github.com/campuslens/campuslens/internal/fetcher"
	"github.com/campuslens/campuslens/internal/llm"
	"github.com/campuslens/campuslens/internal/models"
	"github.com/campuslens/campuslens/internal/prompt"
	"github.com/campuslens/campuslens/internal/resolver"
	"github.com/campuslens/campuslens/internal/storage"
)

// fakeModel replays scripted fragments. A non-nil err is sent after the
// fragments (errAt < 0 sends it before any fragment).
type fakeModel struct {
	fragments []string
	err       error
	history   []llm.Turn
	message   string
}

func (f *fakeModel) StreamChat(ctx context.Context, history []llm.Turn, message string) (<-chan string, <-chan error) {
	f.history = history
	f.message = message
	contentChan := make(chan string)
	errChan := make(chan error, 1)
	go func() {
		defer close(contentChan)
		for _, frag := range f.fragments {
			select {
			case contentChan <- frag:
			case <-ctx.Done():
				return
			}
		}
		if f.err != nil {
			errChan <- f.err
		}
	}()
	return contentChan, errChan
}

func newTestServer(t *testing.T, model llm.Client) (*Server, *fakeModel) {
	t.Helper()
	dir := t.TempDir()
	store, err := storage.NewSQLiteStorage(filepath.Join(dir, "db.sqlite"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { store.Close() })

	applied, admitted := 1000, 100
	tuition := 64700.0
	if err := store.UpsertInstitution(context.Background(), &models.InstitutionRecord{
		Key:  "yale",
		Name: "Yale University",
		Admissions: &models.Admissions{
			TotalApplied:  &applied,
			TotalAdmitted: &admitted,
		},
		Costs: &models.Costs{TuitionOutOfState: &tuition},
	}); err != nil {
		t.Fatal(err)
	}

	cat, err := catalog.New([]models.CatalogEntry{
		{Key: "yale", Label: "Yale University", Aliases: []string{"Yale"}},
		{Key: "brown", Label: "Brown University", Aliases: []string{"Brown"}},
	})
	if err != nil {
		t.Fatal(err)
	}

	logger := zap.NewNop()
	fm, _ := model.(*fakeModel)
	cfg := &config.Config{}
	config.ApplyDefaults(cfg)
	srv := NewServer(
		resolver.New(cat, 3),
		fetcher.New(store, nil, cat, logger),
		prompt.NewComposer(0),
		model,
		store,
		nil,
		cat,
		cfg,
		logger,
	)
	return srv, fm
}

func postChat(t *testing.T, srv *Server, body string) *httptest.ResponseRecorder {
	t.Helper()
	r := httptest.NewRequest(http.MethodPost, "/api/v1/chat", bytes.NewReader([]byte(body)))
	w := httptest.NewRecorder()
	srv.handleChat(w, r)
	return w
}

// sseEvents parses the data lines out of a recorded SSE body.
func sseEvents(t *testing.T, body string) []map[string]interface{} {
	t.Helper()
	var events []map[string]interface{}
	for _, line := range strings.Split(body, "\n") {
		if !strings.HasPrefix(line, "data: ") {
			continue
		}
		var ev map[string]interface{}
		if err := json.Unmarshal([]byte(strings.TrimPrefix(line, "data: ")), &ev); err != nil {
			t.Fatalf("bad event line %q: %v", line, err)
		}
		events = append(events, ev)
	}
	return events
}

func TestHandleChatMissingMessages(t *testing.T) {
	srv, _ := newTestServer(t, &fakeModel{})

	for _, body := range []string{`{}`, `{"messages":[]}`, `not json`} {
		w := postChat(t, srv, body)
		if w.Code != http.StatusBadRequest {
			t.Errorf("body %q: status = %d, want 400", body, w.Code)
		}
		var out map[string]string
		if err := json.NewDecoder(w.Body).Decode(&out); err != nil {
			t.Fatal(err)
		}
		if out["error"] != "Messages array is required" {
			t.Errorf("body %q: error = %q", body, out["error"])
		}
	}
}

func TestHandleChatStreamsFragmentsInOrder(t *testing.T) {
	srv, fm := newTestServer(t, &fakeModel{
		fragments: []string{"Yale admitted ", "**2,275** students", " this cycle."},
	})

	w := postChat(t, srv, `{"messages":[{"role":"user","content":"How selective is Yale?"}]}`)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", w.Code, w.Body.String())
	}
	if ct := w.Header().Get("Content-Type"); ct != "text/event-stream" {
		t.Errorf("Content-Type = %q", ct)
	}
	if cc := w.Header().Get("Cache-Control"); cc != "no-cache" {
		t.Errorf("Cache-Control = %q", cc)
	}

	events := sseEvents(t, w.Body.String())
	if len(events) != 4 {
		t.Fatalf("got %d events: %v", len(events), events)
	}
	wantContents := []string{"Yale admitted ", "2,275 students", " this cycle."}
	for i, want := range wantContents {
		if events[i]["content"] != want {
			t.Errorf("event %d = %v, want content %q", i, events[i], want)
		}
	}
	if events[3]["done"] != true {
		t.Errorf("terminal event = %v, want done", events[3])
	}

	if fm.message != "How selective is Yale?" {
		t.Errorf("submitted message = %q", fm.message)
	}
	// Priming exchange: synthetic user turn carries the grounding digest.
	if len(fm.history) < 2 {
		t.Fatalf("history = %v, want priming exchange", fm.history)
	}
	if fm.history[0].Role != llm.RoleUser || !strings.Contains(fm.history[0].Text, "Data for Yale University") {
		t.Errorf("history[0] missing grounding digest: %+v", fm.history[0])
	}
	if fm.history[1].Role != llm.RoleModel {
		t.Errorf("history[1].Role = %q, want model ack", fm.history[1].Role)
	}
}

func TestHandleChatForwardsPriorTurns(t *testing.T) {
	srv, fm := newTestServer(t, &fakeModel{fragments: []string{"ok"}})

	body := `{"messages":[
		{"role":"user","content":"Tell me about Yale"},
		{"role":"assistant","content":"Yale is in New Haven."},
		{"role":"user","content":"And its tuition?"}
	]}`
	w := postChat(t, srv, body)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}

	// Two synthetic turns plus the two prior real turns; newest goes as the
	// streamed message, not history.
	if len(fm.history) != 4 {
		t.Fatalf("history length = %d, want 4: %+v", len(fm.history), fm.history)
	}
	if fm.history[2].Text != "Tell me about Yale" || fm.history[2].Role != llm.RoleUser {
		t.Errorf("history[2] = %+v", fm.history[2])
	}
	if fm.history[3].Text != "Yale is in New Haven." || fm.history[3].Role != llm.RoleModel {
		t.Errorf("history[3] = %+v", fm.history[3])
	}
	if fm.message != "And its tuition?" {
		t.Errorf("message = %q", fm.message)
	}
}

func TestHandleChatPreStreamQuotaError(t *testing.T) {
	srv, _ := newTestServer(t, &fakeModel{
		err: fmt.Errorf("googleapi: Error 429: quota exceeded"),
	})

	w := postChat(t, srv, `{"messages":[{"role":"user","content":"hi"}]}`)
	if w.Code != http.StatusTooManyRequests {
		t.Errorf("status = %d, want 429", w.Code)
	}
	var out map[string]string
	if err := json.NewDecoder(w.Body).Decode(&out); err != nil {
		t.Fatal(err)
	}
	if out["error"] == "" {
		t.Error("expected a JSON error body")
	}
}

func TestHandleChatPreStreamServerError(t *testing.T) {
	srv, _ := newTestServer(t, &fakeModel{err: fmt.Errorf("connection reset")})

	w := postChat(t, srv, `{"messages":[{"role":"user","content":"hi"}]}`)
	if w.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want 500", w.Code)
	}
}

func TestHandleChatMidStreamErrorGoesInBand(t *testing.T) {
	srv, _ := newTestServer(t, &fakeModel{
		fragments: []string{"partial answer"},
		err:       fmt.Errorf("stream interrupted"),
	})

	w := postChat(t, srv, `{"messages":[{"role":"user","content":"hi"}]}`)
	// Headers already went out with the first fragment.
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	events := sseEvents(t, w.Body.String())
	if len(events) != 2 {
		t.Fatalf("got %d events: %v", len(events), events)
	}
	if events[0]["content"] != "partial answer" {
		t.Errorf("event 0 = %v", events[0])
	}
	if events[1]["error"] == "" || events[1]["error"] == nil {
		t.Errorf("event 1 = %v, want in-band error", events[1])
	}
	for _, ev := range events {
		if ev["done"] == true {
			t.Error("done must not be sent after a stream error")
		}
	}
}

func TestHandleChatPageContextGrounding(t *testing.T) {
	srv, fm := newTestServer(t, &fakeModel{fragments: []string{"ok"}})

	body := `{"messages":[{"role":"user","content":"How much is tuition?"}],
		"context":{"collegeName":"Yale University","pageType":"costs"}}`
	w := postChat(t, srv, body)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	instruction := fm.history[0].Text
	if !strings.Contains(instruction, "currently viewing the costs page for Yale University") {
		t.Errorf("instruction missing page context:\n%s", instruction)
	}
	if !strings.Contains(instruction, "Tuition: $64,700") {
		t.Errorf("instruction missing page college data:\n%s", instruction)
	}
}

func TestHandleChatLastMessageMustBeUser(t *testing.T) {
	srv, _ := newTestServer(t, &fakeModel{})
	w := postChat(t, srv, `{"messages":[{"role":"assistant","content":"hello"}]}`)
	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", w.Code)
	}
}
