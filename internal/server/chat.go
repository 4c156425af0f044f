package server

import (
	"encoding/json"
	"fmt"
	"net/http"

	"go.uber.org/zap"

	"github.com/campuslens/campuslens/internal/fetcher"
	"github.com/campuslens/campuslens/internal/llm"
	"github.com/campuslens/campuslens/internal/models"
	"github.com/campuslens/campuslens/internal/prompt"
	"github.com/campuslens/campuslens/pkg/utils"
)

// modelAck is the synthetic assistant turn that closes the priming exchange.
// The composed system instruction rides in a synthetic user turn because the
// chat transport has no separate system-instruction slot per turn.
const modelAck = "Understood. I will answer using only the provided data and follow the formatting rules."

// handleChat runs the full grounding pipeline and streams the model response
// as server-sent events. Response headers are deferred until the first
// fragment so pre-stream failures can still return a JSON error status.
func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	var req models.ChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, http.StatusBadRequest, "Messages array is required")
		return
	}
	if err := req.Validate(); err != nil {
		s.respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	ctx := r.Context()
	message := req.Messages[len(req.Messages)-1].Content

	pageCollege := ""
	if req.Context != nil {
		pageCollege = req.Context.CollegeName
	}
	candidates := s.resolver.Extract(message, pageCollege)
	wantScholarships := fetcher.WantsScholarships(message)
	s.logger.Debug("chat request",
		zap.Strings("candidates", candidates),
		zap.Bool("scholarships", wantScholarships))

	fetched := s.fetcher.Fetch(ctx, candidates, wantScholarships)
	instruction := s.composer.Compose(&prompt.Input{
		Fetched:          fetched,
		Page:             req.Context,
		WantScholarships: wantScholarships,
	})

	history := make([]llm.Turn, 0, len(req.Messages)+1)
	history = append(history,
		llm.Turn{Role: llm.RoleUser, Text: instruction},
		llm.Turn{Role: llm.RoleModel, Text: modelAck},
	)
	for _, m := range req.Messages[:len(req.Messages)-1] {
		role := llm.RoleUser
		if m.Role == models.RoleAssistant {
			role = llm.RoleModel
		}
		history = append(history, llm.Turn{Role: role, Text: m.Content})
	}

	contentChan, errChan := s.model.StreamChat(ctx, history, message)

	flusher, ok := w.(http.Flusher)
	if !ok {
		s.respondError(w, http.StatusInternalServerError, "streaming not supported")
		return
	}

	started := false
	for {
		select {
		case fragment, open := <-contentChan:
			if !open {
				// The producer closes the fragment channel after sending any
				// terminal error; drain it before declaring success.
				select {
				case err := <-errChan:
					if err != nil {
						s.streamFailure(w, flusher, started, err)
						return
					}
				default:
				}
				if !started {
					writeSSEHeaders(w)
				}
				writeSSEEvent(w, flusher, map[string]interface{}{"done": true})
				return
			}
			fragment = utils.StripEmphasis(fragment)
			if fragment == "" {
				continue
			}
			if !started {
				writeSSEHeaders(w)
				started = true
			}
			writeSSEEvent(w, flusher, map[string]interface{}{"content": fragment})

		case err := <-errChan:
			if err != nil {
				s.streamFailure(w, flusher, started, err)
				return
			}

		case <-ctx.Done():
			s.logger.Debug("chat client disconnected")
			return
		}
	}
}

// streamFailure reports a stream error the only way still possible: a JSON
// status before any fragment went out, an in-band error event after.
func (s *Server) streamFailure(w http.ResponseWriter, flusher http.Flusher, started bool, err error) {
	s.logger.Error("chat stream failed", zap.Error(err))
	if started {
		writeSSEEvent(w, flusher, map[string]interface{}{"error": err.Error()})
		return
	}
	if llm.IsRateLimited(err) {
		s.respondError(w, http.StatusTooManyRequests, "Model quota exceeded, please retry shortly")
		return
	}
	s.respondError(w, http.StatusInternalServerError, err.Error())
}

func writeSSEHeaders(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
}

func writeSSEEvent(w http.ResponseWriter, flusher http.Flusher, payload map[string]interface{}) {
	data, err := json.Marshal(payload)
	if err != nil {
		return
	}
	fmt.Fprintf(w, "data: %s\n\n", data)
	flusher.Flush()
}
