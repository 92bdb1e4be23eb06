package api

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/nerrad567/midiplexer/internal/controller"
	"github.com/nerrad567/midiplexer/internal/midi"
	"github.com/nerrad567/midiplexer/internal/plexer"
	"github.com/nerrad567/midiplexer/internal/track"
)

// maxNameLen limits device, track, signal and scene names.
const maxNameLen = 100

// AddDeviceRequest is the body for adding a controller or client.
type AddDeviceRequest struct {
	Name         string `json:"name"`
	Type         string `json:"type"`
	ToggleRecord bool   `json:"toggle_record,omitempty"`
}

// RegisterRequest is the body for learning a signal.
type RegisterRequest struct {
	Label string `json:"label"`
	// Wait holds the response until the signal is learned.
	Wait bool `json:"wait"`
}

// LearnedResponse reports a learned signal.
type LearnedResponse struct {
	Status     string `json:"status"`
	Controller string `json:"controller"`
	Label      string `json:"label,omitempty"`
	Signature  string `json:"signature,omitempty"`
}

// AddTrackRequest is the body for adding a track to a client.
type AddTrackRequest struct {
	Label   string      `json:"label"`
	Type    midi.Kind   `json:"type"`
	Data    midi.Fields `json:"data"`
	OnData  midi.Fields `json:"on_data,omitempty"`
	OffData midi.Fields `json:"off_data,omitempty"`
}

func validName(name string) bool {
	return name != "" && len(name) <= maxNameLen
}

// decodeBody decodes a JSON request body and writes a 400 on failure.
func decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return false
	}
	return true
}

func (s *Server) handleListControllers(w http.ResponseWriter, r *http.Request) {
	controllers, err := s.plexer.Controllers(r.Context())
	if err != nil {
		writePlexerError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"controllers": controllers, "count": len(controllers)})
}

func (s *Server) handleAddController(w http.ResponseWriter, r *http.Request) {
	var req AddDeviceRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if !validName(req.Name) || req.Type == "" {
		writeBadRequest(w, "name and type are required")
		return
	}
	if err := s.plexer.AddController(r.Context(), req.Name, req.Type); err != nil {
		writePlexerError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, req)
}

func (s *Server) findController(w http.ResponseWriter, r *http.Request) (plexer.ControllerInfo, bool) {
	name := chi.URLParam(r, "name")
	controllers, err := s.plexer.Controllers(r.Context())
	if err != nil {
		writePlexerError(w, err)
		return plexer.ControllerInfo{}, false
	}
	for _, c := range controllers {
		if c.Name == name {
			return c, true
		}
	}
	writeNotFound(w, "controller not found")
	return plexer.ControllerInfo{}, false
}

// handleListSignals returns a controller's signal map and its labels.
func (s *Server) handleListSignals(w http.ResponseWriter, r *http.Request) {
	info, ok := s.findController(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"controller": info.Name,
		"signal_map": info.SignalMap,
		"labels":     info.SignalMap.Labels(),
	})
}

func (s *Server) handleRegisterSignal(w http.ResponseWriter, r *http.Request) {
	s.register(w, r, s.plexer.RegisterSignal)
}

func (s *Server) handleRegisterModeSwitch(w http.ResponseWriter, r *http.Request) {
	s.register(w, r, s.plexer.RegisterModeSwitch)
}

type registerFunc func(ctx context.Context, controllerName, label string) (<-chan controller.Learned, error)

// register starts learning on a controller. Without wait it answers 202 at
// once; with wait it holds the response until the message arrives or
// registerWait passes. Either way the result is broadcast on the
// signal_learned channel.
func (s *Server) register(w http.ResponseWriter, r *http.Request, start registerFunc) {
	name := chi.URLParam(r, "name")
	var req RegisterRequest
	if r.ContentLength != 0 && !decodeBody(w, r, &req) {
		return
	}
	if len(req.Label) > maxNameLen {
		writeBadRequest(w, "label exceeds maximum length")
		return
	}

	learned, err := start(r.Context(), name, req.Label)
	if err != nil {
		writePlexerError(w, err)
		return
	}

	result := make(chan controller.Learned, 1)
	go s.relayLearned(name, learned, result)

	pending := LearnedResponse{Status: "listening", Controller: name, Label: req.Label}
	if !req.Wait {
		writeJSON(w, http.StatusAccepted, pending)
		return
	}

	timer := time.NewTimer(s.registerWait)
	defer timer.Stop()
	select {
	case l := <-result:
		if l.Err != nil {
			writePlexerError(w, l.Err)
			return
		}
		writeJSON(w, http.StatusOK, LearnedResponse{
			Status: "learned", Controller: name, Label: l.Label, Signature: l.Signature,
		})
	case <-timer.C:
		writeJSON(w, http.StatusAccepted, pending)
	case <-r.Context().Done():
	}
}

// relayLearned waits for a registration outcome, broadcasts it and hands
// it to a waiting request if there is one.
func (s *Server) relayLearned(name string, learned <-chan controller.Learned, result chan<- controller.Learned) {
	select {
	case l, ok := <-learned:
		if !ok {
			return
		}
		if l.Err != nil {
			s.logger.Warn("signal registration failed", "controller", name, "error", l.Err)
		} else {
			s.hub.Broadcast(ChannelSignalLearned, LearnedResponse{
				Status: "learned", Controller: name, Label: l.Label, Signature: l.Signature,
			})
		}
		result <- l
	case <-s.ctx.Done():
	}
}

func (s *Server) handleListClients(w http.ResponseWriter, r *http.Request) {
	clients, err := s.plexer.Clients(r.Context())
	if err != nil {
		writePlexerError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"clients": clients, "count": len(clients)})
}

func (s *Server) handleAddClient(w http.ResponseWriter, r *http.Request) {
	var req AddDeviceRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if !validName(req.Name) || req.Type == "" {
		writeBadRequest(w, "name and type are required")
		return
	}
	if err := s.plexer.AddClient(r.Context(), req.Name, req.Type, req.ToggleRecord); err != nil {
		writePlexerError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, req)
}

func (s *Server) handleListTracks(w http.ResponseWriter, r *http.Request) {
	tracks, err := s.plexer.ClientListTracks(r.Context(), chi.URLParam(r, "name"))
	if err != nil {
		writePlexerError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"tracks": tracks, "count": len(tracks)})
}

func (s *Server) handleAddTrack(w http.ResponseWriter, r *http.Request) {
	var req AddTrackRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if !validName(req.Label) {
		writeBadRequest(w, "label is required")
		return
	}
	cfg := track.Config{Type: req.Type, Data: req.Data, OnData: req.OnData, OffData: req.OffData}
	if cfg.Data == nil {
		cfg.Data = midi.Fields{}
	}
	if err := s.plexer.ClientAddTrack(r.Context(), chi.URLParam(r, "name"), req.Label, cfg); err != nil {
		writePlexerError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, req)
}

func (s *Server) handleToggleRecord(w http.ResponseWriter, r *http.Request) {
	name, label := chi.URLParam(r, "name"), chi.URLParam(r, "label")
	if err := s.plexer.ToggleRecord(r.Context(), name, label); err != nil {
		writePlexerError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"client": name, "track": label, "armed": true})
}
