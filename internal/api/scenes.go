package api

import (
	"context"
	"fmt"
	"net/http"
	"path/filepath"

	"github.com/go-chi/chi/v5"
)

// AssignTrackRequest maps a signal to a track in trigger mode.
type AssignTrackRequest struct {
	Controller string `json:"controller"`
	Signal     string `json:"signal"`
	Client     string `json:"client"`
	Track      string `json:"track"`
}

// AssignSceneRequest maps a signal to a scene in scene mode.
type AssignSceneRequest struct {
	Controller string `json:"controller"`
	Signal     string `json:"signal"`
	Scene      string `json:"scene"`
}

// AssignModeSwitchRequest marks a signal as a mode switch.
type AssignModeSwitchRequest struct {
	Controller string `json:"controller"`
	Signal     string `json:"signal"`
}

// SceneTrackRequest adds a track to a scene.
type SceneTrackRequest struct {
	Client string `json:"client"`
	Track  string `json:"track"`
}

// CreateSceneRequest names a scene recorded from the playing tracks.
type CreateSceneRequest struct {
	Name string `json:"name"`
}

// RoutingFileRequest names a routing file relative to the routing directory.
// An empty path means the current routing file.
type RoutingFileRequest struct {
	Path string `json:"path"`
}

func (s *Server) handleGetTriggerMap(w http.ResponseWriter, r *http.Request) {
	m, err := s.plexer.TriggerMap(r.Context())
	if err != nil {
		writePlexerError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"controller_signal_trigger_map": m})
}

func (s *Server) handleAssignTrack(w http.ResponseWriter, r *http.Request) {
	var req AssignTrackRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if err := s.plexer.AssignTrack(r.Context(), req.Controller, req.Signal, req.Client, req.Track); err != nil {
		writePlexerError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, req)
}

func (s *Server) handleGetSceneMap(w http.ResponseWriter, r *http.Request) {
	m, err := s.plexer.SceneMap(r.Context())
	if err != nil {
		writePlexerError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"controller_signal_scene_map": m})
}

func (s *Server) handleAssignScene(w http.ResponseWriter, r *http.Request) {
	var req AssignSceneRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if err := s.plexer.AssignScene(r.Context(), req.Controller, req.Signal, req.Scene); err != nil {
		writePlexerError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, req)
}

func (s *Server) handleGetModeSwitch(w http.ResponseWriter, r *http.Request) {
	m, err := s.plexer.ModeSwitch(r.Context())
	if err != nil {
		writePlexerError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"mode_switch": m})
}

func (s *Server) handleAssignModeSwitch(w http.ResponseWriter, r *http.Request) {
	var req AssignModeSwitchRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if err := s.plexer.AssignModeSwitch(r.Context(), req.Controller, req.Signal); err != nil {
		writePlexerError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, req)
}

func (s *Server) handleListScenes(w http.ResponseWriter, r *http.Request) {
	scenes, err := s.plexer.Scenes(r.Context())
	if err != nil {
		writePlexerError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"scenes": scenes, "count": len(scenes)})
}

func (s *Server) handleGetScene(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	scenes, err := s.plexer.Scenes(r.Context())
	if err != nil {
		writePlexerError(w, err)
		return
	}
	members, ok := scenes[name]
	if !ok {
		writeNotFound(w, "scene not found")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"name": name, "tracks": members})
}

// handleCreateSceneFromCurrent records every playing track as a scene.
func (s *Server) handleCreateSceneFromCurrent(w http.ResponseWriter, r *http.Request) {
	var req CreateSceneRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if !validName(req.Name) {
		writeBadRequest(w, "name is required")
		return
	}
	members, err := s.plexer.CreateSceneFromCurrent(r.Context(), req.Name)
	if err != nil {
		writePlexerError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"name": req.Name, "tracks": members})
}

func (s *Server) handleAddTrackToScene(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	var req SceneTrackRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if err := s.plexer.AddTrackToScene(r.Context(), name, req.Client, req.Track); err != nil {
		writePlexerError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"scene": name, "client": req.Client, "track": req.Track})
}

func (s *Server) handleActivateScene(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	if err := s.plexer.ActivateScene(r.Context(), name); err != nil {
		writePlexerError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"scene": name, "activated": true})
}

func (s *Server) handleSave(w http.ResponseWriter, r *http.Request) {
	s.routingFile(w, r, s.plexer.Save)
}

func (s *Server) handleLoad(w http.ResponseWriter, r *http.Request) {
	s.routingFile(w, r, s.plexer.Load)
}

func (s *Server) routingFile(w http.ResponseWriter, r *http.Request, op func(ctx context.Context, path string) (string, error)) {
	var req RoutingFileRequest
	if r.ContentLength != 0 && !decodeBody(w, r, &req) {
		return
	}
	path, err := s.resolveRoutingPath(req.Path)
	if err != nil {
		writeBadRequest(w, err.Error())
		return
	}
	written, err := op(r.Context(), path)
	if err != nil {
		writePlexerError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"path": written})
}

// resolveRoutingPath confines a caller-supplied file name to RoutingDir.
func (s *Server) resolveRoutingPath(p string) (string, error) {
	if p == "" {
		return "", nil
	}
	if s.routingDir == "" {
		return "", fmt.Errorf("only the current routing file can be used")
	}
	if !filepath.IsLocal(p) {
		return "", fmt.Errorf("path must be relative to the routing directory")
	}
	return filepath.Join(s.routingDir, p), nil
}
