package server

import (
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/upliftlab/affirmd/internal/engine"
	"github.com/upliftlab/affirmd/internal/kvstore"
	"github.com/upliftlab/affirmd/types"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

// storeError maps store conflicts to their HTTP status. Operator mistakes
// surface directly to the editing UI; they are never swallowed.
func (s *Server) storeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, kvstore.ErrNotFound):
		writeError(w, http.StatusNotFound, "entry not found")
	case errors.Is(err, kvstore.ErrDuplicateKey):
		writeError(w, http.StatusConflict, "key already exists")
	case errors.Is(err, kvstore.ErrNoSourceEntries):
		writeError(w, http.StatusUnprocessableEntity, "source implementation has no entries")
	default:
		s.logger.Error("store operation failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

func (s *Server) handleGenerate(w http.ResponseWriter, r *http.Request) {
	var req types.GenerateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	// Theme presence is checked before anything else so the model is never
	// invoked for an empty request.
	if len(req.Themes) == 0 {
		writeError(w, http.StatusBadRequest, "At least one theme is required")
		return
	}
	if err := s.validate.Struct(req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request: "+err.Error())
		return
	}

	result, err := s.generator.Generate(r.Context(), req)
	if err != nil {
		switch {
		case errors.Is(err, engine.ErrNoThemes):
			writeError(w, http.StatusBadRequest, "At least one theme is required")
		case errors.Is(err, engine.ErrUnknownVersion):
			writeError(w, http.StatusBadRequest, "unknown version")
		default:
			s.logger.Error("generation failed", zap.Error(err))
			writeError(w, http.StatusInternalServerError, "generation failed")
		}
		return
	}

	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleVersions(w http.ResponseWriter, r *http.Request) {
	keys, err := s.store.AllKeys(r.Context())
	if err != nil {
		s.storeError(w, err)
		return
	}
	versions := kvstore.Versions(keys)
	if versions == nil {
		versions = []string{}
	}
	writeJSON(w, http.StatusOK, map[string][]string{"versions": versions})
}

func (s *Server) handleImplementations(w http.ResponseWriter, r *http.Request) {
	version := r.URL.Query().Get("version")
	if version == "" {
		writeError(w, http.StatusBadRequest, "version query parameter is required")
		return
	}

	keys, err := s.store.AllKeys(r.Context())
	if err != nil {
		s.storeError(w, err)
		return
	}
	impls := kvstore.Implementations(keys, version)
	if impls == nil {
		impls = []string{}
	}
	writeJSON(w, http.StatusOK, map[string][]string{"implementations": impls})
}

func (s *Server) handleListKeys(w http.ResponseWriter, r *http.Request) {
	keys, err := s.store.AllKeys(r.Context())
	if err != nil {
		s.storeError(w, err)
		return
	}
	if keys == nil {
		keys = []string{}
	}
	writeJSON(w, http.StatusOK, map[string][]string{"keys": keys})
}

func (s *Server) handleListEntries(w http.ResponseWriter, r *http.Request) {
	version := r.URL.Query().Get("version")
	implementation := r.URL.Query().Get("implementation")
	if version == "" || implementation == "" {
		writeError(w, http.StatusBadRequest, "version and implementation query parameters are required")
		return
	}

	entries, err := s.store.EntriesFor(r.Context(), version, implementation)
	if err != nil {
		s.storeError(w, err)
		return
	}
	if entries == nil {
		entries = []kvstore.Entry{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"entries": entries})
}

type createEntryRequest struct {
	Key   string          `json:"key" validate:"required,min=1"`
	Value json.RawMessage `json:"value" validate:"required"`
}

func (s *Server) handleCreateEntry(w http.ResponseWriter, r *http.Request) {
	var req createEntryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if err := s.validate.Struct(req); err != nil {
		writeError(w, http.StatusBadRequest, "key and value are required")
		return
	}

	entry, err := s.store.CreateEntry(r.Context(), req.Key, req.Value)
	if err != nil {
		s.storeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, entry)
}

type updateEntryRequest struct {
	Key   string          `json:"key,omitempty"`
	Value json.RawMessage `json:"value,omitempty"`
}

// handleUpdateEntry updates value and/or renames the key on the same row.
// Rename is an in-place key update, so the entry keeps its id and created_at
// and is never briefly absent.
func (s *Server) handleUpdateEntry(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	var req updateEntryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if req.Key == "" && req.Value == nil {
		writeError(w, http.StatusBadRequest, "key or value is required")
		return
	}

	if req.Key != "" {
		if err := s.store.RenameKey(r.Context(), id, req.Key); err != nil {
			s.storeError(w, err)
			return
		}
	}
	if req.Value != nil {
		if err := s.store.UpdateValue(r.Context(), id, req.Value); err != nil {
			s.storeError(w, err)
			return
		}
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "updated"})
}

func (s *Server) handleDeleteEntry(w http.ResponseWriter, r *http.Request) {
	if err := s.store.DeleteEntry(r.Context(), r.PathValue("id")); err != nil {
		s.storeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

type createImplementationRequest struct {
	Version string `json:"version" validate:"required,min=1"`
	Source  string `json:"source" validate:"required,min=1"`
	Name    string `json:"name" validate:"required,min=1"`
}

func (s *Server) handleCreateImplementation(w http.ResponseWriter, r *http.Request) {
	var req createImplementationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if err := s.validate.Struct(req); err != nil {
		writeError(w, http.StatusBadRequest, "version, source, and name are required")
		return
	}

	copied, err := s.store.CreateImplementation(r.Context(), req.Version, req.Source, req.Name)
	if err != nil {
		s.storeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"copied": copied})
}
