package docstore

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/Makepad-fr/tada/internal/docstore/api"
	"github.com/Makepad-fr/tada/internal/model"
	"github.com/Makepad-fr/tada/internal/remote"
)

// collection resolves the signed-in user's collection.
func (s *Server) collection(r *http.Request) (remote.Collection, string) {
	c, _ := claimsFrom(r.Context())
	return s.backend.Collection(c.Subject), c.Subject
}

// listTodos GET /v1/todos
func (s *Server) listTodos(w http.ResponseWriter, r *http.Request) {
	coll, _ := s.collection(r)
	items, err := coll.ReadAll(r.Context())
	if err != nil {
		s.log.Error().Err(err).Msg("list todos")
		writeError(w, http.StatusInternalServerError, "read failed")
		return
	}
	if items == nil {
		items = []model.Item{}
	}
	writeJSON(w, http.StatusOK, items)
}

// getTodo GET /v1/todos/{id}
func (s *Server) getTodo(w http.ResponseWriter, r *http.Request) {
	coll, _ := s.collection(r)
	id := mux.Vars(r)["id"]
	items, err := coll.ReadAll(r.Context())
	if err != nil {
		s.log.Error().Err(err).Msg("get todo")
		writeError(w, http.StatusInternalServerError, "read failed")
		return
	}
	for _, it := range items {
		if it.ID == id {
			writeJSON(w, http.StatusOK, it)
			return
		}
	}
	writeError(w, http.StatusNotFound, "todo not found")
}

// putTodo PUT /v1/todos/{id}
func (s *Server) putTodo(w http.ResponseWriter, r *http.Request) {
	coll, uid := s.collection(r)
	id := mux.Vars(r)["id"]
	var it model.Item
	if err := json.NewDecoder(r.Body).Decode(&it); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	if it.ID == "" {
		it.ID = id
	}
	if it.ID != id {
		writeError(w, http.StatusBadRequest, "id in body does not match path")
		return
	}
	if err := it.Valid(); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := coll.WriteOne(r.Context(), it); err != nil {
		s.log.Error().Err(err).Str("user", uid).Str("id", id).Msg("write todo")
		writeError(w, http.StatusInternalServerError, "write failed")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// patchTodo PATCH /v1/todos/{id}
func (s *Server) patchTodo(w http.ResponseWriter, r *http.Request) {
	coll, uid := s.collection(r)
	id := mux.Vars(r)["id"]
	var p remote.Patch
	if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := coll.UpdateFields(r.Context(), id, p); err != nil {
		if errors.Is(err, remote.ErrNotFound) {
			writeError(w, http.StatusNotFound, "todo not found")
			return
		}
		s.log.Error().Err(err).Str("user", uid).Str("id", id).Msg("update todo")
		writeError(w, http.StatusInternalServerError, "update failed")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// deleteTodo DELETE /v1/todos/{id}
func (s *Server) deleteTodo(w http.ResponseWriter, r *http.Request) {
	coll, uid := s.collection(r)
	id := mux.Vars(r)["id"]
	if err := coll.DeleteOne(r.Context(), id); err != nil {
		s.log.Error().Err(err).Str("user", uid).Str("id", id).Msg("delete todo")
		writeError(w, http.StatusInternalServerError, "delete failed")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// batch POST /v1/batch
func (s *Server) batch(w http.ResponseWriter, r *http.Request) {
	coll, uid := s.collection(r)
	var req api.BatchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	for _, it := range req.Items {
		if err := it.Valid(); err != nil {
			writeError(w, http.StatusBadRequest, it.ID+": "+err.Error())
			return
		}
	}
	if err := remote.WriteBatch(r.Context(), coll, req.Items, model.NewCategories(req.Categories)); err != nil {
		s.log.Error().Err(err).Str("user", uid).Int("items", len(req.Items)).Msg("batch")
		writeError(w, http.StatusInternalServerError, "batch failed")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// getCategories GET /v1/categories
func (s *Server) getCategories(w http.ResponseWriter, r *http.Request) {
	coll, _ := s.collection(r)
	labels, err := coll.ReadCategories(r.Context())
	if err != nil {
		s.log.Error().Err(err).Msg("read categories")
		writeError(w, http.StatusInternalServerError, "read failed")
		return
	}
	if labels == nil {
		labels = []string{}
	}
	writeJSON(w, http.StatusOK, api.CategoriesDoc{List: labels})
}

// putCategories PUT /v1/categories
func (s *Server) putCategories(w http.ResponseWriter, r *http.Request) {
	coll, uid := s.collection(r)
	var doc api.CategoriesDoc
	if err := json.NewDecoder(r.Body).Decode(&doc); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	if err := coll.WriteCategories(r.Context(), model.NewCategories(doc.List)); err != nil {
		s.log.Error().Err(err).Str("user", uid).Msg("write categories")
		writeError(w, http.StatusInternalServerError, "write failed")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
