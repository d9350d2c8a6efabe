package server

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"

	"plotterctl/db"
	"plotterctl/model"
)

func (s *Server) listKeys(w http.ResponseWriter, r *http.Request) {
	keys, err := s.store.ListKeys()
	if err != nil {
		log.Printf("list keys: %v", err)
		writeError(w, http.StatusInternalServerError, codeInternal, "failed to list keys")
		return
	}
	writeJSON(w, http.StatusOK, keys)
}

func (s *Server) createKey(w http.ResponseWriter, r *http.Request) {
	var req model.NewKeyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, codeInvalidRequest, "invalid JSON body")
		return
	}
	if err := s.validate.Struct(req); err != nil {
		writeError(w, http.StatusBadRequest, codeValidation, err.Error())
		return
	}

	key, err := s.store.CreateKey(req.Name)
	if err != nil {
		log.Printf("create key %q: %v", req.Name, err)
		writeError(w, http.StatusConflict, codeConflict, "key could not be created")
		return
	}
	log.Printf("created key %d (%s)", key.ID, key.Name)
	writeJSON(w, http.StatusCreated, key)
}

func (s *Server) deleteKey(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.URL.Query().Get("id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, codeInvalidRequest, "id must be an integer")
		return
	}

	switch err := s.store.DeleteKey(id); {
	case errors.Is(err, db.ErrNotFound):
		writeError(w, http.StatusNotFound, codeNotFound, "key not found")
	case errors.Is(err, db.ErrKeyInUse):
		writeError(w, http.StatusConflict, codeConflict, "key still has commands")
	case err != nil:
		log.Printf("delete key %d: %v", id, err)
		writeError(w, http.StatusInternalServerError, codeInternal, "failed to delete key")
	default:
		log.Printf("deleted key %d", id)
		w.WriteHeader(http.StatusNoContent)
	}
}
