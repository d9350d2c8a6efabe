package server

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"plotterctl/db"
	"plotterctl/model"
)

// fetchCommand hands the oldest pending command of the calling device over
// and marks it fetched. An empty queue answers with an empty object.
func (s *Server) fetchCommand(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get("token")
	if token == "" {
		writeError(w, http.StatusBadRequest, codeInvalidRequest, "token is required")
		return
	}

	cmd, err := s.store.NextPending(token)
	if errors.Is(err, db.ErrNotFound) {
		writeJSON(w, http.StatusOK, struct{}{})
		return
	}
	if err != nil {
		log.Printf("fetch command: %v", err)
		writeError(w, http.StatusInternalServerError, codeInternal, "failed to fetch command")
		return
	}

	if !model.Position(cmd.Position).Valid() {
		log.Printf("command %d has invalid position %d", cmd.ID, cmd.Position)
		if err := s.store.UpdateStatus(cmd.ID, model.StatusInternal); err != nil {
			log.Printf("mark command %d failed: %v", cmd.ID, err)
		}
		writeError(w, http.StatusInternalServerError, codeInternal, "command has an invalid position")
		return
	}

	if err := s.store.UpdateStatus(cmd.ID, model.StatusFetched); err != nil {
		log.Printf("mark command %d fetched: %v", cmd.ID, err)
		writeError(w, http.StatusInternalServerError, codeInternal, "failed to fetch command")
		return
	}
	writeJSON(w, http.StatusOK, model.DeviceCommand{ID: cmd.ID, Target: cmd.Target, Position: cmd.Position})
}

// respondCommand records the outcome a device reports. A fetched command
// moves to uploaded or failed; an uploaded one only accepts a failure, which
// marks the upload failed.
func (s *Server) respondCommand(w http.ResponseWriter, r *http.Request) {
	var resp model.DeviceResponse
	if err := json.NewDecoder(r.Body).Decode(&resp); err != nil {
		writeError(w, http.StatusBadRequest, codeInvalidRequest, "invalid JSON body")
		return
	}
	if err := s.validate.Struct(resp); err != nil {
		writeError(w, http.StatusBadRequest, codeValidation, err.Error())
		return
	}

	status, err := s.store.StatusForToken(resp.Token, resp.ID)
	if errors.Is(err, db.ErrNotFound) {
		writeError(w, http.StatusBadRequest, codeInvalidRequest, "command not found")
		return
	}
	if err != nil {
		log.Printf("look up command %d: %v", resp.ID, err)
		writeError(w, http.StatusInternalServerError, codeInternal, "failed to look up command")
		return
	}

	next, ok := nextStatus(status, resp.Response)
	if !ok {
		writeError(w, http.StatusBadRequest, codeInvalidRequest, "not expecting a response for this command")
		return
	}
	if next != status {
		if err := s.store.UpdateStatus(resp.ID, next); err != nil {
			log.Printf("update command %d: %v", resp.ID, err)
			writeError(w, http.StatusInternalServerError, codeInternal, "failed to update command")
			return
		}
		log.Printf("command %d: %s -> %s", resp.ID, status, next)
	}
	writeJSON(w, http.StatusOK, struct{}{})
}

func nextStatus(current model.Status, success bool) (model.Status, bool) {
	switch current {
	case model.StatusFetched:
		if success {
			return model.StatusUploaded, true
		}
		return model.StatusFailed, true
	case model.StatusUploaded:
		if success {
			return current, true
		}
		return model.StatusUploadFailed, true
	}
	return current, false
}
