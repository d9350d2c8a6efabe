// Package server implements the control endpoints the console talks to,
// backed by the sqlite store.
package server

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"

	"plotterctl/db"
	"plotterctl/model"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-playground/validator/v10"
)

// DefaultPageSize is the number of commands per page when none is configured.
const DefaultPageSize = 10

// Store is the subset of the database the handlers need.
type Store interface {
	Count(statuses []model.Status) (int, error)
	List(statuses []model.Status, limit, offset int) ([]model.Command, error)
	Add(target, position, keyID int64) (int64, error)
	Cancel(id int64) error
	UpdateStatus(id int64, status model.Status) error
	NextPending(token string) (model.Command, error)
	StatusForToken(token string, id int64) (model.Status, error)

	KeyExists(id int64) (bool, error)
	ListKeys() ([]model.Key, error)
	CreateKey(name string) (model.Key, error)
	DeleteKey(id int64) error
}

type Server struct {
	store    Store
	pageSize int
	validate *validator.Validate
}

func New(store Store, pageSize int) *Server {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	return &Server{
		store:    store,
		pageSize: pageSize,
		validate: validator.New(),
	}
}

// Router returns the HTTP handler serving the control API.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	r.Route("/control", func(r chi.Router) {
		r.Post("/", s.listCommands)
		r.Post("/command", s.queueCommand)
		r.Delete("/command", s.cancelCommand)

		r.Get("/keys", s.listKeys)
		r.Post("/keys", s.createKey)
		r.Delete("/keys", s.deleteKey)
	})

	// Device-facing endpoints, authenticated by key token.
	r.Route("/api", func(r chi.Router) {
		r.Get("/command", s.fetchCommand)
		r.Post("/command", s.respondCommand)
	})
	return r
}

func (s *Server) listCommands(w http.ResponseWriter, r *http.Request) {
	var q model.PageQuery
	if err := json.NewDecoder(r.Body).Decode(&q); err != nil {
		writeError(w, http.StatusBadRequest, codeInvalidRequest, "invalid JSON body")
		return
	}
	q = q.Normalize()

	statuses, ok := model.FilterStatuses(q.FilterType)
	if !ok {
		writeError(w, http.StatusBadRequest, codeInvalidRequest, "unknown filter_type "+strconv.Itoa(q.FilterType))
		return
	}

	total, err := s.store.Count(statuses)
	if err != nil {
		log.Printf("count commands: %v", err)
		writeError(w, http.StatusInternalServerError, codeInternal, "failed to count commands")
		return
	}

	pages := max(1, (total+s.pageSize-1)/s.pageSize)
	page := min(q.Page, pages-1)

	commands, err := s.store.List(statuses, s.pageSize, page*s.pageSize)
	if err != nil {
		log.Printf("list commands: %v", err)
		writeError(w, http.StatusInternalServerError, codeInternal, "failed to list commands")
		return
	}

	writeJSON(w, http.StatusOK, model.PageResult{Page: page, Pages: pages, Commands: commands})
}

func (s *Server) queueCommand(w http.ResponseWriter, r *http.Request) {
	var req model.QueueRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, codeInvalidRequest, "invalid JSON body")
		return
	}
	if err := s.validate.Struct(req); err != nil {
		writeError(w, http.StatusBadRequest, codeValidation, err.Error())
		return
	}

	ok, err := s.store.KeyExists(req.KeyID)
	if err != nil {
		log.Printf("lookup key %d: %v", req.KeyID, err)
		writeError(w, http.StatusInternalServerError, codeInternal, "failed to look up key")
		return
	}
	if !ok {
		writeError(w, http.StatusBadRequest, codeInvalidRequest, "unknown associated_key_id")
		return
	}

	id, err := s.store.Add(req.Target, req.Position, req.KeyID)
	if err != nil {
		log.Printf("queue command: %v", err)
		writeError(w, http.StatusInternalServerError, codeInternal, "failed to queue command")
		return
	}
	log.Printf("queued command %d: target %d at %s", id, req.Target, model.Position(req.Position))
	writeJSON(w, http.StatusCreated, map[string]int64{"id": id})
}

func (s *Server) cancelCommand(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.URL.Query().Get("id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, codeInvalidRequest, "id must be an integer")
		return
	}

	switch err := s.store.Cancel(id); {
	case errors.Is(err, db.ErrNotFound):
		writeError(w, http.StatusNotFound, codeNotFound, "command not found")
	case errors.Is(err, db.ErrNotPending):
		writeError(w, http.StatusConflict, codeConflict, "command is not pending")
	case err != nil:
		log.Printf("cancel command %d: %v", id, err)
		writeError(w, http.StatusInternalServerError, codeInternal, "failed to cancel command")
	default:
		log.Printf("cancelled command %d", id)
		w.WriteHeader(http.StatusNoContent)
	}
}
