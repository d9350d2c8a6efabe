package control

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"plotterctl/model"
)

func TestListCommandsSendsNormalizedQuery(t *testing.T) {
	var got model.PageQuery
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/control" {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		if ct := r.Header.Get("Content-Type"); ct != "application/json" {
			t.Errorf("content type = %q", ct)
		}
		json.NewDecoder(r.Body).Decode(&got)
		w.Write([]byte(`{"page":0,"pages":3,"commands":[{"id":10,"target":4,"position":2,"key_name":"roof","key_id":1,"status":0,"datetime":"2026-03-01 22:15:00"}]}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL+"/", time.Second)
	res, err := c.ListCommands(context.Background(), model.PageQuery{Page: -3, FilterType: -1})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if got.Page != 0 || got.FilterType != 0 {
		t.Errorf("sent %+v, want page 0 filter 0", got)
	}
	if res.Pages != 3 || len(res.Commands) != 1 {
		t.Fatalf("unexpected result %+v", res)
	}
	cmd := res.Commands[0]
	if cmd.ID != 10 || cmd.KeyName != "roof" || cmd.Status != model.StatusPending {
		t.Errorf("unexpected command %+v", cmd)
	}
}

func TestListCommandsBadJSON(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`not json`))
	}))
	defer srv.Close()

	_, err := NewClient(srv.URL, time.Second).ListCommands(context.Background(), model.PageQuery{})
	if err == nil {
		t.Fatal("expected decode error")
	}
}

func TestCancelCommand(t *testing.T) {
	var method, id string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		method = r.Method
		id = r.URL.Query().Get("id")
		w.Write([]byte("Success\n"))
	}))
	defer srv.Close()

	if err := NewClient(srv.URL, time.Second).CancelCommand(context.Background(), 7); err != nil {
		t.Fatalf("cancel: %v", err)
	}
	if method != http.MethodDelete || id != "7" {
		t.Errorf("got %s id=%s", method, id)
	}
}

func TestCancelCommandStatusError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "command is not pending", http.StatusConflict)
	}))
	defer srv.Close()

	err := NewClient(srv.URL, time.Second).CancelCommand(context.Background(), 7)
	var se *StatusError
	if !errors.As(err, &se) {
		t.Fatalf("expected StatusError, got %v", err)
	}
	if se.Code != http.StatusConflict || se.Body != "command is not pending" {
		t.Errorf("unexpected status error %+v", se)
	}
}

func TestQueueCommand(t *testing.T) {
	var got map[string]int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/control/command" {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		json.NewDecoder(r.Body).Decode(&got)
		w.WriteHeader(http.StatusCreated)
	}))
	defer srv.Close()

	err := NewClient(srv.URL, time.Second).QueueCommand(context.Background(), model.QueueRequest{Target: 5, Position: 1, KeyID: 2})
	if err != nil {
		t.Fatalf("queue: %v", err)
	}
	if got["target"] != 5 || got["position"] != 1 || got["associated_key_id"] != 2 {
		t.Errorf("unexpected body %v", got)
	}
}
