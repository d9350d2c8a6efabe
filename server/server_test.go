package server

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"plotterctl/control"
	"plotterctl/db"
	"plotterctl/model"
)

func TestMain(m *testing.M) {
	log.SetOutput(io.Discard)
	os.Exit(m.Run())
}

type fixture struct {
	db     *db.DB
	key    int64
	token  string
	srv    *httptest.Server
	client *control.Client
}

func newFixture(t *testing.T, pageSize int) *fixture {
	t.Helper()
	store, err := db.New(filepath.Join(t.TempDir(), "control.db"))
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	key, err := store.EnsureKey("rooftop")
	if err != nil {
		t.Fatalf("ensure key: %v", err)
	}

	srv := httptest.NewServer(New(store, pageSize).Router())
	t.Cleanup(srv.Close)

	return &fixture{
		db:     store,
		key:    key.ID,
		token:  key.APIToken,
		srv:    srv,
		client: control.NewClient(srv.URL, 5*time.Second),
	}
}

func (f *fixture) seed(t *testing.T, n int) []int64 {
	t.Helper()
	ids := make([]int64, n)
	for i := range ids {
		id, err := f.db.Add(int64(i), 2, f.key)
		if err != nil {
			t.Fatalf("seed: %v", err)
		}
		ids[i] = id
	}
	return ids
}

func TestListCommandsPaging(t *testing.T) {
	f := newFixture(t, 2)
	f.seed(t, 5)
	ctx := context.Background()

	tests := []struct {
		name      string
		page      int
		wantPage  int
		wantCount int
		wantFirst int64
	}{
		{"first", 0, 0, 2, 5},
		{"middle", 1, 1, 2, 3},
		{"last partial", 2, 2, 1, 1},
		{"past the end", 9, 2, 1, 1},
		{"negative", -1, 0, 2, 5},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := f.client.ListCommands(ctx, model.PageQuery{Page: tt.page})
			if err != nil {
				t.Fatalf("list: %v", err)
			}
			if res.Page != tt.wantPage || res.Pages != 3 {
				t.Errorf("page %d of %d, want %d of 3", res.Page, res.Pages, tt.wantPage)
			}
			if len(res.Commands) != tt.wantCount {
				t.Fatalf("got %d commands, want %d", len(res.Commands), tt.wantCount)
			}
			if res.Commands[0].ID != tt.wantFirst {
				t.Errorf("first id = %d, want %d", res.Commands[0].ID, tt.wantFirst)
			}
		})
	}
}

func TestListCommandsEmpty(t *testing.T) {
	f := newFixture(t, 10)

	res, err := f.client.ListCommands(context.Background(), model.PageQuery{})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if res.Page != 0 || res.Pages != 1 || len(res.Commands) != 0 {
		t.Errorf("unexpected empty result %+v", res)
	}
}

func TestListCommandsFilter(t *testing.T) {
	f := newFixture(t, 10)
	ids := f.seed(t, 3)
	if err := f.db.Cancel(ids[0]); err != nil {
		t.Fatalf("cancel: %v", err)
	}

	res, err := f.client.ListCommands(context.Background(), model.PageQuery{FilterType: model.FilterCancelled})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(res.Commands) != 1 || res.Commands[0].ID != ids[0] {
		t.Errorf("unexpected cancelled list %+v", res.Commands)
	}

	res, err = f.client.ListCommands(context.Background(), model.PageQuery{FilterType: model.FilterPending})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(res.Commands) != 2 {
		t.Errorf("got %d pending commands, want 2", len(res.Commands))
	}
}

func TestListCommandsUnknownFilter(t *testing.T) {
	f := newFixture(t, 10)

	_, err := f.client.ListCommands(context.Background(), model.PageQuery{FilterType: 99})
	var se *control.StatusError
	if !errors.As(err, &se) || se.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %v", err)
	}
}

func TestCancelCommand(t *testing.T) {
	f := newFixture(t, 10)
	ids := f.seed(t, 1)
	ctx := context.Background()

	if err := f.client.CancelCommand(ctx, ids[0]); err != nil {
		t.Fatalf("cancel: %v", err)
	}
	c, err := f.db.Get(ids[0])
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if c.Status != model.StatusCancelled {
		t.Errorf("status = %v, want cancelled", c.Status)
	}

	var se *control.StatusError
	if err := f.client.CancelCommand(ctx, ids[0]); !errors.As(err, &se) || se.Code != http.StatusConflict {
		t.Errorf("second cancel: expected 409, got %v", err)
	}
	if err := f.client.CancelCommand(ctx, 404); !errors.As(err, &se) || se.Code != http.StatusNotFound {
		t.Errorf("missing cancel: expected 404, got %v", err)
	}
}

func TestCancelCommandBadID(t *testing.T) {
	f := newFixture(t, 10)

	req, _ := http.NewRequest(http.MethodDelete, f.srv.URL+"/control/command?id=abc", nil)
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", resp.StatusCode)
	}
	var body errorResponse
	json.NewDecoder(resp.Body).Decode(&body)
	if body.Error.Code != codeInvalidRequest {
		t.Errorf("code = %q", body.Error.Code)
	}
}

func TestQueueCommand(t *testing.T) {
	f := newFixture(t, 10)
	ctx := context.Background()

	err := f.client.QueueCommand(ctx, model.QueueRequest{Target: 3, Position: int64(model.PositionZenith), KeyID: f.key})
	if err != nil {
		t.Fatalf("queue: %v", err)
	}
	res, err := f.client.ListCommands(ctx, model.PageQuery{})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(res.Commands) != 1 {
		t.Fatalf("got %d commands, want 1", len(res.Commands))
	}
	c := res.Commands[0]
	if c.Target != 3 || c.Position != 2 || c.KeyName != "rooftop" || c.Status != model.StatusPending {
		t.Errorf("unexpected command %+v", c)
	}
}

func TestQueueCommandValidation(t *testing.T) {
	f := newFixture(t, 10)

	tests := []struct {
		name string
		req  model.QueueRequest
		want string
	}{
		{"bad position", model.QueueRequest{Target: 1, Position: 7, KeyID: f.key}, "Position"},
		{"negative target", model.QueueRequest{Target: -1, Position: 1, KeyID: f.key}, "Target"},
		{"missing key", model.QueueRequest{Target: 1, Position: 1}, "KeyID"},
		{"unknown key", model.QueueRequest{Target: 1, Position: 1, KeyID: f.key + 50}, "unknown associated_key_id"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := f.client.QueueCommand(context.Background(), tt.req)
			var se *control.StatusError
			if !errors.As(err, &se) || se.Code != http.StatusBadRequest {
				t.Fatalf("expected 400, got %v", err)
			}
			if !strings.Contains(se.Body, tt.want) {
				t.Errorf("body %q does not mention %q", se.Body, tt.want)
			}
		})
	}
}
