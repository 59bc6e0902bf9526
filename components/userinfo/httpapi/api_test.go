package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/goliatone/go-userinfo/components/userinfo"
	"github.com/goliatone/go-userinfo/components/userinfo/commands"
	"github.com/goliatone/go-userinfo/components/userinfo/queries"
)

type stubCommander[T any] struct {
	last  T
	calls int
	err   error
}

func (s *stubCommander[T]) Execute(ctx context.Context, msg T) error {
	s.last = msg
	s.calls++
	return s.err
}

type stubQuerier struct {
	snap userinfo.Snapshot
	err  error
}

func (s stubQuerier) Query(context.Context, queries.SnapshotInput) (userinfo.Snapshot, error) {
	return s.snap, s.err
}

func TestHandleRerunAcceptsEmptyBody(t *testing.T) {
	rerun := &stubCommander[commands.RerunSearchInput]{}
	api := &Handlers{
		Executor: &CommandExecutor{RerunCommander: rerun},
		Viewer: func(*http.Request) userinfo.ViewerContext {
			return userinfo.ViewerContext{UserID: "u1"}
		},
	}
	req := httptest.NewRequest(http.MethodPost, "/userinfo/rerun", nil)
	rec := httptest.NewRecorder()
	api.HandleRerun(rec, req)
	if rec.Code != http.StatusAccepted {
		t.Fatalf("expected 202, got %d", rec.Code)
	}
	if rerun.calls != 1 || rerun.last.UserID != "u1" {
		t.Fatalf("expected rerun with viewer id, got %+v", rerun.last)
	}
}

func TestHandleRerunBadPayload(t *testing.T) {
	rerun := &stubCommander[commands.RerunSearchInput]{}
	api := &Handlers{Executor: &CommandExecutor{RerunCommander: rerun}}
	req := httptest.NewRequest(http.MethodPost, "/userinfo/rerun", strings.NewReader("{"))
	rec := httptest.NewRecorder()
	api.HandleRerun(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
	if rerun.calls != 0 {
		t.Fatalf("expected no rerun on bad payload")
	}
}

func TestHandleRerunFailure(t *testing.T) {
	rerun := &stubCommander[commands.RerunSearchInput]{err: errors.New("closed")}
	api := &Handlers{Executor: &CommandExecutor{RerunCommander: rerun}}
	req := httptest.NewRequest(http.MethodPost, "/userinfo/rerun", strings.NewReader(`{"search_id":"user_info_search"}`))
	rec := httptest.NewRecorder()
	api.HandleRerun(rec, req)
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rec.Code)
	}
	if rerun.last.SearchID != "user_info_search" {
		t.Fatalf("expected search id propagation")
	}
}

func TestHandleSnapshot(t *testing.T) {
	api := &Handlers{Executor: &CommandExecutor{SnapshotQuerier: stubQuerier{snap: userinfo.Snapshot{
		ContainerID: "user_info",
		State:       userinfo.StateRendered,
		Cards:       3,
	}}}}
	req := httptest.NewRequest(http.MethodGet, "/userinfo/_snapshot", nil)
	rec := httptest.NewRecorder()
	api.HandleSnapshot(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var snap userinfo.Snapshot
	if err := json.Unmarshal(rec.Body.Bytes(), &snap); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if snap.Cards != 3 || snap.State != userinfo.StateRendered {
		t.Fatalf("unexpected snapshot %+v", snap)
	}
}

func TestCommandExecutorRequiresCollaborators(t *testing.T) {
	exec := &CommandExecutor{}
	if err := exec.Rerun(context.Background(), commands.RerunSearchInput{}); err == nil {
		t.Fatalf("expected rerun error")
	}
	if _, err := exec.Snapshot(context.Background(), queries.SnapshotInput{}); err == nil {
		t.Fatalf("expected snapshot error")
	}
}
