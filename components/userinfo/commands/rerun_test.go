package commands

import (
	"context"
	"errors"
	"testing"
)

type stubSearch struct {
	calls int
	err   error
}

func (s *stubSearch) ID() string { return "user_info_search" }

func (s *stubSearch) Rerun(context.Context) error {
	s.calls++
	return s.err
}

type stubTelemetry struct {
	events []string
}

func (s *stubTelemetry) Record(_ context.Context, event string, _ map[string]any) {
	s.events = append(s.events, event)
}

func TestRerunSearchCommand(t *testing.T) {
	search := &stubSearch{}
	telemetry := &stubTelemetry{}
	cmd := NewRerunSearchCommand(search, telemetry)
	if err := cmd.Execute(context.Background(), RerunSearchInput{SearchID: "user_info_search", UserID: "u1"}); err != nil {
		t.Fatalf("Execute returned error: %v", err)
	}
	if search.calls != 1 {
		t.Fatalf("expected rerun call")
	}
	if len(telemetry.events) != 1 || telemetry.events[0] != "userinfo.search.rerun" {
		t.Fatalf("expected telemetry event, got %v", telemetry.events)
	}
}

func TestRerunSearchCommandErrors(t *testing.T) {
	if err := NewRerunSearchCommand(nil, nil).Execute(context.Background(), RerunSearchInput{}); err == nil {
		t.Fatalf("expected error without search manager")
	}
	searchErr := errors.New("runner missing")
	telemetry := &stubTelemetry{}
	cmd := NewRerunSearchCommand(&stubSearch{err: searchErr}, telemetry)
	if err := cmd.Execute(context.Background(), RerunSearchInput{}); !errors.Is(err, searchErr) {
		t.Fatalf("expected search error, got %v", err)
	}
	if len(telemetry.events) != 0 {
		t.Fatalf("expected no telemetry on failure")
	}
}

func TestRerunSearchCommandRejectsOtherSearch(t *testing.T) {
	search := &stubSearch{}
	cmd := NewRerunSearchCommand(search, nil)
	if err := cmd.Execute(context.Background(), RerunSearchInput{SearchID: "sales_search"}); err == nil {
		t.Fatalf("expected error for unknown search id")
	}
	if search.calls != 0 {
		t.Fatalf("expected no rerun for unknown search id")
	}
}
