package usersink

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/goliatone/go-users/pkg/types"
	"github.com/google/uuid"

	"github.com/goliatone/go-userinfo/pkg/activity"
)

type recordingSink struct {
	records []types.ActivityRecord
	err     error
}

func (s *recordingSink) Log(_ context.Context, record types.ActivityRecord) error {
	s.records = append(s.records, record)
	return s.err
}

func TestHookMapsEventToRecord(t *testing.T) {
	sink := &recordingSink{}
	actorID := uuid.New()
	userID := uuid.New()
	tenantID := uuid.New()
	now := time.Date(2026, 3, 4, 5, 6, 7, 0, time.UTC)

	err := Hook{Sink: sink}.Notify(context.Background(), activity.Event{
		Verb:           "render",
		ActorID:        actorID.String(),
		UserID:         userID.String(),
		TenantID:       tenantID.String(),
		ObjectType:     "userinfo.widget",
		ObjectID:       "userinfo.widget.cards",
		Channel:        "userinfo",
		DefinitionCode: "userinfo.widget.cards",
		Recipients:     []string{"ops"},
		Metadata:       map[string]any{"locale": "es"},
		OccurredAt:     now,
	})
	if err != nil {
		t.Fatalf("Notify returned error: %v", err)
	}
	if len(sink.records) != 1 {
		t.Fatalf("expected 1 record, got %d", len(sink.records))
	}
	record := sink.records[0]
	if record.ActorID != actorID || record.UserID != userID || record.TenantID != tenantID {
		t.Fatalf("unexpected ids %+v", record)
	}
	if record.Verb != "render" || record.ObjectType != "userinfo.widget" || record.Channel != "userinfo" {
		t.Fatalf("unexpected record %+v", record)
	}
	if record.Data["definition_code"] != "userinfo.widget.cards" || record.Data["locale"] != "es" {
		t.Fatalf("unexpected data %+v", record.Data)
	}
	if recipients, ok := record.Data["recipients"].([]string); !ok || len(recipients) != 1 {
		t.Fatalf("expected recipients in data, got %+v", record.Data["recipients"])
	}
	if !record.OccurredAt.Equal(now) {
		t.Fatalf("expected OccurredAt %v, got %v", now, record.OccurredAt)
	}
}

func TestHookInvalidIDsBecomeNil(t *testing.T) {
	sink := &recordingSink{}
	if err := (Hook{Sink: sink}).Notify(context.Background(), activity.Event{Verb: "render", ActorID: "not-a-uuid"}); err != nil {
		t.Fatalf("Notify returned error: %v", err)
	}
	if sink.records[0].ActorID != uuid.Nil {
		t.Fatalf("expected nil uuid for invalid actor")
	}
}

func TestHookSkipsWithoutSinkOrVerb(t *testing.T) {
	if err := (Hook{}).Notify(context.Background(), activity.Event{Verb: "render"}); err != nil {
		t.Fatalf("nil sink returned error: %v", err)
	}
	sink := &recordingSink{}
	if err := (Hook{Sink: sink}).Notify(context.Background(), activity.Event{}); err != nil {
		t.Fatalf("Notify returned error: %v", err)
	}
	if len(sink.records) != 0 {
		t.Fatalf("expected no records for verbless event")
	}
}

func TestHookWrapsSinkError(t *testing.T) {
	sinkErr := errors.New("db down")
	err := Hook{Sink: &recordingSink{err: sinkErr}}.Notify(context.Background(), activity.Event{Verb: "render"})
	if !errors.Is(err, sinkErr) {
		t.Fatalf("expected wrapped sink error, got %v", err)
	}
}
