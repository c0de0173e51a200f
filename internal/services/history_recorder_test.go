package services

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"campus-dispatch-service/internal/adapters/kvstore"
	"campus-dispatch-service/internal/domain"
)

func TestHistoryRecorderBoundedNewestFirst(t *testing.T) {
	ctx := context.Background()
	store := kvstore.NewMemoryStore()
	h := NewHistoryRecorder(store)

	base := time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)
	n := 0
	h.now = func() time.Time {
		n++
		return base.Add(time.Duration(n) * time.Minute)
	}

	for i := 0; i < domain.MaxHistoryRecords+1; i++ {
		if err := h.Record(ctx, fmt.Sprintf("P%d", i), "D", domain.HistoryStatusSuccess); err != nil {
			t.Fatalf("record %d: %v", i, err)
		}
	}

	records, err := h.List(ctx)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(records) != domain.MaxHistoryRecords {
		t.Fatalf("records = %d, want %d", len(records), domain.MaxHistoryRecords)
	}
	if records[0].Pickup != "P50" {
		t.Fatalf("newest = %q, want P50", records[0].Pickup)
	}
	if last := records[len(records)-1].Pickup; last != "P1" {
		t.Fatalf("oldest = %q, want P1", last)
	}
	if records[0].Timestamp != "2026-03-01T08:51:00Z" {
		t.Fatalf("timestamp = %q", records[0].Timestamp)
	}
}

func TestHistoryRecorderCorruptData(t *testing.T) {
	ctx := context.Background()
	store := kvstore.NewMemoryStore()
	if err := store.Set(ctx, HistoryKey, "{not json"); err != nil {
		t.Fatalf("seed: %v", err)
	}
	h := NewHistoryRecorder(store)

	if _, err := h.List(ctx); err == nil {
		t.Fatal("expected decode error")
	}

	if err := h.Record(ctx, "Dorm A", "Library", domain.HistoryStatusCancelled); err != nil {
		t.Fatalf("record: %v", err)
	}
	records, err := h.List(ctx)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(records) != 1 || records[0].Status != domain.HistoryStatusCancelled {
		t.Fatalf("records = %+v", records)
	}

	backup, ok, err := store.Get(ctx, HistoryBackupKey)
	if err != nil || !ok || backup != "{not json" {
		t.Fatalf("backup = %q, %v, %v, want the unreadable value", backup, ok, err)
	}
}

func TestHistoryRecorderKeepsCorruptDataWhenBackupFails(t *testing.T) {
	ctx := context.Background()
	store := kvstore.NewMemoryStore()
	if err := store.Set(ctx, HistoryKey, "{not json"); err != nil {
		t.Fatalf("seed: %v", err)
	}
	h := NewHistoryRecorder(store)

	readOnly := errors.New("read-only")
	store.FailWrites = readOnly
	if err := h.Record(ctx, "Dorm A", "Library", domain.HistoryStatusSuccess); !errors.Is(err, readOnly) {
		t.Fatalf("err = %v, want %v", err, readOnly)
	}

	raw, _, _ := store.Get(ctx, HistoryKey)
	if raw != "{not json" {
		t.Fatalf("history = %q, want it left as is", raw)
	}
}

func TestHistoryRecorderClear(t *testing.T) {
	ctx := context.Background()
	store := kvstore.NewMemoryStore()
	h := NewHistoryRecorder(store)

	_ = h.Record(ctx, "A", "B", domain.HistoryStatusSuccess)
	if err := h.Clear(ctx); err != nil {
		t.Fatalf("clear: %v", err)
	}

	records, err := h.List(ctx)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if records == nil || len(records) != 0 {
		t.Fatalf("records = %#v, want empty slice", records)
	}

	store.FailWrites = errors.New("read-only")
	if err := h.Clear(ctx); err == nil {
		t.Fatal("expected clear to fail")
	}
}
