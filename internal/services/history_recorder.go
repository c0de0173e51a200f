package services

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"sync"
	"time"

	"campus-dispatch-service/internal/domain"
	"campus-dispatch-service/internal/platform/obs"
	"campus-dispatch-service/internal/ports"
)

// Storage key holding the history JSON array.
const HistoryKey = "transport_history"

// HistoryBackupKey keeps the last history value that could not be decoded.
const HistoryBackupKey = HistoryKey + "_unreadable"

// HistoryRecorder keeps a bounded newest-first list of mission outcomes.
type HistoryRecorder struct {
	mu    sync.Mutex
	store ports.KVStore
	now   func() time.Time
}

func NewHistoryRecorder(store ports.KVStore) *HistoryRecorder {
	return &HistoryRecorder{store: store, now: time.Now}
}

// Record prepends an entry and evicts anything past MaxHistoryRecords.
func (h *HistoryRecorder) Record(ctx context.Context, pickup, delivery, status string) (err error) {
	defer obs.Time(ctx, "history.Record")(&err)

	h.mu.Lock()
	defer h.mu.Unlock()

	raw, err := h.raw(ctx)
	if err != nil {
		return fmt.Errorf("record history: %w", err)
	}
	records, err := decodeHistory(raw)
	if err != nil {
		// Start over, keeping the unreadable value aside.
		if berr := h.store.Set(ctx, HistoryBackupKey, raw); berr != nil {
			return fmt.Errorf("record history: back up unreadable history: %w", berr)
		}
		log.Printf("op=history.Record msg=%q backup_key=%s err=%v", "reset unreadable history", HistoryBackupKey, err)
		records = nil
	}

	entry := domain.HistoryRecord{
		Timestamp: h.now().Format(time.RFC3339),
		Pickup:    pickup,
		Delivery:  delivery,
		Status:    status,
	}

	out := make([]domain.HistoryRecord, 0, len(records)+1)
	out = append(out, entry)
	out = append(out, records...)
	if len(out) > domain.MaxHistoryRecords {
		out = out[:domain.MaxHistoryRecords]
	}

	b, err := json.Marshal(out)
	if err != nil {
		return fmt.Errorf("record history: marshal: %w", err)
	}
	if err := h.store.Set(ctx, HistoryKey, string(b)); err != nil {
		return fmt.Errorf("record history: %w", err)
	}

	return nil
}

// List returns the stored records, newest first.
func (h *HistoryRecorder) List(ctx context.Context) ([]domain.HistoryRecord, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	records, err := h.load(ctx)
	if err != nil {
		return nil, fmt.Errorf("list history: %w", err)
	}
	return records, nil
}

func (h *HistoryRecorder) Clear(ctx context.Context) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if err := h.store.Delete(ctx, HistoryKey); err != nil {
		return fmt.Errorf("clear history: %w", err)
	}
	return nil
}

func (h *HistoryRecorder) load(ctx context.Context) ([]domain.HistoryRecord, error) {
	raw, err := h.raw(ctx)
	if err != nil {
		return nil, err
	}
	return decodeHistory(raw)
}

func (h *HistoryRecorder) raw(ctx context.Context) (string, error) {
	raw, ok, err := h.store.Get(ctx, HistoryKey)
	if err != nil {
		return "", err
	}
	if !ok {
		return "", nil
	}
	return raw, nil
}

func decodeHistory(raw string) ([]domain.HistoryRecord, error) {
	if raw == "" {
		return []domain.HistoryRecord{}, nil
	}

	var records []domain.HistoryRecord
	if err := json.Unmarshal([]byte(raw), &records); err != nil {
		return nil, fmt.Errorf("decode %s: %w", HistoryKey, err)
	}
	if records == nil {
		records = []domain.HistoryRecord{}
	}
	return records, nil
}
