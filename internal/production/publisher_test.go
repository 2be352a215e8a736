package production

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/fekuna/omnipos-production-service/internal/model"
)

type recordingWriter struct {
	key   string
	value []byte
	err   error
}

func (w *recordingWriter) Publish(ctx context.Context, key string, value []byte) error {
	w.key, w.value = key, value
	return w.err
}

func TestPublishCommitted(t *testing.T) {
	w := &recordingWriter{}
	p := NewEventPublisher(w)
	e := &model.ProductionEvent{
		ID:         "e1",
		StoreID:    "s1",
		Kind:       model.EventProduction,
		TemplateID: "t1",
		BatchID:    "b1",
		Quantity:   dec("100"),
		CreatedAt:  time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
		Lines:      []model.ProductionEventLine{{RawMaterialID: "milk", Quantity: dec("4"), Unit: "l"}},
	}

	if err := p.PublishCommitted(context.Background(), e); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if w.key != "s1" {
		t.Errorf("Expected store id as key, got %q", w.key)
	}

	var msg CommittedMessage
	if err := json.Unmarshal(w.value, &msg); err != nil {
		t.Fatalf("Expected valid JSON, got %v", err)
	}
	if msg.Type != EventTypeCommitted || msg.EventID != "e1" || msg.Kind != model.EventProduction {
		t.Errorf("Unexpected message header %+v", msg)
	}
	if len(msg.Lines) != 1 || !msg.Lines[0].Quantity.Equal(dec("4")) {
		t.Errorf("Expected one line of 4, got %+v", msg.Lines)
	}
}

func TestPublishCommittedWrapsWriterError(t *testing.T) {
	boom := errors.New("broker down")
	p := NewEventPublisher(&recordingWriter{err: boom})

	err := p.PublishCommitted(context.Background(), &model.ProductionEvent{ID: "e1", StoreID: "s1"})
	if !errors.Is(err, boom) {
		t.Errorf("Expected wrapped broker error, got %v", err)
	}
}
