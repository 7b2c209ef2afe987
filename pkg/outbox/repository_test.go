package outbox

import (
	"encoding/json"
	"errors"
	"fmt"
	"testing"

	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/reparalo-app/reparalo-backend/pkg/db/models"
	"github.com/reparalo-app/reparalo-backend/pkg/enums"
)

func newOutboxTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	conn, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		SkipDefaultTransaction: true,
	})
	if err != nil {
		t.Fatalf("failed to open sqlite: %v", err)
	}
	ddl := `CREATE TABLE outbox_events (
		id TEXT PRIMARY KEY,
		event_type TEXT NOT NULL,
		aggregate_type TEXT NOT NULL,
		aggregate_id TEXT NOT NULL,
		payload TEXT NOT NULL,
		created_at DATETIME,
		published_at DATETIME,
		attempt_count INTEGER NOT NULL DEFAULT 0,
		last_error TEXT
	)`
	if err := conn.Exec(ddl).Error; err != nil {
		t.Fatalf("failed to create outbox_events: %v", err)
	}
	return conn
}

func seedOutboxEvent(t *testing.T, db *gorm.DB) models.OutboxEvent {
	t.Helper()
	event := models.OutboxEvent{
		ID:            uuid.New(),
		EventType:     enums.EventOfferSubmitted,
		AggregateType: enums.AggregateOffer,
		AggregateID:   uuid.New(),
		Payload:       json.RawMessage(`{}`),
	}
	if err := db.Create(&event).Error; err != nil {
		t.Fatalf("failed to seed event: %v", err)
	}
	return event
}

func TestTxMethodsRequireTransaction(t *testing.T) {
	repo := NewRepository(newOutboxTestDB(t))
	id := uuid.New()

	if _, err := repo.FetchUnpublishedForPublish(nil, 10, 5); err == nil {
		t.Fatal("expected fetch without tx to fail")
	}
	if err := repo.MarkPublishedTx(nil, id); err == nil {
		t.Fatal("expected mark published without tx to fail")
	}
	if err := repo.MarkFailedTx(nil, id, errors.New("boom")); err == nil {
		t.Fatal("expected mark failed without tx to fail")
	}
	if err := repo.MarkTerminalTx(nil, id, errors.New("boom"), 10); err == nil {
		t.Fatal("expected mark terminal without tx to fail")
	}
}

func TestMarkPublishedTxStampsEvent(t *testing.T) {
	db := newOutboxTestDB(t)
	repo := NewRepository(db)
	event := seedOutboxEvent(t, db)

	if err := repo.MarkPublishedTx(db, event.ID); err != nil {
		t.Fatalf("mark published failed: %v", err)
	}

	var got models.OutboxEvent
	if err := db.First(&got, "id = ?", event.ID).Error; err != nil {
		t.Fatalf("reload failed: %v", err)
	}
	if got.PublishedAt == nil {
		t.Fatal("expected published_at to be set")
	}
}

func TestMarkFailedTxBumpsAttemptCount(t *testing.T) {
	db := newOutboxTestDB(t)
	repo := NewRepository(db)
	event := seedOutboxEvent(t, db)

	if err := repo.MarkFailedTx(db, event.ID, errors.New("publish timeout")); err != nil {
		t.Fatalf("mark failed errored: %v", err)
	}
	if err := repo.MarkFailedTx(db, event.ID, errors.New("publish timeout")); err != nil {
		t.Fatalf("mark failed errored: %v", err)
	}

	var got models.OutboxEvent
	if err := db.First(&got, "id = ?", event.ID).Error; err != nil {
		t.Fatalf("reload failed: %v", err)
	}
	if got.AttemptCount != 2 {
		t.Fatalf("expected attempt count 2, got %d", got.AttemptCount)
	}
	if got.LastError == nil || *got.LastError != "publish timeout" {
		t.Fatalf("expected last error recorded, got %v", got.LastError)
	}
	if got.PublishedAt != nil {
		t.Fatal("failed event must stay unpublished")
	}
}

func TestMarkTerminalTxParksEventPastCap(t *testing.T) {
	db := newOutboxTestDB(t)
	repo := NewRepository(db)
	event := seedOutboxEvent(t, db)

	if err := repo.MarkTerminalTx(db, event.ID, errors.New("unknown event type"), 10); err != nil {
		t.Fatalf("mark terminal failed: %v", err)
	}

	var got models.OutboxEvent
	if err := db.First(&got, "id = ?", event.ID).Error; err != nil {
		t.Fatalf("reload failed: %v", err)
	}
	if got.AttemptCount < 10 {
		t.Fatalf("expected attempt count raised to the cap, got %d", got.AttemptCount)
	}
	if got.LastError == nil {
		t.Fatal("expected last error recorded")
	}
}
