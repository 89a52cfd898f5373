package outbox

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/bayancosmetic/storefront/pkg/db/dbtest"
	"github.com/bayancosmetic/storefront/pkg/db/models"
	"github.com/bayancosmetic/storefront/pkg/enums"
	"github.com/bayancosmetic/storefront/pkg/logger"
)

func newTestService(t *testing.T) (*Service, *Repository, *gorm.DB) {
	t.Helper()
	db := dbtest.Open(t, dbtest.OutboxEvents, dbtest.OutboxDLQ)
	repo := NewRepository(db)
	logg := logger.New(logger.Options{ServiceName: "outbox-test", Output: io.Discard})
	return NewService(repo, logg), repo, db
}

func TestEmitWritesEnvelope(t *testing.T) {
	svc, _, db := newTestService(t)
	orderID := uuid.New()

	err := db.Transaction(func(tx *gorm.DB) error {
		return svc.Emit(context.Background(), tx, DomainEvent{
			EventType:     enums.EventOrderPlaced,
			AggregateType: enums.AggregateOrder,
			AggregateID:   orderID,
			Actor:         &ActorRef{SessionID: "sess-1"},
			Data:          map[string]any{"order_number": "BC-1-AAAA"},
		})
	})
	require.NoError(t, err)

	var row models.OutboxEvent
	require.NoError(t, db.First(&row, "aggregate_id = ?", orderID).Error)
	assert.Equal(t, enums.EventOrderPlaced, row.EventType)

	var envelope PayloadEnvelope
	require.NoError(t, json.Unmarshal(row.Payload, &envelope))
	assert.Equal(t, 1, envelope.Version)
	assert.NotEmpty(t, envelope.EventID)
	assert.Equal(t, "sess-1", envelope.Actor.SessionID)
	assert.JSONEq(t, `{"order_number":"BC-1-AAAA"}`, string(envelope.Data))
}

func TestEmitRequiresTransaction(t *testing.T) {
	svc, _, _ := newTestService(t)
	err := svc.Emit(context.Background(), nil, DomainEvent{EventType: enums.EventOrderPlaced})
	require.Error(t, err)
}

func TestEmitIfNotExistsSkipsDuplicates(t *testing.T) {
	svc, _, db := newTestService(t)
	orderID := uuid.New()
	event := DomainEvent{
		EventType:     enums.EventOrderReconciled,
		AggregateType: enums.AggregateOrder,
		AggregateID:   orderID,
		Data:          map[string]any{"ok": true},
	}

	for i := 0; i < 2; i++ {
		require.NoError(t, db.Transaction(func(tx *gorm.DB) error {
			return svc.EmitIfNotExists(context.Background(), tx, event)
		}))
	}

	var count int64
	require.NoError(t, db.Model(&models.OutboxEvent{}).Where("aggregate_id = ?", orderID).Count(&count).Error)
	assert.EqualValues(t, 1, count)
}

func TestRepositoryPublishLifecycle(t *testing.T) {
	svc, repo, db := newTestService(t)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		require.NoError(t, db.Transaction(func(tx *gorm.DB) error {
			return svc.Emit(ctx, tx, DomainEvent{
				EventType:     enums.EventOrderPlaced,
				AggregateType: enums.AggregateOrder,
				AggregateID:   uuid.New(),
				Data:          map[string]any{"n": i},
			})
		}))
	}

	var rows []models.OutboxEvent
	require.NoError(t, db.Transaction(func(tx *gorm.DB) error {
		var err error
		rows, err = repo.FetchUnpublishedForPublish(tx, 10, 5)
		if err != nil {
			return err
		}
		if err := repo.MarkPublishedTx(tx, rows[0].ID); err != nil {
			return err
		}
		if err := repo.MarkFailedTx(tx, rows[1].ID, errors.New("transient")); err != nil {
			return err
		}
		return repo.MarkTerminalTx(tx, rows[2].ID, errors.New("bad payload"), 5)
	}))
	require.Len(t, rows, 3)

	pending, err := repo.CountPending(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 2, pending)

	var remaining []models.OutboxEvent
	require.NoError(t, db.Transaction(func(tx *gorm.DB) error {
		var err error
		remaining, err = repo.FetchUnpublishedForPublish(tx, 10, 5)
		return err
	}))
	require.Len(t, remaining, 1)
	assert.Equal(t, rows[1].ID, remaining[0].ID)
	assert.Equal(t, 1, remaining[0].AttemptCount)

	deleted, err := repo.DeletePublishedBefore(ctx, nil, time.Now().UTC().Add(48*time.Hour), 5)
	require.NoError(t, err)
	assert.EqualValues(t, 2, deleted)
}

func TestDLQInsertTruncatesMessage(t *testing.T) {
	_, _, db := newTestService(t)
	dlq := NewDLQRepository(db)
	long := make([]byte, 2000)
	for i := range long {
		long[i] = 'x'
	}
	msg := string(long)
	eventID := uuid.New()

	require.NoError(t, db.Transaction(func(tx *gorm.DB) error {
		return dlq.InsertTx(tx, models.OutboxDLQ{
			EventID:       eventID,
			EventType:     enums.EventOrderPlaced,
			AggregateType: enums.AggregateOrder,
			AggregateID:   uuid.New(),
			Payload:       json.RawMessage(`{}`),
			ErrorReason:   enums.OutboxDLQReasonNonRetryable,
			ErrorMessage:  &msg,
		})
	}))

	found, err := dlq.FindByEventIDTx(db, eventID)
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Len(t, *found.ErrorMessage, maxDLQErrorLen)

	missing, err := dlq.FindByEventIDTx(db, uuid.New())
	require.NoError(t, err)
	assert.Nil(t, missing)
}
