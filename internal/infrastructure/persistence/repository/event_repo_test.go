package repository

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/billbookhq/billbook/internal/domain/event"
)

func TestEventRepository_AppendAndList(t *testing.T) {
	db := newTestDB(t)
	repo := NewEventRepository(db.DB, zap.NewNop())
	ctx := context.Background()

	first := event.New("Ravi", event.ActionCreate, "bill-1", "", "", "Bill created: lunch", "10.0.0.1")
	second := event.New("Priya (Approving Admin)", event.ActionApprove, "bill-1",
		"pending", "approved", "Bill approved", "10.0.0.2")
	second.Timestamp = first.Timestamp.Add(time.Second)

	require.NoError(t, repo.Append(ctx, first))
	require.NoError(t, repo.Append(ctx, second))

	events, err := repo.List(ctx)
	require.NoError(t, err)
	require.Len(t, events, 2)

	// Newest first.
	assert.Equal(t, second.ID, events[0].ID)
	assert.Equal(t, first.ID, events[1].ID)
	assert.Equal(t, event.ActionApprove, events[0].Action)
	assert.Equal(t, "pending", events[0].OldValue)
	assert.Equal(t, "approved", events[0].NewValue)
	assert.Equal(t, "Priya (Approving Admin)", events[0].Actor)
}

func TestEventRepository_ListEmpty(t *testing.T) {
	db := newTestDB(t)
	repo := NewEventRepository(db.DB, zap.NewNop())

	events, err := repo.List(context.Background())
	require.NoError(t, err)
	assert.Empty(t, events)
}
