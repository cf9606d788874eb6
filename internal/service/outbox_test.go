package service

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"Bulletin_Board/internal/logger"
	"Bulletin_Board/internal/model"
	"Bulletin_Board/internal/repository/rdb"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOutboxRelayerDelivers(t *testing.T) {
	posts, db, _ := newTestPostService(t)
	ctx := context.Background()

	id, err := posts.CreatePost(ctx, "t", "c", "alice", nil)
	require.NoError(t, err)
	_, err = posts.SaveComment(ctx, id, "bob", "hi")
	require.NoError(t, err)

	var sent []model.PostOutbox
	relayer := NewOutboxRelayer(db, func(_ context.Context, ob *model.PostOutbox) error {
		sent = append(sent, *ob)
		return nil
	}, 0, logger.NewNop())
	relayer.drainOnce(ctx)

	require.Len(t, sent, 2)
	assert.Equal(t, model.EventPostCreated, sent[0].EventType)
	assert.Equal(t, model.EventCommentCreated, sent[1].EventType)

	var payload map[string]any
	require.NoError(t, json.Unmarshal([]byte(sent[0].Payload), &payload))
	assert.Equal(t, "alice", payload["author"])

	repo := &rdb.OutboxRepository{DB: db}
	pending, err := repo.ListPending(ctx, 10)
	require.NoError(t, err)
	assert.Empty(t, pending)
}

func TestOutboxRelayerRetriesThenFails(t *testing.T) {
	posts, db, _ := newTestPostService(t)
	ctx := context.Background()

	_, err := posts.CreatePost(ctx, "t", "c", "alice", nil)
	require.NoError(t, err)

	relayer := NewOutboxRelayer(db, func(context.Context, *model.PostOutbox) error {
		return errors.New("broker down")
	}, 0, logger.NewNop())
	repo := &rdb.OutboxRepository{DB: db}

	relayer.drainOnce(ctx)
	pending, err := repo.ListPending(ctx, 10)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, 1, pending[0].Retry)
	obID := pending[0].ID

	for i := 1; i < OutboxMaxRetry; i++ {
		relayer.drainOnce(ctx)
	}
	ob, err := repo.FindByID(ctx, obID)
	require.NoError(t, err)
	assert.Equal(t, OutboxMaxRetry, ob.Retry)
	assert.Equal(t, model.OutboxFailed, ob.Status)

	relayer.drainOnce(ctx)
	ob, err = repo.FindByID(ctx, obID)
	require.NoError(t, err)
	assert.Equal(t, OutboxMaxRetry, ob.Retry, "failed rows are no longer picked up")
}
