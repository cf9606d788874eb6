package service

import (
	"context"
	"io"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"Bulletin_Board/internal/logger"
	"Bulletin_Board/internal/repository/rdb"
	"Bulletin_Board/internal/storage"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := rdb.Open("sqlite", filepath.Join(t.TempDir(), "board.db"), gormlogger.Silent)
	require.NoError(t, err)
	require.NoError(t, rdb.Migrate(db))
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	return db
}

func newTestStore(t *testing.T) *storage.LocalStore {
	t.Helper()
	store, err := storage.NewLocalStore(filepath.Join(t.TempDir(), "uploads"))
	require.NoError(t, err)
	return store
}

func newTestPostService(t *testing.T) (*PostService, *gorm.DB, *storage.LocalStore) {
	t.Helper()
	db := newTestDB(t)
	store := newTestStore(t)
	return NewPostService(db, store, logger.NewNop()), db, store
}

func upload(name, body string) FileUpload {
	return FileUpload{
		Name: name,
		Size: int64(len(body)),
		Open: func() (io.ReadCloser, error) {
			return io.NopCloser(strings.NewReader(body)), nil
		},
	}
}

func readStored(t *testing.T, store storage.Store, name string) string {
	t.Helper()
	rc, err := store.Open(context.Background(), name)
	require.NoError(t, err)
	defer rc.Close()
	b, err := io.ReadAll(rc)
	require.NoError(t, err)
	return string(b)
}

// stepClock 每次调用前进一秒
func stepClock(start time.Time) func() time.Time {
	var mu sync.Mutex
	cur := start
	return func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		cur = cur.Add(time.Second)
		return cur
	}
}

type memTokens struct {
	mu     sync.Mutex
	tokens map[uint64]string
}

func newMemTokens() *memTokens {
	return &memTokens{tokens: make(map[uint64]string)}
}

func (m *memTokens) AddUserToken(_ context.Context, userID uint64, token string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tokens[userID] = token
	return nil
}

func (m *memTokens) GetUserToken(_ context.Context, userID uint64) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	tok, ok := m.tokens[userID]
	if !ok {
		return "", io.EOF
	}
	return tok, nil
}

func (m *memTokens) ExtendUserToken(context.Context, uint64) error { return nil }

func (m *memTokens) DeleteUserToken(_ context.Context, userID uint64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.tokens, userID)
	return nil
}
