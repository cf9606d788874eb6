// Package storage persists attachment payloads under generated names,
// independent of any database transaction.
package storage

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"Bulletin_Board/internal/pkg"

	"github.com/google/uuid"
)

// Store is implemented by every payload backend. Delete is idempotent and
// Open returns pkg.ErrNotFound for a name that has no payload.
type Store interface {
	Save(ctx context.Context, r io.Reader, size int64, originalName string) (string, error)
	Open(ctx context.Context, name string) (io.ReadCloser, error)
	Delete(ctx context.Context, name string) error
	List(ctx context.Context) ([]string, error)
}

// NewStoredName returns <unix-millis>_<uuid>. The original filename never
// reaches the backend.
func NewStoredName() string {
	return fmt.Sprintf("%d_%s", time.Now().UnixMilli(), uuid.NewString())
}

func checkOriginalName(name string) error {
	if strings.TrimSpace(name) == "" {
		return fmt.Errorf("original filename is empty: %w", pkg.ErrInvalidArgument)
	}
	return nil
}

// checkStoredName rejects anything that could escape the flat upload space.
func checkStoredName(name string) error {
	if name == "" || name == "." || name == ".." || strings.ContainsAny(name, `/\`) {
		return fmt.Errorf("stored name %q: %w", name, pkg.ErrInvalidArgument)
	}
	return nil
}
