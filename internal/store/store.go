// Package store persists studies. A study is saved as one JSON document per
// PDF; pending recognitions are never written.
package store

import (
	"context"
	"fmt"

	"github.com/Iron-Ham/chessbook/internal/config"
	"github.com/Iron-Ham/chessbook/internal/logging"
	"github.com/Iron-Ham/chessbook/internal/services"
	"github.com/Iron-Ham/chessbook/internal/study"
)

// Store keeps one study per PDF.
type Store interface {
	// Save replaces the study stored for pdfID.
	Save(ctx context.Context, pdfID string, s study.Study) error
	// Load returns the study for pdfID. found is false when none is stored.
	Load(ctx context.Context, pdfID string) (s study.Study, found bool, err error)
	// Delete removes the study for pdfID. Deleting a missing study is not
	// an error.
	Delete(ctx context.Context, pdfID string) error
	// List returns the IDs of all stored studies in ascending order.
	List(ctx context.Context) ([]string, error)
	Close() error
}

var (
	_ Store = (*Badger)(nil)
	_ Store = (*Redis)(nil)
	_ Store = (*services.StudyStore)(nil)
)

// Open returns the backend cfg selects. remote is only used by the remote
// backend.
func Open(ctx context.Context, cfg config.StorageConfig, remote *services.Client, logger *logging.Logger) (Store, error) {
	if logger == nil {
		logger = logging.NopLogger()
	}
	switch cfg.Backend {
	case "badger", "":
		return OpenBadger(BadgerOptions{Path: cfg.StoragePath(), Logger: logger})
	case "redis":
		return OpenRedis(ctx, RedisOptions{Addr: cfg.RedisAddr, Prefix: cfg.RedisPrefix, Logger: logger})
	case "remote":
		if remote == nil {
			return nil, fmt.Errorf("remote storage needs a services client")
		}
		return services.NewStudyStore(remote), nil
	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.Backend)
	}
}
