package store

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/dgraph-io/badger/v4"

	"github.com/Iron-Ham/chessbook/internal/errors"
	"github.com/Iron-Ham/chessbook/internal/logging"
	"github.com/Iron-Ham/chessbook/internal/study"
)

const badgerKeyPrefix = "study/"

// BadgerOptions configures the local store.
type BadgerOptions struct {
	// Path is the database directory. Ignored when InMemory is set.
	Path     string
	InMemory bool
	Logger   *logging.Logger
}

// Badger stores studies in a local badger database.
type Badger struct {
	db     *badger.DB
	logger *logging.Logger
}

// badgerLogger routes badger's own logging to ours.
type badgerLogger struct {
	logger *logging.Logger
}

func (l badgerLogger) Errorf(format string, args ...any) {
	l.logger.Error(strings.TrimSpace(fmt.Sprintf(format, args...)))
}

func (l badgerLogger) Warningf(format string, args ...any) {
	l.logger.Warn(strings.TrimSpace(fmt.Sprintf(format, args...)))
}

func (l badgerLogger) Infof(format string, args ...any) {
	l.logger.Debug(strings.TrimSpace(fmt.Sprintf(format, args...)))
}

func (l badgerLogger) Debugf(format string, args ...any) {
	l.logger.Debug(strings.TrimSpace(fmt.Sprintf(format, args...)))
}

// OpenBadger opens (creating if needed) a badger store.
func OpenBadger(opts BadgerOptions) (*Badger, error) {
	logger := opts.Logger
	if logger == nil {
		logger = logging.NopLogger()
	}
	logger = logger.With("component", "store", "backend", "badger")

	var bopts badger.Options
	if opts.InMemory {
		bopts = badger.DefaultOptions("").WithInMemory(true)
	} else {
		if opts.Path == "" {
			return nil, errors.NewStorageError("path is required", nil).WithBackend("badger")
		}
		if err := os.MkdirAll(opts.Path, 0o750); err != nil {
			return nil, errors.NewStorageError("create database directory", err).WithBackend("badger").WithKey(opts.Path)
		}
		bopts = badger.DefaultOptions(opts.Path).WithSyncWrites(true)
	}
	bopts = bopts.WithNumVersionsToKeep(1).WithLogger(badgerLogger{logger: logger})

	db, err := badger.Open(bopts)
	if err != nil {
		return nil, errors.NewStorageError("open database", err).WithBackend("badger").WithKey(opts.Path)
	}
	return &Badger{db: db, logger: logger}, nil
}

// Save stores s for pdfID.
func (b *Badger) Save(_ context.Context, pdfID string, s study.Study) error {
	data, err := study.Marshal(s)
	if err != nil {
		return errors.NewStorageError("encode study", err).WithBackend("badger").WithKey(pdfID)
	}
	err = b.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(badgerKeyPrefix+pdfID), data)
	})
	if err != nil {
		return errors.NewStorageError("save study", err).WithBackend("badger").WithKey(pdfID)
	}
	b.logger.WithPDF(pdfID).Debug("study saved", "bytes", len(data))
	return nil
}

// Load returns the study for pdfID.
func (b *Badger) Load(_ context.Context, pdfID string) (study.Study, bool, error) {
	var data []byte
	err := b.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(badgerKeyPrefix + pdfID))
		if err != nil {
			return err
		}
		data, err = item.ValueCopy(nil)
		return err
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return study.Study{}, false, nil
	}
	if err != nil {
		return study.Study{}, false, errors.NewStorageError("load study", err).WithBackend("badger").WithKey(pdfID)
	}

	s, err := study.Unmarshal(data)
	if err != nil {
		return study.Study{}, false, errors.NewStorageError("decode study", err).WithBackend("badger").WithKey(pdfID)
	}
	return s, true, nil
}

// Delete removes the study for pdfID.
func (b *Badger) Delete(_ context.Context, pdfID string) error {
	err := b.db.Update(func(txn *badger.Txn) error {
		return txn.Delete([]byte(badgerKeyPrefix + pdfID))
	})
	if err != nil {
		return errors.NewStorageError("delete study", err).WithBackend("badger").WithKey(pdfID)
	}
	return nil
}

// List returns the stored PDF IDs. Keys iterate in byte order, so the
// result is sorted.
func (b *Badger) List(ctx context.Context) ([]string, error) {
	var ids []string
	err := b.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		opts.Prefix = []byte(badgerKeyPrefix)
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			if err := ctx.Err(); err != nil {
				return err
			}
			ids = append(ids, strings.TrimPrefix(string(it.Item().Key()), badgerKeyPrefix))
		}
		return nil
	})
	if err != nil {
		return nil, errors.NewStorageError("list studies", err).WithBackend("badger")
	}
	return ids, nil
}

// Close closes the database.
func (b *Badger) Close() error {
	return b.db.Close()
}
