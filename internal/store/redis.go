package store

import (
	"context"
	"slices"
	"strings"

	"github.com/redis/go-redis/v9"

	"github.com/Iron-Ham/chessbook/internal/errors"
	"github.com/Iron-Ham/chessbook/internal/logging"
	"github.com/Iron-Ham/chessbook/internal/study"
)

// DefaultRedisPrefix namespaces study keys.
const DefaultRedisPrefix = "chessbook:study:"

// RedisOptions configures the shared store.
type RedisOptions struct {
	Addr   string
	Prefix string
	Logger *logging.Logger
	// Client replaces the connection built from Addr.
	Client *redis.Client
}

// Redis stores studies as string keys in redis so several machines can
// share them.
type Redis struct {
	client *redis.Client
	prefix string
	logger *logging.Logger
}

// OpenRedis connects and pings the server.
func OpenRedis(ctx context.Context, opts RedisOptions) (*Redis, error) {
	logger := opts.Logger
	if logger == nil {
		logger = logging.NopLogger()
	}
	client := opts.Client
	if client == nil {
		client = redis.NewClient(&redis.Options{Addr: opts.Addr})
	}
	prefix := opts.Prefix
	if prefix == "" {
		prefix = DefaultRedisPrefix
	}

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, errors.NewStorageError("connect", err).WithBackend("redis").WithKey(opts.Addr)
	}
	return &Redis{
		client: client,
		prefix: prefix,
		logger: logger.With("component", "store", "backend", "redis"),
	}, nil
}

func (r *Redis) key(pdfID string) string { return r.prefix + pdfID }

// Save stores s for pdfID.
func (r *Redis) Save(ctx context.Context, pdfID string, s study.Study) error {
	data, err := study.Marshal(s)
	if err != nil {
		return errors.NewStorageError("encode study", err).WithBackend("redis").WithKey(pdfID)
	}
	if err := r.client.Set(ctx, r.key(pdfID), data, 0).Err(); err != nil {
		return errors.NewStorageError("save study", err).WithBackend("redis").WithKey(pdfID)
	}
	r.logger.WithPDF(pdfID).Debug("study saved", "bytes", len(data))
	return nil
}

// Load returns the study for pdfID.
func (r *Redis) Load(ctx context.Context, pdfID string) (study.Study, bool, error) {
	data, err := r.client.Get(ctx, r.key(pdfID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return study.Study{}, false, nil
	}
	if err != nil {
		return study.Study{}, false, errors.NewStorageError("load study", err).WithBackend("redis").WithKey(pdfID)
	}
	s, err := study.Unmarshal(data)
	if err != nil {
		return study.Study{}, false, errors.NewStorageError("decode study", err).WithBackend("redis").WithKey(pdfID)
	}
	return s, true, nil
}

// Delete removes the study for pdfID.
func (r *Redis) Delete(ctx context.Context, pdfID string) error {
	if err := r.client.Del(ctx, r.key(pdfID)).Err(); err != nil {
		return errors.NewStorageError("delete study", err).WithBackend("redis").WithKey(pdfID)
	}
	return nil
}

// List scans the prefix for stored studies.
func (r *Redis) List(ctx context.Context) ([]string, error) {
	var ids []string
	iter := r.client.Scan(ctx, 0, r.prefix+"*", 0).Iterator()
	for iter.Next(ctx) {
		ids = append(ids, strings.TrimPrefix(iter.Val(), r.prefix))
	}
	if err := iter.Err(); err != nil {
		return nil, errors.NewStorageError("list studies", err).WithBackend("redis")
	}
	slices.Sort(ids)
	return ids, nil
}

// Close closes the connection.
func (r *Redis) Close() error {
	return r.client.Close()
}
