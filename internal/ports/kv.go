package ports

import "context"

// KV is the small durable key-value surface the agents use for
// checkpoints and bookkeeping. Backed by the store so a restart
// resumes where the previous process stopped.
type KV interface {
	Get(ctx context.Context, key string) (value string, found bool, err error)
	Set(ctx context.Context, key string, value string) error
	Delete(ctx context.Context, key string) error
}
