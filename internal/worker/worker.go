// Package worker runs long-lived background loops next to the API and in the
// export worker process.
package worker

import (
	"context"
)

// Worker is a background loop. Start blocks until Stop is called or ctx ends.
type Worker interface {
	Start(ctx context.Context) error
	Stop() error
	Name() string
}
