package store

import "context"

// Transactor runs fn inside one atomic unit of work. Repositories called with the
// ctx handed to fn take part in that unit. Nested calls join the outer unit.
type Transactor interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context) error) error
}
