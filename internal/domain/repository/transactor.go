package repository

import (
	"context"
	"database/sql"

	"gorm.io/gorm"
)

// Transactor hands out database handles to usecases. Repositories receive the handle
// explicitly so a usecase decides which calls share a transaction.
type Transactor interface {
	// Conn returns a handle bound to ctx outside any transaction.
	Conn(ctx context.Context) *gorm.DB
	// Transaction runs fn in a transaction, committing when fn returns nil.
	Transaction(ctx context.Context, fn func(tx *gorm.DB) error, opts ...*sql.TxOptions) error
}
