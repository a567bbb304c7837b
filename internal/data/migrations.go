package data

import (
	"context"
	"database/sql"

	"github.com/target/ticketgate/internal/migrate"
)

// RunMigrations applies the embedded dispatch schema migrations.
func RunMigrations(ctx context.Context, db *sql.DB) error {
	return migrate.Run(ctx, db)
}
