package postgresql

import (
	"context"
	_ "embed"
	"fmt"

	"github.com/cmlabs-hris/site-attendance-go/internal/pkg/database"
)

//go:embed schema/schema.sql
var schemaSQL string

// EnsureSchema applies the idempotent table definitions.
func EnsureSchema(ctx context.Context, db *database.DB) error {
	if _, err := db.Exec(ctx, schemaSQL); err != nil {
		return fmt.Errorf("failed to apply schema: %w", err)
	}
	return nil
}
