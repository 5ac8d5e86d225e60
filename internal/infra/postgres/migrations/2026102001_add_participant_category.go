package migrations

import (
	"context"

	"github.com/uptrace/bun"
)

func init() {
	Migrations.MustRegister(
		func(ctx context.Context, db *bun.DB) error {
			_, err := db.ExecContext(ctx, `
				ALTER TABLE participants ADD COLUMN IF NOT EXISTS category TEXT
					CHECK (category IN ('student_6', 'student_9', 'parent', 'teacher'))`)
			return err
		},
		func(ctx context.Context, db *bun.DB) error {
			_, err := db.ExecContext(ctx, `ALTER TABLE participants DROP COLUMN IF EXISTS category`)
			return err
		},
	)
}
