package migrations

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/pressly/goose/v3"
)

func init() {
	goose.AddMigrationContext(upRunHistory, downRunHistory)
}

func upRunHistory(ctx context.Context, tx *sql.Tx) error {
	createRunsTable := `
	CREATE TABLE optimize_runs (
		id UUID PRIMARY KEY,
		status VARCHAR(20) NOT NULL,
		formats VARCHAR(100) NOT NULL,
		item_count INTEGER NOT NULL DEFAULT 0,
		failed_count INTEGER NOT NULL DEFAULT 0,
		error TEXT,
		created_at TIMESTAMP WITH TIME ZONE DEFAULT NOW(),
		updated_at TIMESTAMP WITH TIME ZONE DEFAULT NOW()
	);
	`
	if _, err := tx.ExecContext(ctx, createRunsTable); err != nil {
		return fmt.Errorf("could not create optimize_runs table: %w", err)
	}

	createOutputsTable := `
	CREATE TABLE run_outputs (
		id UUID PRIMARY KEY,
		run_id UUID NOT NULL REFERENCES optimize_runs(id) ON DELETE CASCADE,
		position INTEGER NOT NULL,
		paired_item INTEGER NOT NULL,
		channel INTEGER NOT NULL DEFAULT 0,
		format VARCHAR(20),
		file_name VARCHAR(255),
		mime_type VARCHAR(50),
		storage_key VARCHAR(500),
		width INTEGER,
		height INTEGER,
		size BIGINT,
		error TEXT,
		created_at TIMESTAMP WITH TIME ZONE DEFAULT NOW()
	);
	CREATE INDEX idx_run_outputs_run_id ON run_outputs(run_id);
	`
	if _, err := tx.ExecContext(ctx, createOutputsTable); err != nil {
		return fmt.Errorf("could not create run_outputs table: %w", err)
	}
	return nil
}

func downRunHistory(ctx context.Context, tx *sql.Tx) error {
	for _, table := range []string{"run_outputs", "optimize_runs"} {
		if _, err := tx.ExecContext(ctx, fmt.Sprintf("DROP TABLE IF EXISTS %s;", table)); err != nil {
			return fmt.Errorf("could not drop table %s: %w", table, err)
		}
	}
	return nil
}
