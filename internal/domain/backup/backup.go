// Package backup serializes the whole dataset to a single JSON
// document and restores it atomically. Restore replaces everything:
// it is the disaster path, not a merge.
package backup

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const FormatVersion = 1

// restoreOrder lists every exported table parents-first, so a restore
// can insert in this order and delete in the reverse one without
// tripping foreign keys.
var restoreOrder = []string{
	"branches",
	"users",
	"settings",
	"holidays",
	"employees",
	"payroll_periods",
	"deductions",
	"attendance",
	"payroll_entries",
	"audit_logs",
}

// Archive is the on-disk shape of a backup.
type Archive struct {
	Version    int                         `json:"version"`
	ExportedAt time.Time                   `json:"exported_at"`
	Tables     map[string][]map[string]any `json:"tables"`
}

type AuditLog interface {
	Record(ctx context.Context, action, entityType, entityID, description string, before, after any) error
}

// Notifier pushes full-table syncs after a restore replaces the data.
type Notifier interface {
	TableChanged(table, action, id string)
}

type Service struct {
	DB       *pgxpool.Pool
	audit    AuditLog
	notifier Notifier
}

func NewService(db *pgxpool.Pool, auditLog AuditLog, notifier Notifier) *Service {
	return &Service{DB: db, audit: auditLog, notifier: notifier}
}

// Export writes the full dataset as one JSON archive.
func (s *Service) Export(ctx context.Context, w io.Writer) error {
	archive := Archive{
		Version:    FormatVersion,
		ExportedAt: time.Now().UTC(),
		Tables:     map[string][]map[string]any{},
	}

	for _, table := range restoreOrder {
		rows, err := s.exportTable(ctx, table)
		if err != nil {
			return fmt.Errorf("export %s: %w", table, err)
		}
		archive.Tables[table] = rows
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(archive); err != nil {
		return err
	}
	return s.audit.Record(ctx, "backup_exported", "backup", "",
		fmt.Sprintf("exported %d tables", len(archive.Tables)), nil, nil)
}

func (s *Service) exportTable(ctx context.Context, table string) ([]map[string]any, error) {
	rows, err := s.DB.Query(ctx, fmt.Sprintf("SELECT to_jsonb(t) FROM %s t", table))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []map[string]any{}
	for rows.Next() {
		var raw []byte
		if err := rows.Scan(&raw); err != nil {
			return nil, err
		}
		var row map[string]any
		if err := json.Unmarshal(raw, &row); err != nil {
			return nil, err
		}
		out = append(out, row)
	}
	return out, rows.Err()
}

// Import replaces the dataset with the archive's contents in one
// transaction, then pushes a full sync for every table. A decode or
// insert failure leaves the database untouched.
func (s *Service) Import(ctx context.Context, r io.Reader) error {
	var archive Archive
	if err := json.NewDecoder(r).Decode(&archive); err != nil {
		return fmt.Errorf("decode archive: %w", err)
	}
	if archive.Version != FormatVersion {
		return fmt.Errorf("unsupported archive version %d", archive.Version)
	}

	tx, err := s.DB.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	for i := len(restoreOrder) - 1; i >= 0; i-- {
		if _, err := tx.Exec(ctx, "DELETE FROM "+restoreOrder[i]); err != nil {
			return fmt.Errorf("clear %s: %w", restoreOrder[i], err)
		}
	}

	total := 0
	for _, table := range restoreOrder {
		for _, row := range archive.Tables[table] {
			payload, err := json.Marshal(row)
			if err != nil {
				return err
			}
			if _, err := tx.Exec(ctx, fmt.Sprintf(
				"INSERT INTO %s SELECT * FROM jsonb_populate_record(NULL::%s, $1)",
				table, table), payload); err != nil {
				return fmt.Errorf("restore %s: %w", table, err)
			}
			total++
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return err
	}

	if err := s.audit.Record(ctx, "backup_imported", "backup", "",
		fmt.Sprintf("restored %d rows from archive exported at %s", total, archive.ExportedAt.Format(time.RFC3339)), nil, nil); err != nil {
		return err
	}

	if s.notifier != nil {
		for _, table := range restoreOrder {
			s.notifier.TableChanged(table, "sync", "")
		}
	}
	return nil
}
