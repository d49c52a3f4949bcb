package store

import (
	"context"

	"billiard-pos/internal/models"
)

// auditLogLimit caps the forensic listing at the most recent rows.
const auditLogLimit = 100

// ListAuditLog retrieves the most recent forensic change-log entries,
// newest first. The timestamp is formatted in the venue's timezone for
// direct display.
func (s *Store) ListAuditLog(ctx context.Context) ([]models.AuditEntry, error) {
	var entries []models.AuditEntry
	err := s.db.SelectContext(ctx, &entries, `
		SELECT id, table_name, operation, record_id, prior_data,
		       TO_CHAR(altered_at AT TIME ZONE 'America/Lima', 'DD/MM/YYYY HH12:MI:SS AM') AS altered_at
		FROM audit_logs
		ORDER BY id DESC
		LIMIT $1`, auditLogLimit)
	if err != nil {
		return nil, models.Storage("ListAuditLog", err)
	}
	return entries, nil
}
