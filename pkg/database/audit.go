// Copyright 2025 Certen Protocol

package database

import (
	"context"
	"fmt"
	"time"
)

// AuditEntry is a single append-only row in the audit trail. It is
// observability plumbing only: no read path in the service depends on it.
type AuditEntry struct {
	ContractUUID string
	Operation    string
	ActorPubKey  string
	Outcome      string
	OccurredAt   time.Time
}

// RecordAudit appends an audit entry. Failures are returned wrapped in
// ErrAuditWriteFailed so callers can log-and-continue without treating
// the audit trail as authoritative.
func (c *Client) RecordAudit(ctx context.Context, entry AuditEntry) error {
	const q = `INSERT INTO audit_log (contract_uuid, operation, actor_pub_key, outcome) VALUES ($1, $2, $3, $4)`
	if _, err := c.db.ExecContext(ctx, q, entry.ContractUUID, entry.Operation, entry.ActorPubKey, entry.Outcome); err != nil {
		return fmt.Errorf("%w: %v", ErrAuditWriteFailed, err)
	}
	return nil
}

// AuditTrail returns the recorded entries for a contract, most recent first.
// Used only by operational tooling, never by the coordination logic itself.
func (c *Client) AuditTrail(ctx context.Context, contractUUID string) ([]AuditEntry, error) {
	const q = `SELECT contract_uuid, operation, actor_pub_key, outcome, occurred_at
		FROM audit_log WHERE contract_uuid = $1 ORDER BY occurred_at DESC`
	rows, err := c.db.QueryContext(ctx, q, contractUUID)
	if err != nil {
		return nil, fmt.Errorf("query audit trail: %w", err)
	}
	defer rows.Close()

	var entries []AuditEntry
	for rows.Next() {
		var e AuditEntry
		if err := rows.Scan(&e.ContractUUID, &e.Operation, &e.ActorPubKey, &e.Outcome, &e.OccurredAt); err != nil {
			return nil, fmt.Errorf("scan audit row: %w", err)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
