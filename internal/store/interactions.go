package store

import (
	"context"
	"fmt"
	"strings"
	"time"

	"replybot/internal/model"
)

// RecordInteraction appends one processed message to the audit log. The id
// is assigned here unless the caller provides one.
func (s *SQLiteStore) RecordInteraction(ctx context.Context, in model.Interaction) error {
	if in.ID == "" {
		in.ID = s.newID()
	}
	if in.CreatedAt.IsZero() {
		in.CreatedAt = time.Now().UTC()
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO interactions (id, identity, inbound, response, handler, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		in.ID, in.Identity, in.Inbound, in.Response, in.Handler,
		in.CreatedAt.Format(time.RFC3339Nano))
	if err != nil {
		return fmt.Errorf("insert interaction: %w", err)
	}
	return nil
}

// Interactions returns logged interactions, newest first. ULID ids are
// lexically time-ordered, so ordering by id matches insertion order. Query
// is a substring match over inbound and response bodies.
func (s *SQLiteStore) Interactions(ctx context.Context, p InteractionParams) ([]model.Interaction, error) {
	limit := p.Limit
	if limit <= 0 {
		limit = 20
	}

	var where []string
	var args []interface{}
	if p.Identity != "" {
		where = append(where, "identity = ?")
		args = append(args, p.Identity)
	}
	if p.Query != "" {
		q := "%" + p.Query + "%"
		where = append(where, "(inbound LIKE ? OR response LIKE ?)")
		args = append(args, q, q)
	}

	query := `SELECT id, identity, inbound, response, handler, created_at FROM interactions`
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += ` ORDER BY id DESC LIMIT ?`
	args = append(args, limit)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query interactions: %w", err)
	}
	defer rows.Close()

	var out []model.Interaction
	for rows.Next() {
		var in model.Interaction
		var createdAt string
		if err := rows.Scan(&in.ID, &in.Identity, &in.Inbound, &in.Response, &in.Handler, &createdAt); err != nil {
			return nil, fmt.Errorf("scan interaction: %w", err)
		}
		in.CreatedAt, _ = time.Parse(time.RFC3339Nano, createdAt)
		out = append(out, in)
	}
	return out, rows.Err()
}
