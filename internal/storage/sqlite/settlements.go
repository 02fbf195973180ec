package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/splitledger/splitledger/internal/models"
	"github.com/splitledger/splitledger/internal/storage"
)

// CreateSettlement persists a new settlement to the database.
func (s *SQLiteStore) CreateSettlement(ctx context.Context, settlement *models.Settlement) error {
	if settlement.ID == "" {
		settlement.ID = uuid.New().String()
	}
	if settlement.CreatedAt == 0 {
		settlement.CreatedAt = time.Now().Unix()
	}
	if settlement.Status == "" {
		settlement.Status = models.SettlementPending
	}

	var note interface{} = nil
	if settlement.Note != "" {
		note = settlement.Note
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO settlements (id, scope_id, from_id, to_id, amount, status, note, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		settlement.ID, settlement.ScopeID, settlement.FromID, settlement.ToID,
		settlement.Amount, string(settlement.Status), note, settlement.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert settlement: %w", err)
	}

	return nil
}

// GetSettlement retrieves a settlement by ID.
func (s *SQLiteStore) GetSettlement(ctx context.Context, settlementID string) (*models.Settlement, error) {
	settlement := &models.Settlement{}
	var status string
	var note sql.NullString

	err := s.db.QueryRowContext(ctx,
		`SELECT id, scope_id, from_id, to_id, amount, status, note, created_at
		 FROM settlements WHERE id = ?`,
		settlementID,
	).Scan(&settlement.ID, &settlement.ScopeID, &settlement.FromID, &settlement.ToID,
		&settlement.Amount, &status, &note, &settlement.CreatedAt)

	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("settlement %s: %w", settlementID, storage.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get settlement: %w", err)
	}

	settlement.Status = models.SettlementStatus(status)
	if note.Valid {
		settlement.Note = note.String
	}

	return settlement, nil
}

// SetSettlementStatus updates a settlement's lifecycle state. The amount
// column is never touched; corrections are new records.
func (s *SQLiteStore) SetSettlementStatus(ctx context.Context, settlementID string, status models.SettlementStatus) error {
	res, err := s.db.ExecContext(ctx,
		"UPDATE settlements SET status = ? WHERE id = ?",
		string(status), settlementID,
	)
	if err != nil {
		return fmt.Errorf("failed to update settlement status: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check updated rows: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("settlement %s: %w", settlementID, storage.ErrNotFound)
	}
	return nil
}

// ListSettlementsByScope retrieves a scope's settlements, newest first.
// An empty status matches all statuses.
func (s *SQLiteStore) ListSettlementsByScope(ctx context.Context, scopeID string, status models.SettlementStatus) ([]*models.Settlement, error) {
	query := `SELECT id, scope_id, from_id, to_id, amount, status, note, created_at
		 FROM settlements WHERE scope_id = ?`
	args := []any{scopeID}
	if status != "" {
		query += " AND status = ?"
		args = append(args, string(status))
	}
	query += " ORDER BY created_at DESC, id"

	return s.listSettlements(ctx, query, args...)
}

// ListSettlementsByMembers retrieves settlements across every scope where
// any given member is payer or receiver. An empty status matches all
// statuses.
func (s *SQLiteStore) ListSettlementsByMembers(ctx context.Context, memberIDs []string, status models.SettlementStatus) ([]*models.Settlement, error) {
	if len(memberIDs) == 0 {
		return nil, nil
	}

	placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(memberIDs)), ", ")
	query := fmt.Sprintf(
		`SELECT id, scope_id, from_id, to_id, amount, status, note, created_at
		 FROM settlements WHERE (from_id IN (%[1]s) OR to_id IN (%[1]s))`,
		placeholders,
	)
	args := make([]any, 0, 2*len(memberIDs)+1)
	for range 2 {
		for _, id := range memberIDs {
			args = append(args, id)
		}
	}
	if status != "" {
		query += " AND status = ?"
		args = append(args, string(status))
	}
	query += " ORDER BY created_at DESC, id"

	return s.listSettlements(ctx, query, args...)
}

func (s *SQLiteStore) listSettlements(ctx context.Context, query string, args ...any) ([]*models.Settlement, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list settlements: %w", err)
	}
	defer rows.Close()

	var settlements []*models.Settlement
	for rows.Next() {
		settlement := &models.Settlement{}
		var status string
		var note sql.NullString

		if err := rows.Scan(&settlement.ID, &settlement.ScopeID, &settlement.FromID, &settlement.ToID,
			&settlement.Amount, &status, &note, &settlement.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan settlement: %w", err)
		}

		settlement.Status = models.SettlementStatus(status)
		if note.Valid {
			settlement.Note = note.String
		}
		settlements = append(settlements, settlement)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate settlements: %w", err)
	}

	return settlements, nil
}
