package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/splitledger/splitledger/internal/models"
	"github.com/splitledger/splitledger/internal/money"
	"github.com/splitledger/splitledger/internal/storage"
)

// CreateScope persists a new scope and its members.
func (s *SQLiteStore) CreateScope(ctx context.Context, scope *models.Scope) error {
	if scope.ID == "" {
		scope.ID = uuid.New().String()
	}
	if scope.CreatedAt == 0 {
		scope.CreatedAt = time.Now().Unix()
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		"INSERT INTO scopes (id, name, created_at) VALUES (?, ?, ?)",
		scope.ID, scope.Name, scope.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert scope: %w", err)
	}

	for _, memberID := range scope.Members {
		_, err = tx.ExecContext(ctx,
			"INSERT INTO scope_members (scope_id, member_id) VALUES (?, ?)",
			scope.ID, memberID,
		)
		if err != nil {
			return fmt.Errorf("failed to insert scope member: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

// GetScope retrieves a scope by ID, including its members.
func (s *SQLiteStore) GetScope(ctx context.Context, scopeID string) (*models.Scope, error) {
	scope := &models.Scope{}
	err := s.db.QueryRowContext(ctx,
		"SELECT id, name, created_at FROM scopes WHERE id = ?",
		scopeID,
	).Scan(&scope.ID, &scope.Name, &scope.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("scope %s: %w", scopeID, storage.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get scope: %w", err)
	}

	rows, err := s.db.QueryContext(ctx,
		"SELECT member_id FROM scope_members WHERE scope_id = ? ORDER BY member_id",
		scopeID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to get scope members: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var memberID string
		if err := rows.Scan(&memberID); err != nil {
			return nil, fmt.Errorf("failed to scan scope member: %w", err)
		}
		scope.Members = append(scope.Members, memberID)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate scope members: %w", err)
	}

	return scope, nil
}

// AddScopeMembers adds members to a scope, skipping ones already present.
func (s *SQLiteStore) AddScopeMembers(ctx context.Context, scopeID string, memberIDs []string) error {
	if err := s.scopeExists(ctx, scopeID); err != nil {
		return err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	for _, memberID := range memberIDs {
		_, err = tx.ExecContext(ctx,
			"INSERT OR IGNORE INTO scope_members (scope_id, member_id) VALUES (?, ?)",
			scopeID, memberID,
		)
		if err != nil {
			return fmt.Errorf("failed to insert scope member: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

// RemoveMemberFromScope removes a member and rewrites affected splits in one
// transaction so a reader never observes a partially rewritten state.
//
// The member's split rows are deleted everywhere in the scope. Non-deleted
// equal-policy expenses they participated in get their remaining splits
// recomputed from the original total (not from the leftover splits, which
// would compound rounding), preserving the stored split order so the spare
// units land on the same members every time. An equal-policy expense whose
// only participant was the removed member is soft-deleted: with nobody left
// owing a share it can no longer balance. Custom and percentage splits are
// left untouched for the remaining members.
func (s *SQLiteStore) RemoveMemberFromScope(ctx context.Context, scopeID, memberID string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx,
		"DELETE FROM scope_members WHERE scope_id = ? AND member_id = ?",
		scopeID, memberID,
	)
	if err != nil {
		return fmt.Errorf("failed to remove scope member: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check removed rows: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("member %s in scope %s: %w", memberID, scopeID, storage.ErrNotFound)
	}

	// Collect the non-deleted equal-policy expenses the member owes a share
	// of; these are the only ones whose splits get recomputed.
	rows, err := tx.QueryContext(ctx,
		`SELECT e.id, e.total_amount
		 FROM expenses e
		 JOIN splits sp ON sp.expense_id = e.id
		 WHERE e.scope_id = ? AND e.deleted = 0 AND e.policy = ? AND sp.member_id = ?`,
		scopeID, string(models.SplitEqual), memberID,
	)
	if err != nil {
		return fmt.Errorf("failed to find affected expenses: %w", err)
	}

	type affectedExpense struct {
		id    string
		total int64
	}
	var recompute []affectedExpense
	for rows.Next() {
		var exp affectedExpense
		if err := rows.Scan(&exp.id, &exp.total); err != nil {
			rows.Close()
			return fmt.Errorf("failed to scan affected expense: %w", err)
		}
		recompute = append(recompute, exp)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return fmt.Errorf("failed to iterate affected expenses: %w", err)
	}

	// Drop every split the member holds in this scope, equal-policy or not.
	_, err = tx.ExecContext(ctx,
		`DELETE FROM splits WHERE member_id = ? AND expense_id IN
		 (SELECT id FROM expenses WHERE scope_id = ?)`,
		memberID, scopeID,
	)
	if err != nil {
		return fmt.Errorf("failed to delete member splits: %w", err)
	}

	for _, exp := range recompute {
		if err := redistributeSplits(ctx, tx, exp.id, exp.total); err != nil {
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

// redistributeSplits rewrites an equal-policy expense's splits over its
// remaining members, dividing the original total. Runs inside the removal
// transaction.
func redistributeSplits(ctx context.Context, tx *sql.Tx, expenseID string, total int64) error {
	rows, err := tx.QueryContext(ctx,
		"SELECT member_id FROM splits WHERE expense_id = ? ORDER BY rowid",
		expenseID,
	)
	if err != nil {
		return fmt.Errorf("failed to get remaining splits: %w", err)
	}

	var remaining []string
	for rows.Next() {
		var memberID string
		if err := rows.Scan(&memberID); err != nil {
			rows.Close()
			return fmt.Errorf("failed to scan remaining split: %w", err)
		}
		remaining = append(remaining, memberID)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return fmt.Errorf("failed to iterate remaining splits: %w", err)
	}

	if len(remaining) == 0 {
		// Nobody left to owe the expense; exclude it from aggregation.
		if _, err := tx.ExecContext(ctx,
			"UPDATE expenses SET deleted = 1 WHERE id = ?", expenseID,
		); err != nil {
			return fmt.Errorf("failed to soft-delete orphaned expense: %w", err)
		}
		return nil
	}

	amounts, err := money.DistributeEqually(total, len(remaining))
	if err != nil {
		return fmt.Errorf("failed to redistribute expense %s: %w", expenseID, err)
	}

	for i, memberID := range remaining {
		if _, err := tx.ExecContext(ctx,
			"UPDATE splits SET amount = ? WHERE expense_id = ? AND member_id = ?",
			amounts[i], expenseID, memberID,
		); err != nil {
			return fmt.Errorf("failed to update split: %w", err)
		}
	}

	return nil
}

// scopeExists reports ErrNotFound if the scope is missing.
func (s *SQLiteStore) scopeExists(ctx context.Context, scopeID string) error {
	var one int
	err := s.db.QueryRowContext(ctx, "SELECT 1 FROM scopes WHERE id = ?", scopeID).Scan(&one)
	if err == sql.ErrNoRows {
		return fmt.Errorf("scope %s: %w", scopeID, storage.ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("failed to check scope existence: %w", err)
	}
	return nil
}
