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

// CreateExpense persists a new expense and its splits atomically.
func (s *SQLiteStore) CreateExpense(ctx context.Context, expense *models.Expense) error {
	if expense.ID == "" {
		expense.ID = uuid.New().String()
	}
	if expense.CreatedAt == 0 {
		expense.CreatedAt = time.Now().Unix()
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO expenses (id, scope_id, payer_id, description, total_amount, policy, deleted, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		expense.ID, expense.ScopeID, expense.PayerID, expense.Description,
		expense.TotalAmount, string(expense.Policy), boolToInt(expense.Deleted), expense.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert expense: %w", err)
	}

	if err := insertSplits(ctx, tx, expense); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

// GetExpense retrieves an expense by ID, including its splits.
func (s *SQLiteStore) GetExpense(ctx context.Context, expenseID string) (*models.Expense, error) {
	expense := &models.Expense{}
	var policy string
	var deleted int
	err := s.db.QueryRowContext(ctx,
		`SELECT id, scope_id, payer_id, description, total_amount, policy, deleted, created_at
		 FROM expenses WHERE id = ?`,
		expenseID,
	).Scan(&expense.ID, &expense.ScopeID, &expense.PayerID, &expense.Description,
		&expense.TotalAmount, &policy, &deleted, &expense.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("expense %s: %w", expenseID, storage.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get expense: %w", err)
	}
	expense.Policy = models.SplitPolicy(policy)
	expense.Deleted = deleted != 0

	if err := s.loadSplits(ctx, expense); err != nil {
		return nil, err
	}

	return expense, nil
}

// UpdateExpense replaces an expense's fields and splits atomically.
func (s *SQLiteStore) UpdateExpense(ctx context.Context, expense *models.Expense) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx,
		`UPDATE expenses SET payer_id = ?, description = ?, total_amount = ?, policy = ?
		 WHERE id = ? AND deleted = 0`,
		expense.PayerID, expense.Description, expense.TotalAmount, string(expense.Policy),
		expense.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update expense: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check updated rows: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("expense %s: %w", expense.ID, storage.ErrNotFound)
	}

	// Splits are rewritten wholesale; edits recompute them from scratch.
	_, err = tx.ExecContext(ctx, "DELETE FROM splits WHERE expense_id = ?", expense.ID)
	if err != nil {
		return fmt.Errorf("failed to delete old splits: %w", err)
	}
	if err := insertSplits(ctx, tx, expense); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

// DeleteExpense soft-deletes an expense so it drops out of aggregation while
// its rows remain for history.
func (s *SQLiteStore) DeleteExpense(ctx context.Context, expenseID string) error {
	res, err := s.db.ExecContext(ctx,
		"UPDATE expenses SET deleted = 1 WHERE id = ? AND deleted = 0", expenseID,
	)
	if err != nil {
		return fmt.Errorf("failed to delete expense: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check deleted rows: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("expense %s: %w", expenseID, storage.ErrNotFound)
	}
	return nil
}

// ListExpensesByScope retrieves all non-deleted expenses in a scope.
func (s *SQLiteStore) ListExpensesByScope(ctx context.Context, scopeID string) ([]*models.Expense, error) {
	return s.listExpenses(ctx,
		`SELECT id, scope_id, payer_id, description, total_amount, policy, deleted, created_at
		 FROM expenses WHERE scope_id = ? AND deleted = 0 ORDER BY created_at, id`,
		scopeID,
	)
}

// ListExpensesByMembers retrieves all non-deleted expenses, across every
// scope, that any of the given members paid or owe a share of.
func (s *SQLiteStore) ListExpensesByMembers(ctx context.Context, memberIDs []string) ([]*models.Expense, error) {
	if len(memberIDs) == 0 {
		return nil, nil
	}

	placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(memberIDs)), ", ")
	query := fmt.Sprintf(
		`SELECT DISTINCT e.id, e.scope_id, e.payer_id, e.description, e.total_amount, e.policy, e.deleted, e.created_at
		 FROM expenses e
		 LEFT JOIN splits sp ON sp.expense_id = e.id
		 WHERE e.deleted = 0 AND (e.payer_id IN (%[1]s) OR sp.member_id IN (%[1]s))
		 ORDER BY e.created_at, e.id`,
		placeholders,
	)

	args := make([]any, 0, 2*len(memberIDs))
	for range 2 {
		for _, id := range memberIDs {
			args = append(args, id)
		}
	}

	return s.listExpenses(ctx, query, args...)
}

// listExpenses runs an expense query and loads splits for each row.
func (s *SQLiteStore) listExpenses(ctx context.Context, query string, args ...any) ([]*models.Expense, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list expenses: %w", err)
	}
	defer rows.Close()

	var expenses []*models.Expense
	for rows.Next() {
		expense := &models.Expense{}
		var policy string
		var deleted int
		if err := rows.Scan(&expense.ID, &expense.ScopeID, &expense.PayerID, &expense.Description,
			&expense.TotalAmount, &policy, &deleted, &expense.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan expense: %w", err)
		}
		expense.Policy = models.SplitPolicy(policy)
		expense.Deleted = deleted != 0
		expenses = append(expenses, expense)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate expenses: %w", err)
	}

	for _, expense := range expenses {
		if err := s.loadSplits(ctx, expense); err != nil {
			return nil, err
		}
	}

	return expenses, nil
}

// loadSplits fills an expense's splits in stored order.
func (s *SQLiteStore) loadSplits(ctx context.Context, expense *models.Expense) error {
	rows, err := s.db.QueryContext(ctx,
		"SELECT expense_id, member_id, amount FROM splits WHERE expense_id = ? ORDER BY rowid",
		expense.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to get splits: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var split models.Split
		if err := rows.Scan(&split.ExpenseID, &split.MemberID, &split.Amount); err != nil {
			return fmt.Errorf("failed to scan split: %w", err)
		}
		expense.Splits = append(expense.Splits, split)
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("failed to iterate splits: %w", err)
	}

	return nil
}

// insertSplits writes an expense's splits inside an open transaction,
// preserving slice order so later reads see the same ordering.
func insertSplits(ctx context.Context, tx *sql.Tx, expense *models.Expense) error {
	for i := range expense.Splits {
		split := &expense.Splits[i]
		split.ExpenseID = expense.ID
		_, err := tx.ExecContext(ctx,
			"INSERT INTO splits (expense_id, member_id, amount) VALUES (?, ?, ?)",
			split.ExpenseID, split.MemberID, split.Amount,
		)
		if err != nil {
			return fmt.Errorf("failed to insert split: %w", err)
		}
	}
	return nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
