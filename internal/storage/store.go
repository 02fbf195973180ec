// Package storage provides abstractions for persistent ledger data.
package storage

import (
	"context"
	"errors"

	"github.com/splitledger/splitledger/internal/models"
)

// ErrNotFound is returned when a requested record does not exist.
// Implementations wrap it with the record's identity.
var ErrNotFound = errors.New("not found")

// Store defines the interface for ledger storage operations. This
// abstraction allows swapping storage backends (SQLite, PostgreSQL, etc.)
// without changing the service layer.
//
// Balances and transfers are never stored; the store only holds the raw
// expenses, splits, and settlements they are derived from.
type Store interface {
	// CreateScope persists a new scope with its member list.
	// The scope.ID and CreatedAt fields are populated by the store.
	CreateScope(ctx context.Context, scope *models.Scope) error

	// GetScope retrieves a scope by ID, members included.
	GetScope(ctx context.Context, scopeID string) (*models.Scope, error)

	// AddScopeMembers adds members to a scope, ignoring ones already present.
	AddScopeMembers(ctx context.Context, scopeID string, memberIDs []string) error

	// RemoveMemberFromScope removes a member and rewrites affected splits in
	// a single transaction: the member's split rows are deleted, and every
	// non-deleted equal-policy expense they participated in has its
	// remaining splits recomputed from the original total. Custom and
	// percentage splits are left untouched. A reader never observes a
	// partially rewritten state.
	RemoveMemberFromScope(ctx context.Context, scopeID, memberID string) error

	// CreateExpense persists a new expense with its splits atomically.
	// The expense.ID and CreatedAt fields are populated by the store.
	CreateExpense(ctx context.Context, expense *models.Expense) error

	// GetExpense retrieves an expense by ID, splits included.
	// Soft-deleted expenses are still retrievable by ID.
	GetExpense(ctx context.Context, expenseID string) (*models.Expense, error)

	// UpdateExpense replaces an expense's fields and splits atomically.
	UpdateExpense(ctx context.Context, expense *models.Expense) error

	// DeleteExpense soft-deletes an expense, excluding it from listings.
	// Rows are kept so recorded history stays auditable.
	DeleteExpense(ctx context.Context, expenseID string) error

	// ListExpensesByScope retrieves all non-deleted expenses in a scope,
	// splits included.
	ListExpensesByScope(ctx context.Context, scopeID string) ([]*models.Expense, error)

	// ListExpensesByMembers retrieves all non-deleted expenses, across every
	// scope, that any of the given members paid or owe a share of.
	ListExpensesByMembers(ctx context.Context, memberIDs []string) ([]*models.Expense, error)

	// CreateSettlement persists a new settlement.
	// The settlement.ID and CreatedAt fields are populated by the store.
	CreateSettlement(ctx context.Context, settlement *models.Settlement) error

	// GetSettlement retrieves a settlement by ID.
	GetSettlement(ctx context.Context, settlementID string) (*models.Settlement, error)

	// SetSettlementStatus updates a settlement's lifecycle state. Amounts
	// are immutable; corrections are new settlement records.
	SetSettlementStatus(ctx context.Context, settlementID string, status models.SettlementStatus) error

	// ListSettlementsByScope retrieves a scope's settlements, newest first.
	// An empty status matches all statuses.
	ListSettlementsByScope(ctx context.Context, scopeID string, status models.SettlementStatus) ([]*models.Settlement, error)

	// ListSettlementsByMembers retrieves settlements, across every scope,
	// where any of the given members is the payer or receiver. An empty
	// status matches all statuses.
	ListSettlementsByMembers(ctx context.Context, memberIDs []string, status models.SettlementStatus) ([]*models.Settlement, error)

	// Close releases any resources held by the store.
	Close() error
}
