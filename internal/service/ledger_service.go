// Package service implements the application operations over the store and
// the computation engine: expense and settlement lifecycle, member removal,
// and the derived balance and transfer views.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/splitledger/splitledger/internal/engine"
	"github.com/splitledger/splitledger/internal/models"
	"github.com/splitledger/splitledger/internal/money"
	"github.com/splitledger/splitledger/internal/storage"
)

// ErrInvalidInput marks a request the caller must fix (bad amounts, unknown
// members, malformed splits). The HTTP layer maps it to 400.
var ErrInvalidInput = errors.New("invalid input")

// LedgerService coordinates the store and the engine. Balances and transfers
// are recomputed from the store on every read; the service holds no state of
// its own.
type LedgerService struct {
	store storage.Store
}

// NewLedgerService creates a LedgerService with the given storage backend.
func NewLedgerService(store storage.Store) *LedgerService {
	return &LedgerService{store: store}
}

// SplitShare is one member's explicit share in a custom or percentage
// expense. Order is preserved into storage.
type SplitShare struct {
	MemberID string
	Amount   int64
}

// ExpenseInput describes an expense to log or an edit to apply.
//
// For SplitEqual, Participants lists who shares the expense, in the order
// that decides where the spare minor units land. For SplitCustom and
// SplitPercentage, Shares carries the resolved per-member amounts and must
// sum exactly to TotalAmount.
type ExpenseInput struct {
	ScopeID      string
	PayerID      string
	Description  string
	TotalAmount  int64
	Policy       models.SplitPolicy
	Participants []string
	Shares       []SplitShare
}

// SettlementInput describes a payment to record.
type SettlementInput struct {
	ScopeID string
	FromID  string
	ToID    string
	Amount  int64
	Note    string

	// Completed records the settlement as already paid. Otherwise it is
	// pending and does not move balances until confirmed.
	Completed bool
}

// CreateScope creates a scope with a deduplicated member list.
func (s *LedgerService) CreateScope(ctx context.Context, name string, memberIDs []string) (*models.Scope, error) {
	if name == "" {
		return nil, fmt.Errorf("%w: scope name required", ErrInvalidInput)
	}
	members, err := dedupeMembers(memberIDs)
	if err != nil {
		return nil, err
	}

	scope := &models.Scope{Name: name, Members: members}
	if err := s.store.CreateScope(ctx, scope); err != nil {
		slog.Error("CreateScope failed", "name", name, "error", err)
		return nil, err
	}

	slog.Info("Scope created", "scope_id", scope.ID, "members", len(scope.Members))
	return scope, nil
}

// GetScope retrieves a scope with its members.
func (s *LedgerService) GetScope(ctx context.Context, scopeID string) (*models.Scope, error) {
	return s.store.GetScope(ctx, scopeID)
}

// AddMembers adds members to a scope.
func (s *LedgerService) AddMembers(ctx context.Context, scopeID string, memberIDs []string) error {
	members, err := dedupeMembers(memberIDs)
	if err != nil {
		return err
	}
	if err := s.store.AddScopeMembers(ctx, scopeID, members); err != nil {
		slog.Error("AddMembers failed", "scope_id", scopeID, "error", err)
		return err
	}
	slog.Info("Members added", "scope_id", scopeID, "count", len(members))
	return nil
}

// RemoveMember removes a member from a scope and rebalances their splits.
// The store performs the whole rewrite atomically.
func (s *LedgerService) RemoveMember(ctx context.Context, scopeID, memberID string) error {
	if memberID == "" {
		return fmt.Errorf("%w: member id required", ErrInvalidInput)
	}
	if err := s.store.RemoveMemberFromScope(ctx, scopeID, memberID); err != nil {
		slog.Error("RemoveMember failed", "scope_id", scopeID, "member_id", memberID, "error", err)
		return err
	}
	slog.Info("Member removed", "scope_id", scopeID, "member_id", memberID)
	return nil
}

// LogExpense validates and persists a new expense with its computed splits.
func (s *LedgerService) LogExpense(ctx context.Context, in ExpenseInput) (*models.Expense, error) {
	scope, err := s.store.GetScope(ctx, in.ScopeID)
	if err != nil {
		return nil, err
	}

	expense, err := buildExpense(scope, in)
	if err != nil {
		slog.Warn("LogExpense rejected", "scope_id", in.ScopeID, "error", err)
		return nil, err
	}

	if err := s.store.CreateExpense(ctx, expense); err != nil {
		slog.Error("LogExpense failed", "scope_id", in.ScopeID, "error", err)
		return nil, err
	}

	slog.Info("Expense logged",
		"expense_id", expense.ID,
		"scope_id", expense.ScopeID,
		"payer_id", expense.PayerID,
		"total", expense.TotalAmount,
		"policy", expense.Policy,
	)
	return expense, nil
}

// GetExpense retrieves an expense with its splits. Soft-deleted expenses
// read as not found.
func (s *LedgerService) GetExpense(ctx context.Context, expenseID string) (*models.Expense, error) {
	expense, err := s.store.GetExpense(ctx, expenseID)
	if err != nil {
		return nil, err
	}
	if expense.Deleted {
		return nil, fmt.Errorf("expense %s: %w", expenseID, storage.ErrNotFound)
	}
	return expense, nil
}

// UpdateExpense re-validates and rewrites an expense's fields and splits.
// The scope cannot change; balances simply recompute on the next read.
func (s *LedgerService) UpdateExpense(ctx context.Context, expenseID string, in ExpenseInput) (*models.Expense, error) {
	existing, err := s.store.GetExpense(ctx, expenseID)
	if err != nil {
		return nil, err
	}
	if existing.Deleted {
		return nil, fmt.Errorf("expense %s: %w", expenseID, storage.ErrNotFound)
	}

	in.ScopeID = existing.ScopeID
	scope, err := s.store.GetScope(ctx, existing.ScopeID)
	if err != nil {
		return nil, err
	}

	expense, err := buildExpense(scope, in)
	if err != nil {
		slog.Warn("UpdateExpense rejected", "expense_id", expenseID, "error", err)
		return nil, err
	}
	expense.ID = existing.ID
	expense.CreatedAt = existing.CreatedAt
	for i := range expense.Splits {
		expense.Splits[i].ExpenseID = expense.ID
	}

	if err := s.store.UpdateExpense(ctx, expense); err != nil {
		slog.Error("UpdateExpense failed", "expense_id", expenseID, "error", err)
		return nil, err
	}

	slog.Info("Expense updated", "expense_id", expense.ID, "total", expense.TotalAmount)
	return expense, nil
}

// RemoveExpense soft-deletes an expense; the next read recomputes without it.
func (s *LedgerService) RemoveExpense(ctx context.Context, expenseID string) error {
	if err := s.store.DeleteExpense(ctx, expenseID); err != nil {
		slog.Error("RemoveExpense failed", "expense_id", expenseID, "error", err)
		return err
	}
	slog.Info("Expense removed", "expense_id", expenseID)
	return nil
}

// RecordSettlement validates and persists a payment record.
func (s *LedgerService) RecordSettlement(ctx context.Context, in SettlementInput) (*models.Settlement, error) {
	if in.Amount <= 0 {
		return nil, fmt.Errorf("%w: settlement amount must be positive", ErrInvalidInput)
	}
	if in.FromID == "" || in.ToID == "" {
		return nil, fmt.Errorf("%w: settlement requires both members", ErrInvalidInput)
	}
	if in.FromID == in.ToID {
		return nil, fmt.Errorf("%w: cannot settle with yourself", ErrInvalidInput)
	}

	scope, err := s.store.GetScope(ctx, in.ScopeID)
	if err != nil {
		return nil, err
	}
	for _, id := range []string{in.FromID, in.ToID} {
		if !isMember(id, scope.Members) {
			return nil, fmt.Errorf("%w: member %s is not in scope %s", ErrInvalidInput, id, scope.ID)
		}
	}

	status := models.SettlementPending
	if in.Completed {
		status = models.SettlementCompleted
	}
	settlement := &models.Settlement{
		ScopeID: in.ScopeID,
		FromID:  in.FromID,
		ToID:    in.ToID,
		Amount:  in.Amount,
		Status:  status,
		Note:    in.Note,
	}

	if err := s.store.CreateSettlement(ctx, settlement); err != nil {
		slog.Error("RecordSettlement failed", "scope_id", in.ScopeID, "error", err)
		return nil, err
	}

	slog.Info("Settlement recorded",
		"settlement_id", settlement.ID,
		"scope_id", settlement.ScopeID,
		"from", settlement.FromID,
		"to", settlement.ToID,
		"amount", settlement.Amount,
		"status", settlement.Status,
	)
	return settlement, nil
}

// CompleteSettlement confirms a pending settlement so it starts counting
// toward balances.
func (s *LedgerService) CompleteSettlement(ctx context.Context, settlementID string) (*models.Settlement, error) {
	return s.transitionSettlement(ctx, settlementID, models.SettlementCompleted)
}

// CancelSettlement withdraws a pending settlement.
func (s *LedgerService) CancelSettlement(ctx context.Context, settlementID string) (*models.Settlement, error) {
	return s.transitionSettlement(ctx, settlementID, models.SettlementCancelled)
}

func (s *LedgerService) transitionSettlement(ctx context.Context, settlementID string, to models.SettlementStatus) (*models.Settlement, error) {
	settlement, err := s.store.GetSettlement(ctx, settlementID)
	if err != nil {
		return nil, err
	}
	if settlement.Status != models.SettlementPending {
		return nil, fmt.Errorf("%w: settlement %s is already %s", ErrInvalidInput, settlementID, settlement.Status)
	}

	if err := s.store.SetSettlementStatus(ctx, settlementID, to); err != nil {
		slog.Error("Settlement transition failed", "settlement_id", settlementID, "to", to, "error", err)
		return nil, err
	}
	settlement.Status = to

	slog.Info("Settlement transitioned", "settlement_id", settlementID, "status", to)
	return settlement, nil
}

// Balances computes the net balance per member for a scope. Positive means
// the member is owed money.
func (s *LedgerService) Balances(ctx context.Context, scopeID string) (map[string]int64, error) {
	members, expenses, settlements, err := s.scopeSnapshot(ctx, scopeID)
	if err != nil {
		return nil, err
	}
	return engine.Balances(members, expenses, settlements), nil
}

// ScopedTransfers suggests a short list of payments that settles a scope,
// via greedy multi-party netting. May route a debt through an intermediary;
// see GlobalTransfers for the raw pairwise view.
func (s *LedgerService) ScopedTransfers(ctx context.Context, scopeID string) ([]engine.Transfer, error) {
	members, expenses, settlements, err := s.scopeSnapshot(ctx, scopeID)
	if err != nil {
		return nil, err
	}
	return engine.SettleBalances(engine.Balances(members, expenses, settlements)), nil
}

// GlobalTransfers computes the net amount owed between every pair of the
// given members across all scopes they share. At most one transfer per pair;
// bilateral truth, never rerouted.
func (s *LedgerService) GlobalTransfers(ctx context.Context, memberIDs []string) ([]engine.Transfer, error) {
	members, err := dedupeMembers(memberIDs)
	if err != nil {
		return nil, err
	}

	expenses, err := s.store.ListExpensesByMembers(ctx, members)
	if err != nil {
		return nil, err
	}
	settlements, err := s.store.ListSettlementsByMembers(ctx, members, models.SettlementCompleted)
	if err != nil {
		return nil, err
	}

	// Restrict to pairs inside the requested set; expenses may also involve
	// members the caller did not ask about.
	inSet := make(map[string]bool, len(members))
	for _, m := range members {
		inSet[m] = true
	}
	transfers := engine.PairwiseTransfers(expenses, settlements)
	filtered := transfers[:0]
	for _, tr := range transfers {
		if inSet[tr.From] && inSet[tr.To] {
			filtered = append(filtered, tr)
		}
	}
	if len(filtered) == 0 {
		return nil, nil
	}
	return filtered, nil
}

// scopeSnapshot loads everything a per-scope computation needs.
func (s *LedgerService) scopeSnapshot(ctx context.Context, scopeID string) ([]string, []*models.Expense, []*models.Settlement, error) {
	scope, err := s.store.GetScope(ctx, scopeID)
	if err != nil {
		return nil, nil, nil, err
	}
	expenses, err := s.store.ListExpensesByScope(ctx, scopeID)
	if err != nil {
		return nil, nil, nil, err
	}
	settlements, err := s.store.ListSettlementsByScope(ctx, scopeID, models.SettlementCompleted)
	if err != nil {
		return nil, nil, nil, err
	}
	return scope.Members, expenses, settlements, nil
}

// buildExpense validates input against the scope and computes splits.
func buildExpense(scope *models.Scope, in ExpenseInput) (*models.Expense, error) {
	if in.TotalAmount <= 0 {
		return nil, fmt.Errorf("%w: total amount must be positive", ErrInvalidInput)
	}
	if in.PayerID == "" {
		return nil, fmt.Errorf("%w: payer required", ErrInvalidInput)
	}
	if !isMember(in.PayerID, scope.Members) {
		return nil, fmt.Errorf("%w: payer %s is not in scope %s", ErrInvalidInput, in.PayerID, scope.ID)
	}

	expense := &models.Expense{
		ScopeID:     scope.ID,
		PayerID:     in.PayerID,
		Description: in.Description,
		TotalAmount: in.TotalAmount,
		Policy:      in.Policy,
	}

	switch in.Policy {
	case models.SplitEqual:
		if len(in.Participants) == 0 {
			return nil, fmt.Errorf("%w: equal split requires participants", ErrInvalidInput)
		}
		seen := make(map[string]bool, len(in.Participants))
		for _, id := range in.Participants {
			if !isMember(id, scope.Members) {
				return nil, fmt.Errorf("%w: participant %s is not in scope %s", ErrInvalidInput, id, scope.ID)
			}
			if seen[id] {
				return nil, fmt.Errorf("%w: participant %s listed twice", ErrInvalidInput, id)
			}
			seen[id] = true
		}
		amounts, err := money.DistributeEqually(in.TotalAmount, len(in.Participants))
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
		}
		for i, id := range in.Participants {
			expense.Splits = append(expense.Splits, models.Split{MemberID: id, Amount: amounts[i]})
		}

	case models.SplitCustom, models.SplitPercentage:
		if len(in.Shares) == 0 {
			return nil, fmt.Errorf("%w: %s split requires shares", ErrInvalidInput, in.Policy)
		}
		var sum int64
		seen := make(map[string]bool, len(in.Shares))
		for _, share := range in.Shares {
			if !isMember(share.MemberID, scope.Members) {
				return nil, fmt.Errorf("%w: participant %s is not in scope %s", ErrInvalidInput, share.MemberID, scope.ID)
			}
			if seen[share.MemberID] {
				return nil, fmt.Errorf("%w: participant %s listed twice", ErrInvalidInput, share.MemberID)
			}
			seen[share.MemberID] = true
			if share.Amount < 0 {
				return nil, fmt.Errorf("%w: share for %s is negative", ErrInvalidInput, share.MemberID)
			}
			sum += share.Amount
			expense.Splits = append(expense.Splits, models.Split{MemberID: share.MemberID, Amount: share.Amount})
		}
		if sum != in.TotalAmount {
			return nil, fmt.Errorf("%w: shares sum to %d, total is %d", ErrInvalidInput, sum, in.TotalAmount)
		}

	default:
		return nil, fmt.Errorf("%w: unknown split policy %q", ErrInvalidInput, in.Policy)
	}

	return expense, nil
}

func isMember(id string, members []string) bool {
	for _, m := range members {
		if m == id {
			return true
		}
	}
	return false
}

func dedupeMembers(memberIDs []string) ([]string, error) {
	if len(memberIDs) == 0 {
		return nil, fmt.Errorf("%w: at least one member required", ErrInvalidInput)
	}
	seen := make(map[string]bool, len(memberIDs))
	var out []string
	for _, id := range memberIDs {
		if id == "" {
			return nil, fmt.Errorf("%w: empty member id", ErrInvalidInput)
		}
		if !seen[id] {
			seen[id] = true
			out = append(out, id)
		}
	}
	return out, nil
}
