package service

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/splitledger/splitledger/internal/models"
	"github.com/splitledger/splitledger/internal/storage"
	"github.com/splitledger/splitledger/internal/storage/sqlite"
)

func newTestService(t *testing.T) *LedgerService {
	t.Helper()
	store, err := sqlite.New(filepath.Join(t.TempDir(), "ledger.db"))
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return NewLedgerService(store)
}

func newTripScope(t *testing.T, svc *LedgerService, members ...string) *models.Scope {
	t.Helper()
	scope, err := svc.CreateScope(context.Background(), "trip", members)
	if err != nil {
		t.Fatalf("CreateScope: %v", err)
	}
	return scope
}

func TestLogExpenseEqualSplit(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()
	scope := newTripScope(t, svc, "alice", "bob", "carol")

	expense, err := svc.LogExpense(ctx, ExpenseInput{
		ScopeID:      scope.ID,
		PayerID:      "alice",
		Description:  "dinner",
		TotalAmount:  1000,
		Policy:       models.SplitEqual,
		Participants: []string{"alice", "bob", "carol"},
	})
	if err != nil {
		t.Fatalf("LogExpense: %v", err)
	}

	want := []int64{334, 333, 333}
	if len(expense.Splits) != len(want) {
		t.Fatalf("got %d splits, want %d", len(expense.Splits), len(want))
	}
	for i, split := range expense.Splits {
		if split.Amount != want[i] {
			t.Errorf("split[%d] = %d, want %d", i, split.Amount, want[i])
		}
	}
}

func TestLogExpenseValidation(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()
	scope := newTripScope(t, svc, "alice", "bob")

	tests := []struct {
		name string
		in   ExpenseInput
	}{
		{
			name: "non-positive total",
			in: ExpenseInput{
				ScopeID: scope.ID, PayerID: "alice", TotalAmount: 0,
				Policy: models.SplitEqual, Participants: []string{"alice", "bob"},
			},
		},
		{
			name: "payer outside scope",
			in: ExpenseInput{
				ScopeID: scope.ID, PayerID: "mallory", TotalAmount: 100,
				Policy: models.SplitEqual, Participants: []string{"alice", "bob"},
			},
		},
		{
			name: "participant outside scope",
			in: ExpenseInput{
				ScopeID: scope.ID, PayerID: "alice", TotalAmount: 100,
				Policy: models.SplitEqual, Participants: []string{"alice", "mallory"},
			},
		},
		{
			name: "duplicate participant",
			in: ExpenseInput{
				ScopeID: scope.ID, PayerID: "alice", TotalAmount: 100,
				Policy: models.SplitEqual, Participants: []string{"bob", "bob"},
			},
		},
		{
			name: "equal split without participants",
			in: ExpenseInput{
				ScopeID: scope.ID, PayerID: "alice", TotalAmount: 100,
				Policy: models.SplitEqual,
			},
		},
		{
			name: "custom shares not summing to total",
			in: ExpenseInput{
				ScopeID: scope.ID, PayerID: "alice", TotalAmount: 100,
				Policy: models.SplitCustom,
				Shares: []SplitShare{{MemberID: "alice", Amount: 30}, {MemberID: "bob", Amount: 30}},
			},
		},
		{
			name: "negative share",
			in: ExpenseInput{
				ScopeID: scope.ID, PayerID: "alice", TotalAmount: 100,
				Policy: models.SplitCustom,
				Shares: []SplitShare{{MemberID: "alice", Amount: 150}, {MemberID: "bob", Amount: -50}},
			},
		},
		{
			name: "unknown policy",
			in: ExpenseInput{
				ScopeID: scope.ID, PayerID: "alice", TotalAmount: 100,
				Policy: models.SplitPolicy("random"), Participants: []string{"alice"},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := svc.LogExpense(ctx, tt.in); !errors.Is(err, ErrInvalidInput) {
				t.Errorf("LogExpense error = %v, want ErrInvalidInput", err)
			}
		})
	}
}

func TestBalancesSumToZero(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()
	scope := newTripScope(t, svc, "alice", "bob", "carol")

	inputs := []ExpenseInput{
		{
			ScopeID: scope.ID, PayerID: "alice", TotalAmount: 1000,
			Policy: models.SplitEqual, Participants: []string{"alice", "bob", "carol"},
		},
		{
			ScopeID: scope.ID, PayerID: "bob", TotalAmount: 700,
			Policy: models.SplitCustom,
			Shares: []SplitShare{{MemberID: "alice", Amount: 350}, {MemberID: "carol", Amount: 350}},
		},
	}
	for _, in := range inputs {
		if _, err := svc.LogExpense(ctx, in); err != nil {
			t.Fatalf("LogExpense: %v", err)
		}
	}

	balances, err := svc.Balances(ctx, scope.ID)
	if err != nil {
		t.Fatalf("Balances: %v", err)
	}
	var sum int64
	for _, bal := range balances {
		sum += bal
	}
	if sum != 0 {
		t.Errorf("balances sum to %d, want 0", sum)
	}
	if len(balances) != 3 {
		t.Errorf("got %d members in balances, want 3", len(balances))
	}
}

func TestScopedTransfersSettleScope(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()
	scope := newTripScope(t, svc, "alice", "bob", "carol")

	// alice fronts 900, everyone owes 300
	if _, err := svc.LogExpense(ctx, ExpenseInput{
		ScopeID: scope.ID, PayerID: "alice", TotalAmount: 900,
		Policy: models.SplitEqual, Participants: []string{"alice", "bob", "carol"},
	}); err != nil {
		t.Fatalf("LogExpense: %v", err)
	}

	transfers, err := svc.ScopedTransfers(ctx, scope.ID)
	if err != nil {
		t.Fatalf("ScopedTransfers: %v", err)
	}
	if len(transfers) != 2 {
		t.Fatalf("got %d transfers, want 2", len(transfers))
	}
	for _, tr := range transfers {
		if tr.To != "alice" || tr.Amount != 300 {
			t.Errorf("transfer %+v, want 300 to alice", tr)
		}
	}

	// bob pays up; his pair disappears from the suggestions
	if _, err := svc.RecordSettlement(ctx, SettlementInput{
		ScopeID: scope.ID, FromID: "bob", ToID: "alice", Amount: 300, Completed: true,
	}); err != nil {
		t.Fatalf("RecordSettlement: %v", err)
	}

	transfers, err = svc.ScopedTransfers(ctx, scope.ID)
	if err != nil {
		t.Fatalf("ScopedTransfers: %v", err)
	}
	if len(transfers) != 1 {
		t.Fatalf("got %d transfers after settlement, want 1", len(transfers))
	}
	if transfers[0].From != "carol" || transfers[0].To != "alice" || transfers[0].Amount != 300 {
		t.Errorf("remaining transfer = %+v, want carol->alice 300", transfers[0])
	}
}

func TestPendingSettlementDoesNotMoveBalances(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()
	scope := newTripScope(t, svc, "alice", "bob")

	if _, err := svc.LogExpense(ctx, ExpenseInput{
		ScopeID: scope.ID, PayerID: "alice", TotalAmount: 800,
		Policy: models.SplitEqual, Participants: []string{"alice", "bob"},
	}); err != nil {
		t.Fatalf("LogExpense: %v", err)
	}

	settlement, err := svc.RecordSettlement(ctx, SettlementInput{
		ScopeID: scope.ID, FromID: "bob", ToID: "alice", Amount: 400,
	})
	if err != nil {
		t.Fatalf("RecordSettlement: %v", err)
	}

	balances, err := svc.Balances(ctx, scope.ID)
	if err != nil {
		t.Fatalf("Balances: %v", err)
	}
	if balances["bob"] != -400 {
		t.Errorf("bob's balance with pending settlement = %d, want -400", balances["bob"])
	}

	if _, err := svc.CompleteSettlement(ctx, settlement.ID); err != nil {
		t.Fatalf("CompleteSettlement: %v", err)
	}

	balances, err = svc.Balances(ctx, scope.ID)
	if err != nil {
		t.Fatalf("Balances: %v", err)
	}
	if balances["bob"] != 0 || balances["alice"] != 0 {
		t.Errorf("balances after completion = %v, want all zero", balances)
	}
}

func TestSettlementTransitions(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()
	scope := newTripScope(t, svc, "alice", "bob")

	settlement, err := svc.RecordSettlement(ctx, SettlementInput{
		ScopeID: scope.ID, FromID: "bob", ToID: "alice", Amount: 100,
	})
	if err != nil {
		t.Fatalf("RecordSettlement: %v", err)
	}

	if _, err := svc.CancelSettlement(ctx, settlement.ID); err != nil {
		t.Fatalf("CancelSettlement: %v", err)
	}
	// Cancelled settlements cannot transition again.
	if _, err := svc.CompleteSettlement(ctx, settlement.ID); !errors.Is(err, ErrInvalidInput) {
		t.Errorf("CompleteSettlement after cancel error = %v, want ErrInvalidInput", err)
	}

	// Validation failures
	if _, err := svc.RecordSettlement(ctx, SettlementInput{
		ScopeID: scope.ID, FromID: "bob", ToID: "bob", Amount: 100,
	}); !errors.Is(err, ErrInvalidInput) {
		t.Errorf("self settlement error = %v, want ErrInvalidInput", err)
	}
	if _, err := svc.RecordSettlement(ctx, SettlementInput{
		ScopeID: scope.ID, FromID: "bob", ToID: "alice", Amount: 0,
	}); !errors.Is(err, ErrInvalidInput) {
		t.Errorf("zero amount error = %v, want ErrInvalidInput", err)
	}
	if _, err := svc.RecordSettlement(ctx, SettlementInput{
		ScopeID: scope.ID, FromID: "mallory", ToID: "alice", Amount: 100,
	}); !errors.Is(err, ErrInvalidInput) {
		t.Errorf("outsider settlement error = %v, want ErrInvalidInput", err)
	}
}

func TestGlobalTransfersAcrossScopes(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	goa := newTripScope(t, svc, "alice", "bob")
	manali := newTripScope(t, svc, "alice", "bob", "carol")

	// Two scopes, same pair: debts collapse into one net transfer.
	if _, err := svc.LogExpense(ctx, ExpenseInput{
		ScopeID: goa.ID, PayerID: "alice", TotalAmount: 1000,
		Policy: models.SplitEqual, Participants: []string{"alice", "bob"},
	}); err != nil {
		t.Fatalf("LogExpense: %v", err)
	}
	if _, err := svc.LogExpense(ctx, ExpenseInput{
		ScopeID: manali.ID, PayerID: "bob", TotalAmount: 300,
		Policy: models.SplitCustom,
		Shares: []SplitShare{{MemberID: "alice", Amount: 200}, {MemberID: "carol", Amount: 100}},
	}); err != nil {
		t.Fatalf("LogExpense: %v", err)
	}

	transfers, err := svc.GlobalTransfers(ctx, []string{"alice", "bob"})
	if err != nil {
		t.Fatalf("GlobalTransfers: %v", err)
	}
	// bob owes alice 500 from goa, alice owes bob 200 from manali: net 300.
	// carol's debt to bob is outside the requested pair and filtered out.
	if len(transfers) != 1 {
		t.Fatalf("got %d transfers, want 1", len(transfers))
	}
	if transfers[0].From != "bob" || transfers[0].To != "alice" || transfers[0].Amount != 300 {
		t.Errorf("transfer = %+v, want bob->alice 300", transfers[0])
	}

	// Widening the member set surfaces the carol-bob pair too.
	transfers, err = svc.GlobalTransfers(ctx, []string{"alice", "bob", "carol"})
	if err != nil {
		t.Fatalf("GlobalTransfers: %v", err)
	}
	if len(transfers) != 2 {
		t.Errorf("got %d transfers, want 2", len(transfers))
	}
}

func TestRemovedMemberDropsOutOfBalances(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()
	scope := newTripScope(t, svc, "alice", "bob", "carol")

	if _, err := svc.LogExpense(ctx, ExpenseInput{
		ScopeID: scope.ID, PayerID: "alice", TotalAmount: 900,
		Policy: models.SplitEqual, Participants: []string{"alice", "bob", "carol"},
	}); err != nil {
		t.Fatalf("LogExpense: %v", err)
	}

	if err := svc.RemoveMember(ctx, scope.ID, "carol"); err != nil {
		t.Fatalf("RemoveMember: %v", err)
	}

	balances, err := svc.Balances(ctx, scope.ID)
	if err != nil {
		t.Fatalf("Balances: %v", err)
	}
	if _, ok := balances["carol"]; ok {
		t.Error("removed member still present in balances")
	}
	// 900 redistributed over alice and bob: alice +450, bob -450
	if balances["alice"] != 450 || balances["bob"] != -450 {
		t.Errorf("balances after removal = %v, want alice=450 bob=-450", balances)
	}
	var sum int64
	for _, bal := range balances {
		sum += bal
	}
	if sum != 0 {
		t.Errorf("balances sum to %d, want 0", sum)
	}
}

func TestUpdateExpenseRecomputesOnNextRead(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()
	scope := newTripScope(t, svc, "alice", "bob")

	expense, err := svc.LogExpense(ctx, ExpenseInput{
		ScopeID: scope.ID, PayerID: "alice", TotalAmount: 800,
		Policy: models.SplitEqual, Participants: []string{"alice", "bob"},
	})
	if err != nil {
		t.Fatalf("LogExpense: %v", err)
	}

	if _, err := svc.UpdateExpense(ctx, expense.ID, ExpenseInput{
		PayerID: "alice", TotalAmount: 1200,
		Policy: models.SplitEqual, Participants: []string{"alice", "bob"},
	}); err != nil {
		t.Fatalf("UpdateExpense: %v", err)
	}

	balances, err := svc.Balances(ctx, scope.ID)
	if err != nil {
		t.Fatalf("Balances: %v", err)
	}
	if balances["bob"] != -600 {
		t.Errorf("bob's balance after edit = %d, want -600", balances["bob"])
	}

	if err := svc.RemoveExpense(ctx, expense.ID); err != nil {
		t.Fatalf("RemoveExpense: %v", err)
	}
	balances, err = svc.Balances(ctx, scope.ID)
	if err != nil {
		t.Fatalf("Balances: %v", err)
	}
	if balances["bob"] != 0 {
		t.Errorf("bob's balance after delete = %d, want 0", balances["bob"])
	}

	if _, err := svc.GetExpense(ctx, expense.ID); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("GetExpense after delete error = %v, want ErrNotFound", err)
	}
}
