package engine

import (
	"testing"

	"github.com/splitledger/splitledger/internal/models"
)

func expense(id, payer string, total int64, shares map[string]int64) *models.Expense {
	exp := &models.Expense{
		ID:          id,
		ScopeID:     "trip",
		PayerID:     payer,
		TotalAmount: total,
		Policy:      models.SplitCustom,
	}
	for member, amount := range shares {
		exp.Splits = append(exp.Splits, models.Split{ExpenseID: id, MemberID: member, Amount: amount})
	}
	return exp
}

func settlement(from, to string, amount int64, status models.SettlementStatus) *models.Settlement {
	return &models.Settlement{
		ID:      from + "->" + to,
		ScopeID: "trip",
		FromID:  from,
		ToID:    to,
		Amount:  amount,
		Status:  status,
	}
}

func TestBalances(t *testing.T) {
	members := []string{"alice", "bob", "carol"}

	tests := []struct {
		name        string
		expenses    []*models.Expense
		settlements []*models.Settlement
		want        map[string]int64
	}{
		{
			name: "no activity leaves everyone at zero",
			want: map[string]int64{"alice": 0, "bob": 0, "carol": 0},
		},
		{
			name: "single expense split across three",
			expenses: []*models.Expense{
				expense("e1", "alice", 900, map[string]int64{"alice": 300, "bob": 300, "carol": 300}),
			},
			want: map[string]int64{"alice": 600, "bob": -300, "carol": -300},
		},
		{
			name: "completed settlement clears debt",
			expenses: []*models.Expense{
				expense("e1", "alice", 900, map[string]int64{"alice": 300, "bob": 300, "carol": 300}),
			},
			settlements: []*models.Settlement{
				settlement("bob", "alice", 300, models.SettlementCompleted),
			},
			want: map[string]int64{"alice": 300, "bob": 0, "carol": -300},
		},
		{
			name: "pending and cancelled settlements are ignored",
			expenses: []*models.Expense{
				expense("e1", "alice", 900, map[string]int64{"alice": 300, "bob": 300, "carol": 300}),
			},
			settlements: []*models.Settlement{
				settlement("bob", "alice", 300, models.SettlementPending),
				settlement("carol", "alice", 300, models.SettlementCancelled),
			},
			want: map[string]int64{"alice": 600, "bob": -300, "carol": -300},
		},
		{
			name: "soft-deleted expense is excluded",
			expenses: []*models.Expense{
				expense("e1", "alice", 900, map[string]int64{"alice": 300, "bob": 300, "carol": 300}),
				func() *models.Expense {
					exp := expense("e2", "bob", 600, map[string]int64{"alice": 200, "bob": 200, "carol": 200})
					exp.Deleted = true
					return exp
				}(),
			},
			want: map[string]int64{"alice": 600, "bob": -300, "carol": -300},
		},
		{
			name: "multiple expenses net against each other",
			expenses: []*models.Expense{
				expense("e1", "alice", 1000, map[string]int64{"alice": 500, "bob": 500}),
				expense("e2", "bob", 400, map[string]int64{"alice": 200, "bob": 200}),
			},
			want: map[string]int64{"alice": 300, "bob": -300, "carol": 0},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Balances(members, tt.expenses, tt.settlements)

			var sum int64
			for member, want := range tt.want {
				if got[member] != want {
					t.Errorf("balance[%s] = %d, want %d", member, got[member], want)
				}
			}
			for _, bal := range got {
				sum += bal
			}
			if sum != 0 {
				t.Errorf("balances sum to %d, want 0", sum)
			}
		})
	}
}
