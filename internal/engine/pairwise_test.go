package engine

import (
	"reflect"
	"testing"

	"github.com/splitledger/splitledger/internal/models"
)

func TestPairwiseTransfers(t *testing.T) {
	tests := []struct {
		name        string
		expenses    []*models.Expense
		settlements []*models.Settlement
		want        []Transfer
	}{
		{
			name: "single shared expense",
			expenses: []*models.Expense{
				expense("e1", "alice", 1000, map[string]int64{"alice": 600, "bob": 400}),
			},
			want: []Transfer{{From: "bob", To: "alice", Amount: 400}},
		},
		{
			name: "debts across scopes collapse to one transfer per pair",
			expenses: []*models.Expense{
				func() *models.Expense {
					exp := expense("e1", "alice", 1000, map[string]int64{"alice": 500, "bob": 500})
					exp.ScopeID = "trip-goa"
					return exp
				}(),
				func() *models.Expense {
					exp := expense("e2", "alice", 600, map[string]int64{"alice": 300, "bob": 300})
					exp.ScopeID = "trip-manali"
					return exp
				}(),
			},
			want: []Transfer{{From: "bob", To: "alice", Amount: 800}},
		},
		{
			name: "opposite debts net against each other",
			expenses: []*models.Expense{
				expense("e1", "alice", 1000, map[string]int64{"alice": 500, "bob": 500}),
				expense("e2", "bob", 600, map[string]int64{"alice": 300, "bob": 300}),
			},
			want: []Transfer{{From: "bob", To: "alice", Amount: 200}},
		},
		{
			name: "exactly offsetting debts yield no transfer",
			expenses: []*models.Expense{
				expense("e1", "alice", 800, map[string]int64{"alice": 400, "bob": 400}),
				expense("e2", "bob", 800, map[string]int64{"alice": 400, "bob": 400}),
			},
			want: nil,
		},
		{
			name: "completed settlement reduces the pair",
			expenses: []*models.Expense{
				expense("e1", "alice", 1000, map[string]int64{"alice": 600, "bob": 400}),
			},
			settlements: []*models.Settlement{
				settlement("bob", "alice", 300, models.SettlementCompleted),
			},
			want: []Transfer{{From: "bob", To: "alice", Amount: 100}},
		},
		{
			name: "pending settlement does not reduce the pair",
			expenses: []*models.Expense{
				expense("e1", "alice", 1000, map[string]int64{"alice": 600, "bob": 400}),
			},
			settlements: []*models.Settlement{
				settlement("bob", "alice", 300, models.SettlementPending),
			},
			want: []Transfer{{From: "bob", To: "alice", Amount: 400}},
		},
		{
			name: "overpayment flips the direction",
			expenses: []*models.Expense{
				expense("e1", "alice", 1000, map[string]int64{"alice": 600, "bob": 400}),
			},
			settlements: []*models.Settlement{
				settlement("bob", "alice", 700, models.SettlementCompleted),
			},
			want: []Transfer{{From: "alice", To: "bob", Amount: 300}},
		},
		{
			name: "three members stay pairwise, no rerouting",
			expenses: []*models.Expense{
				expense("e1", "alice", 600, map[string]int64{"alice": 200, "bob": 200, "carol": 200}),
				expense("e2", "bob", 300, map[string]int64{"bob": 150, "carol": 150}),
			},
			want: []Transfer{
				{From: "bob", To: "alice", Amount: 200},
				{From: "carol", To: "alice", Amount: 200},
				{From: "carol", To: "bob", Amount: 150},
			},
		},
		{
			name: "soft-deleted expense contributes nothing",
			expenses: []*models.Expense{
				func() *models.Expense {
					exp := expense("e1", "alice", 1000, map[string]int64{"alice": 600, "bob": 400})
					exp.Deleted = true
					return exp
				}(),
			},
			want: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := PairwiseTransfers(tt.expenses, tt.settlements)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("PairwiseTransfers() = %v, want %v", got, tt.want)
			}

			seen := make(map[[2]string]bool)
			for _, tr := range got {
				key := [2]string{tr.From, tr.To}
				if tr.From > tr.To {
					key = [2]string{tr.To, tr.From}
				}
				if seen[key] {
					t.Errorf("pair %v appears more than once", key)
				}
				seen[key] = true
			}
		})
	}
}
