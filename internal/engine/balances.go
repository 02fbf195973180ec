package engine

import "github.com/splitledger/splitledger/internal/models"

// Balances folds expenses and settlements into a net balance per member.
// Positive means the member is owed money, negative means they owe.
//
// For each expense the payer is credited the full total and every split
// member is debited their share. For each completed settlement the payer is
// credited (paying down debt moves their balance toward zero) and the
// receiver debited. Pending and cancelled settlements are ignored, and
// soft-deleted expenses are skipped.
//
// Every member named in members starts at zero, so settled members still
// appear in the result. Balances always sum to zero: every unit of debt has
// a creditor.
//
// Splits are assumed well-formed (summing to their expense's total); that is
// the write path's contract, not repaired here.
func Balances(members []string, expenses []*models.Expense, settlements []*models.Settlement) map[string]int64 {
	balances := make(map[string]int64, len(members))
	for _, m := range members {
		balances[m] = 0
	}

	for _, exp := range expenses {
		if exp.Deleted {
			continue
		}
		balances[exp.PayerID] += exp.TotalAmount
		for _, split := range exp.Splits {
			balances[split.MemberID] -= split.Amount
		}
	}

	for _, s := range settlements {
		if s.Status != models.SettlementCompleted {
			continue
		}
		balances[s.FromID] += s.Amount
		balances[s.ToID] -= s.Amount
	}

	return balances
}
