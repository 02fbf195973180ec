package engine

import (
	"sort"

	"github.com/splitledger/splitledger/internal/models"
)

// pairKey is the canonical key for an unordered member pair: lo < hi.
type pairKey struct {
	lo, hi string
}

func makePair(a, b string) pairKey {
	if a < b {
		return pairKey{lo: a, hi: b}
	}
	return pairKey{lo: b, hi: a}
}

// PairwiseTransfers computes the single net amount owed between every pair
// of members across all the given expenses and settlements, ignoring scope
// boundaries. This is the raw bilateral truth between two people; it
// deliberately differs from SettleBalances, which may route a debt through
// a third member to cut the transfer count. Both views are kept separate.
//
// Each split means the split's member owes the expense's payer that amount;
// each completed settlement reduces what its payer owes its receiver. The
// result holds at most one transfer per pair, ordered by member IDs so
// unchanged input yields identical output.
func PairwiseTransfers(expenses []*models.Expense, settlements []*models.Settlement) []Transfer {
	// owed[k] > 0 means k.hi owes k.lo; < 0 means k.lo owes k.hi.
	owed := make(map[pairKey]int64)

	add := func(debtor, creditor string, amount int64) {
		if debtor == creditor || amount == 0 {
			return
		}
		key := makePair(debtor, creditor)
		if debtor == key.hi {
			owed[key] += amount
		} else {
			owed[key] -= amount
		}
	}

	for _, exp := range expenses {
		if exp.Deleted {
			continue
		}
		for _, split := range exp.Splits {
			add(split.MemberID, exp.PayerID, split.Amount)
		}
	}

	for _, s := range settlements {
		if s.Status != models.SettlementCompleted {
			continue
		}
		add(s.FromID, s.ToID, -s.Amount)
	}

	keys := make([]pairKey, 0, len(owed))
	for key := range owed {
		keys = append(keys, key)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].lo != keys[j].lo {
			return keys[i].lo < keys[j].lo
		}
		return keys[i].hi < keys[j].hi
	})

	var transfers []Transfer
	for _, key := range keys {
		switch net := owed[key]; {
		case net > 0:
			transfers = append(transfers, Transfer{From: key.hi, To: key.lo, Amount: net})
		case net < 0:
			transfers = append(transfers, Transfer{From: key.lo, To: key.hi, Amount: -net})
		}
	}

	return transfers
}
