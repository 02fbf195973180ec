package engine

import "sort"

// memberAmount pairs a member with a positive magnitude during netting.
type memberAmount struct {
	id     string
	amount int64
}

// SettleBalances reduces a balance map to a list of transfers that drives
// every balance to zero, using greedy largest-debtor/largest-creditor
// matching. The result is deterministic: both sides are sorted by magnitude
// descending with member ID as the tie-break, so unchanged input always
// yields the same transfers in the same order.
//
// The transfer count is at most |debtors| + |creditors| - 1 and each
// member's transfers sum exactly to their original balance. This is a fast
// O(n log n) heuristic, not a minimum-transfer solver; the exact variant is
// NP-hard and intentionally not attempted.
func SettleBalances(balances map[string]int64) []Transfer {
	var debtors, creditors []memberAmount
	for id, bal := range balances {
		switch {
		case bal < 0:
			debtors = append(debtors, memberAmount{id: id, amount: -bal})
		case bal > 0:
			creditors = append(creditors, memberAmount{id: id, amount: bal})
		}
	}

	byAmountDesc := func(s []memberAmount) {
		sort.Slice(s, func(i, j int) bool {
			if s[i].amount != s[j].amount {
				return s[i].amount > s[j].amount
			}
			return s[i].id < s[j].id
		})
	}
	byAmountDesc(debtors)
	byAmountDesc(creditors)

	var transfers []Transfer
	i, j := 0, 0
	for i < len(debtors) && j < len(creditors) {
		amount := debtors[i].amount
		if creditors[j].amount < amount {
			amount = creditors[j].amount
		}

		if amount > 0 {
			transfers = append(transfers, Transfer{
				From:   debtors[i].id,
				To:     creditors[j].id,
				Amount: amount,
			})
		}

		debtors[i].amount -= amount
		creditors[j].amount -= amount
		if debtors[i].amount == 0 {
			i++
		}
		if creditors[j].amount == 0 {
			j++
		}
	}

	return transfers
}
