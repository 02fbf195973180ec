// Package engine computes balances and settlement suggestions from ledger
// data. Every function here is pure: it takes a snapshot of expenses and
// settlements and returns derived values, with no I/O and no retained state.
// Callers recompute on every read; nothing is cached.
package engine

// Transfer is a suggested payment from one member to another.
type Transfer struct {
	// From is the member who should pay.
	From string

	// To is the member who should receive.
	To string

	// Amount is the payment amount in minor units. Always > 0.
	Amount int64
}
