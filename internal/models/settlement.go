package models

// SettlementStatus is the lifecycle state of a settlement.
type SettlementStatus string

const (
	// SettlementPending is a recorded intent to pay. Pending settlements do
	// not affect balances.
	SettlementPending SettlementStatus = "pending"

	// SettlementCompleted is a confirmed payment. Only completed settlements
	// reduce debts.
	SettlementCompleted SettlementStatus = "completed"

	// SettlementCancelled is a withdrawn settlement. Never affects balances.
	SettlementCancelled SettlementStatus = "cancelled"
)

// Settlement represents a real-world payment between two members recorded to
// clear debt. The amount is immutable after creation; a wrong amount is
// corrected by cancelling and recording a new settlement.
type Settlement struct {
	// ID is the unique identifier for the settlement (UUID format).
	ID string

	// ScopeID is the scope this settlement belongs to.
	ScopeID string

	// FromID is the member who paid (debtor settling up).
	FromID string

	// ToID is the member who received the payment (creditor being paid).
	ToID string

	// Amount is the payment amount in minor units. Always > 0.
	Amount int64

	// Status is the lifecycle state. Only SettlementCompleted counts toward
	// balances.
	Status SettlementStatus

	// Note is an optional description.
	Note string

	// CreatedAt is the Unix timestamp when the settlement was recorded.
	CreatedAt int64
}
