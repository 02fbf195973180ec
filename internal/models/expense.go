package models

// SplitPolicy describes how an expense's total was divided among its members.
type SplitPolicy string

const (
	// SplitEqual divides the total evenly; the remainder goes to the first
	// participant. Equal-policy splits are recomputed when a member is
	// removed from the scope.
	SplitEqual SplitPolicy = "equal"

	// SplitCustom uses caller-provided per-member amounts. Not adjusted on
	// member removal.
	SplitCustom SplitPolicy = "custom"

	// SplitPercentage uses caller-provided amounts derived from percentages.
	// Stored as resolved minor-unit amounts; like custom splits, these are
	// not renormalized on member removal.
	SplitPercentage SplitPolicy = "percentage"
)

// Expense represents money one member paid on behalf of several.
type Expense struct {
	// ID is the unique identifier for the expense (UUID format).
	ID string

	// ScopeID is the scope (trip) this expense belongs to.
	ScopeID string

	// PayerID is the member who paid the total.
	PayerID string

	// Description is a short human-readable label (e.g. "Dinner").
	Description string

	// TotalAmount is the full amount paid, in minor units. Always > 0.
	TotalAmount int64

	// Policy records how Splits were derived from TotalAmount.
	Policy SplitPolicy

	// Splits is one entry per member owing a share. Their amounts always
	// sum exactly to TotalAmount.
	Splits []Split

	// Deleted marks the expense as excluded from all aggregation. Expenses
	// are never hard-deleted while balances might reference them.
	Deleted bool

	// CreatedAt is the Unix timestamp when the expense was logged.
	CreatedAt int64
}

// Split is one member's owed share of a single expense.
// A member appears at most once per expense.
type Split struct {
	// ExpenseID is the expense this share belongs to.
	ExpenseID string

	// MemberID is the member who owes this share.
	MemberID string

	// Amount is the owed share in minor units. Always >= 0.
	Amount int64
}
