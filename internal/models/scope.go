package models

// Scope is the aggregation boundary for the per-group views: one trip or
// outing whose expenses and settlements are netted together. The global
// pairwise view ignores scope boundaries entirely.
type Scope struct {
	// ID is the unique identifier for the scope (UUID format).
	ID string

	// Name is the display name (e.g. "Goa trip").
	Name string

	// Members is the list of member IDs participating in this scope.
	Members []string

	// CreatedAt is the Unix timestamp when the scope was created.
	CreatedAt int64
}
