// Package models defines the core domain types for the ledger.
//
// # Models
//
//   - Scope: the aggregation boundary (one trip or outing within a group)
//   - Expense: money one member paid on behalf of several
//   - Split: one member's owed share of a single expense
//   - Settlement: a recorded real-world payment between two members
//
// Members are opaque string IDs; the surrounding application owns member
// identity, names, and authentication.
//
// # Money
//
// Every amount is an int64 in minor units (cents, paise). Floating point is
// never used for money anywhere in this module.
//
// # Derived data
//
// Balances and suggested transfers are never stored. They are recomputed from
// expenses and completed settlements on every read, so there is no cached
// state to drift out of sync.
package models
