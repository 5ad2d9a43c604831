// Package models defines the core domain models for SpendiLog.
//
// # Models
//
//   - Trip: a shared journey with its members, expenses and ledger currency
//   - Member: a participant of a trip, identified by an ID unique within the trip
//   - Expense: either a purchase split among members or a settlement transfer
//   - SimplifiedDebt: one transfer of a settle-up plan (derived, never stored)
//   - RateSnapshot: a point-in-time exchange rate table relative to one base
//   - User: a registered account that owns trips
//
// # Design Principles
//
// 1. **Derived values are not stored**: balances and debts are recomputed from
// the expense list on every request.
// 2. **Settlements are expenses**: a settlement is an Expense whose Kind is
// ExpenseKindSettlement. On the wire it also carries the legacy
// AdjustmentCategory so older clients keep recognising it.
// 3. **Avoid circular references**: expenses reference members by ID strings.
package models
