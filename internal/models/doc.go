// Package models defines the core domain models for Debt Control.
//
// # Models
//
//   - User: registered account; owns every other record
//   - Category: user-scoped label a debt must reference
//   - Debt: a tracked obligation split into one or more installments
//   - Installment: one scheduled partial payment of a Debt ("plot")
//   - DashboardTotals: derived per-state totals, never persisted
//
// # Conventions
//
//  1. Relationships use ID strings (UUID) instead of pointers
//  2. Money is held as decimal.Decimal and only converted to float64 at the edges
//  3. Calendar dates are time.Time values at UTC midnight (see Date)
//  4. Timestamps (CreatedAt, UpdatedAt) are Unix seconds
package models
