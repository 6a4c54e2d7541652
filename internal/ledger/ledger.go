/**
 * @description
 * This package is the custody ledger adapter. It wraps the external fungible-balance
 * ledger's deposit/withdraw primitives behind a small interface so the transfer
 * registry's logic is independent of how balances are actually stored. Every
 * registry-visible fund movement is composed from these two primitives and leaves
 * total system value unchanged.
 *
 * @dependencies
 * - context, errors: Standard Go libraries.
 */
package ledger

import (
	"context"
	"errors"
)

var (
	ErrInsufficientFunds = errors.New("insufficient funds")
	ErrInvalidAmount     = errors.New("ledger amount must be positive")
	ErrBalanceOverflow   = errors.New("deposit would overflow balance")
)

// Ledger moves value between principals. Withdraw fails with ErrInsufficientFunds
// when the principal's balance cannot cover the amount; Deposit is expected not to
// fail under correct accounting, since the custody principal is only ever drawn
// down by exactly the amounts it was credited.
type Ledger interface {
	Withdraw(ctx context.Context, principal string, amount int64) error
	Deposit(ctx context.Context, principal string, amount int64) error
	Balance(ctx context.Context, principal string) (int64, error)
}
