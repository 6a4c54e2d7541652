/**
 * @description
 * This file defines the core domain model for the escrow-service: the transfer record
 * held by the registry, its lifecycle statuses, and the fixed-point fee arithmetic
 * applied to every creation.
 *
 * @notes
 * - Amounts are stored as `int64` to represent the value in the smallest currency
 *   unit, which avoids floating-point inaccuracies with financial data. The fee is
 *   an integer multiply followed by a floor division so that `Fee + Amount` always
 *   reconstructs the gross value the sender committed.
 * - `CreatedAtHeight` is the logical clock (chain block height) captured at creation.
 *   The cooling period is measured against it; wall-clock timestamps on the record
 *   are audit metadata only.
 */

package domain

import (
	"errors"
	"math"
	"strings"
	"time"
)

// TransferStatus is the lifecycle state of an escrow transfer.
type TransferStatus string

const (
	StatusPending   TransferStatus = "pending"
	StatusConfirmed TransferStatus = "confirmed"
	StatusCancelled TransferStatus = "cancelled"
)

// Terminal reports whether no further transition is permitted from the status.
func (s TransferStatus) Terminal() bool {
	return s == StatusConfirmed || s == StatusCancelled
}

const (
	// DefaultFeeNumerator / DefaultFeeDenominator encode the 0.5% platform fee.
	DefaultFeeNumerator   int64 = 5
	DefaultFeeDenominator int64 = 1000

	// DefaultCoolingPeriodBlocks is the minimum number of blocks that must elapse
	// between creation and confirmation.
	DefaultCoolingPeriodBlocks int64 = 200
)

var (
	ErrInvalidAmount    = errors.New("transfer amount must be positive after fee deduction")
	ErrInvalidRecipient = errors.New("recipient principal is required")
)

// Transfer is the central escrow record. Funds equal to Amount+Fee sit with the
// custody principal while the status is pending. The record is never deleted;
// settled transfers remain as auditable terminal records.
type Transfer struct {
	ID              int64          `json:"id"`
	Sender          string         `json:"sender"`
	Recipient       string         `json:"recipient"`
	Amount          int64          `json:"amount"` // net value promised to the recipient
	Fee             int64          `json:"fee"`    // platform share, carved out at creation
	Status          TransferStatus `json:"status"`
	CreatedAtHeight int64          `json:"created_at_height"`
	CreatedAt       time.Time      `json:"created_at"`
	UpdatedAt       time.Time      `json:"updated_at"`
}

// Gross returns the full value the sender committed at creation.
func (t *Transfer) Gross() int64 {
	return t.Amount + t.Fee
}

// FeePolicy holds the proportional platform fee as a rational number so the split
// is exact integer arithmetic.
type FeePolicy struct {
	Numerator   int64
	Denominator int64
}

// DefaultFeePolicy returns the reference 0.5% policy.
func DefaultFeePolicy() FeePolicy {
	return FeePolicy{Numerator: DefaultFeeNumerator, Denominator: DefaultFeeDenominator}
}

// Split divides a gross amount into the recipient's net amount and the platform fee.
// fee = floor(gross * numerator / denominator), amount = gross - fee.
// The multiply is guarded against int64 overflow; the net amount must stay positive.
func (p FeePolicy) Split(gross int64) (amount, fee int64, err error) {
	if gross <= 0 {
		return 0, 0, ErrInvalidAmount
	}
	if p.Numerator < 0 || p.Denominator <= 0 || p.Numerator > p.Denominator {
		return 0, 0, errors.New("fee policy must satisfy 0 <= numerator <= denominator")
	}
	if p.Numerator > 0 && gross > math.MaxInt64/p.Numerator {
		return 0, 0, ErrInvalidAmount
	}

	fee = gross * p.Numerator / p.Denominator
	amount = gross - fee
	if amount <= 0 {
		return 0, 0, ErrInvalidAmount
	}
	return amount, fee, nil
}

// CreateTransferRequest is the DTO for incoming transfer creation API requests.
// Amount is the gross value; the fee is deducted from it, not added on top.
type CreateTransferRequest struct {
	Recipient string `json:"recipient"`
	Amount    int64  `json:"amount"`
}

// Validate checks the request fields that do not depend on ledger state.
func (r *CreateTransferRequest) Validate() error {
	if strings.TrimSpace(r.Recipient) == "" {
		return ErrInvalidRecipient
	}
	if r.Amount <= 0 {
		return ErrInvalidAmount
	}
	return nil
}
