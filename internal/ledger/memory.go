package ledger

import (
	"context"
	"math"
	"sync"
)

// MemoryLedger is a mutex-guarded in-memory implementation of Ledger. It backs the
// service when no database is configured and gives tests a checked ledger whose
// total value can be asserted exactly.
type MemoryLedger struct {
	mu       sync.Mutex
	balances map[string]int64
}

// NewMemoryLedger creates a ledger preloaded with the given balances. The map may
// be nil for an empty ledger.
func NewMemoryLedger(initial map[string]int64) *MemoryLedger {
	balances := make(map[string]int64, len(initial))
	for principal, balance := range initial {
		balances[principal] = balance
	}
	return &MemoryLedger{balances: balances}
}

func (l *MemoryLedger) Withdraw(ctx context.Context, principal string, amount int64) error {
	if amount <= 0 {
		return ErrInvalidAmount
	}
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.balances[principal] < amount {
		return ErrInsufficientFunds
	}
	l.balances[principal] -= amount
	return nil
}

func (l *MemoryLedger) Deposit(ctx context.Context, principal string, amount int64) error {
	if amount <= 0 {
		return ErrInvalidAmount
	}
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.balances[principal] > math.MaxInt64-amount {
		return ErrBalanceOverflow
	}
	l.balances[principal] += amount
	return nil
}

func (l *MemoryLedger) Balance(ctx context.Context, principal string) (int64, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.balances[principal], nil
}

// TotalValue sums every balance. Tests use it to assert value conservation across
// transfer lifecycles.
func (l *MemoryLedger) TotalValue() int64 {
	l.mu.Lock()
	defer l.mu.Unlock()

	var total int64
	for _, balance := range l.balances {
		total += balance
	}
	return total
}
