package ledger

import (
	"context"
	"errors"
	"math"
	"testing"
)

func TestMemoryLedgerWithdrawDeposit(t *testing.T) {
	ctx := context.Background()
	l := NewMemoryLedger(map[string]int64{"SP1SENDER": 1000})

	if err := l.Withdraw(ctx, "SP1SENDER", 400); err != nil {
		t.Fatalf("unexpected withdraw error: %v", err)
	}
	if err := l.Deposit(ctx, "SP3CUSTODY", 400); err != nil {
		t.Fatalf("unexpected deposit error: %v", err)
	}

	senderBalance, _ := l.Balance(ctx, "SP1SENDER")
	custodyBalance, _ := l.Balance(ctx, "SP3CUSTODY")
	if senderBalance != 600 || custodyBalance != 400 {
		t.Fatalf("expected balances 600/400, got %d/%d", senderBalance, custodyBalance)
	}
	if total := l.TotalValue(); total != 1000 {
		t.Fatalf("value not conserved: total=%d", total)
	}
}

func TestMemoryLedgerInsufficientFunds(t *testing.T) {
	ctx := context.Background()
	l := NewMemoryLedger(map[string]int64{"SP1SENDER": 100})

	err := l.Withdraw(ctx, "SP1SENDER", 101)
	if !errors.Is(err, ErrInsufficientFunds) {
		t.Fatalf("expected ErrInsufficientFunds, got %v", err)
	}
	// A failed withdrawal must not move anything.
	if balance, _ := l.Balance(ctx, "SP1SENDER"); balance != 100 {
		t.Fatalf("expected untouched balance 100, got %d", balance)
	}
}

func TestMemoryLedgerUnknownPrincipalHasZeroBalance(t *testing.T) {
	ctx := context.Background()
	l := NewMemoryLedger(nil)

	if balance, _ := l.Balance(ctx, "SP9NOBODY"); balance != 0 {
		t.Fatalf("expected zero balance, got %d", balance)
	}
	if err := l.Withdraw(ctx, "SP9NOBODY", 1); !errors.Is(err, ErrInsufficientFunds) {
		t.Fatalf("expected ErrInsufficientFunds, got %v", err)
	}
}

func TestMemoryLedgerRejectsNonPositiveAmounts(t *testing.T) {
	ctx := context.Background()
	l := NewMemoryLedger(map[string]int64{"SP1SENDER": 100})

	for _, amount := range []int64{0, -5} {
		if err := l.Withdraw(ctx, "SP1SENDER", amount); !errors.Is(err, ErrInvalidAmount) {
			t.Fatalf("withdraw(%d): expected ErrInvalidAmount, got %v", amount, err)
		}
		if err := l.Deposit(ctx, "SP1SENDER", amount); !errors.Is(err, ErrInvalidAmount) {
			t.Fatalf("deposit(%d): expected ErrInvalidAmount, got %v", amount, err)
		}
	}
}

func TestMemoryLedgerDepositOverflow(t *testing.T) {
	ctx := context.Background()
	l := NewMemoryLedger(map[string]int64{"SP1SENDER": math.MaxInt64 - 10})

	if err := l.Deposit(ctx, "SP1SENDER", 11); !errors.Is(err, ErrBalanceOverflow) {
		t.Fatalf("expected ErrBalanceOverflow, got %v", err)
	}
	if balance, _ := l.Balance(ctx, "SP1SENDER"); balance != math.MaxInt64-10 {
		t.Fatalf("overflowing deposit must not change the balance, got %d", balance)
	}
}
