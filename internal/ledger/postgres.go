/**
 * @description
 * PostgreSQL implementation of the custody ledger over a `balances` table keyed by
 * principal. Withdrawals lock the row before checking the balance so two concurrent
 * withdrawals cannot both pass the sufficiency check.
 *
 * @dependencies
 * - github.com/jackc/pgx/v5: PostgreSQL driver and connection pooling.
 */
package ledger

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresLedger is the production Ledger backed by PostgreSQL.
type PostgresLedger struct {
	db *pgxpool.Pool
}

// NewPostgresLedger creates a new instance of PostgresLedger.
func NewPostgresLedger(db *pgxpool.Pool) *PostgresLedger {
	return &PostgresLedger{db: db}
}

func (l *PostgresLedger) Withdraw(ctx context.Context, principal string, amount int64) error {
	if amount <= 0 {
		return ErrInvalidAmount
	}

	tx, err := l.db.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	var balance int64
	// Use FOR UPDATE to lock the row, preventing race conditions.
	err = tx.QueryRow(ctx, "SELECT balance FROM balances WHERE principal = $1 FOR UPDATE", principal).Scan(&balance)
	if err != nil {
		if err == pgx.ErrNoRows {
			return ErrInsufficientFunds
		}
		return err
	}

	if balance < amount {
		return ErrInsufficientFunds
	}

	_, err = tx.Exec(ctx, "UPDATE balances SET balance = balance - $1 WHERE principal = $2", amount, principal)
	if err != nil {
		return err
	}

	return tx.Commit(ctx)
}

func (l *PostgresLedger) Deposit(ctx context.Context, principal string, amount int64) error {
	if amount <= 0 {
		return ErrInvalidAmount
	}

	query := `
		INSERT INTO balances (principal, balance)
		VALUES ($1, $2)
		ON CONFLICT (principal) DO UPDATE SET balance = balances.balance + $2
	`
	_, err := l.db.Exec(ctx, query, principal, amount)
	return err
}

func (l *PostgresLedger) Balance(ctx context.Context, principal string) (int64, error) {
	var balance int64
	err := l.db.QueryRow(ctx, "SELECT balance FROM balances WHERE principal = $1", principal).Scan(&balance)
	if err != nil {
		if err == pgx.ErrNoRows {
			return 0, nil
		}
		return 0, err
	}
	return balance, nil
}
