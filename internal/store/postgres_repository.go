/**
 * @description
 * This file provides the PostgreSQL implementation of the `Repository` interface.
 * It contains the SQL queries for the `transfers` table: insertion with BIGSERIAL
 * id assignment, lookup, the guarded settle transition, and participant listing.
 *
 * @dependencies
 * - context: Standard Go library.
 * - github.com/jackc/pgx/v5: The PostgreSQL driver for database operations.
 * - internal/domain: Contains the domain models used for data transfer.
 */

package store

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/paylock/escrow-service/internal/domain"
)

// PostgresRepository is a concrete implementation of the Repository interface for PostgreSQL.
type PostgresRepository struct {
	db *pgxpool.Pool
}

// NewPostgresRepository creates a new instance of PostgresRepository.
func NewPostgresRepository(db *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) CreateTransfer(ctx context.Context, transfer *domain.Transfer) error {
	query := `
		INSERT INTO transfers (sender, recipient, amount, fee, status, created_at_height)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at, updated_at
	`
	return r.db.QueryRow(ctx, query,
		transfer.Sender,
		transfer.Recipient,
		transfer.Amount,
		transfer.Fee,
		string(transfer.Status),
		transfer.CreatedAtHeight,
	).Scan(&transfer.ID, &transfer.CreatedAt, &transfer.UpdatedAt)
}

func (r *PostgresRepository) FindTransferByID(ctx context.Context, id int64) (*domain.Transfer, error) {
	query := `
		SELECT id, sender, recipient, amount, fee, status, created_at_height, created_at, updated_at
		FROM transfers
		WHERE id = $1
	`
	var transfer domain.Transfer
	var status string
	err := r.db.QueryRow(ctx, query, id).Scan(
		&transfer.ID,
		&transfer.Sender,
		&transfer.Recipient,
		&transfer.Amount,
		&transfer.Fee,
		&status,
		&transfer.CreatedAtHeight,
		&transfer.CreatedAt,
		&transfer.UpdatedAt,
	)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, ErrTransferNotFound
		}
		return nil, err
	}
	transfer.Status = domain.TransferStatus(status)
	return &transfer, nil
}

func (r *PostgresRepository) SettleTransfer(ctx context.Context, id int64, to domain.TransferStatus) error {
	// The WHERE clause on status makes the transition a compare-and-set: a record
	// that already left pending matches zero rows.
	tag, err := r.db.Exec(ctx,
		"UPDATE transfers SET status = $1, updated_at = now() WHERE id = $2 AND status = 'pending'",
		string(to), id,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		var exists bool
		if err := r.db.QueryRow(ctx, "SELECT EXISTS (SELECT 1 FROM transfers WHERE id = $1)", id).Scan(&exists); err != nil {
			return err
		}
		if !exists {
			return ErrTransferNotFound
		}
		return ErrTransferSettled
	}
	return nil
}

func (r *PostgresRepository) ReopenTransfer(ctx context.Context, id int64) error {
	tag, err := r.db.Exec(ctx,
		"UPDATE transfers SET status = 'pending', updated_at = now() WHERE id = $1",
		id,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrTransferNotFound
	}
	return nil
}

func (r *PostgresRepository) ListTransfersByPrincipal(ctx context.Context, principal string) ([]domain.Transfer, error) {
	query := `
		SELECT id, sender, recipient, amount, fee, status, created_at_height, created_at, updated_at
		FROM transfers
		WHERE sender = $1 OR recipient = $1
		ORDER BY id DESC
	`
	rows, err := r.db.Query(ctx, query, principal)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var transfers []domain.Transfer
	for rows.Next() {
		var transfer domain.Transfer
		var status string
		if err := rows.Scan(
			&transfer.ID,
			&transfer.Sender,
			&transfer.Recipient,
			&transfer.Amount,
			&transfer.Fee,
			&status,
			&transfer.CreatedAtHeight,
			&transfer.CreatedAt,
			&transfer.UpdatedAt,
		); err != nil {
			return nil, err
		}
		transfer.Status = domain.TransferStatus(status)
		transfers = append(transfers, transfer)
	}
	return transfers, rows.Err()
}
