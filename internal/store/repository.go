/**
 * @description
 * This file defines the `Repository` interface, which specifies the contract for the
 * transfer registry's storage: sequential id assignment, record lookup, and the
 * guarded status transitions of the escrow state machine. By defining an interface,
 * the registry's business logic is decoupled from the specific database
 * implementation, making the code more modular and easier to test.
 *
 * @dependencies
 * - context, errors: Standard Go libraries.
 * - internal/domain: For the service's domain models.
 */

package store

import (
	"context"
	"errors"

	"github.com/paylock/escrow-service/internal/domain"
)

var (
	ErrTransferNotFound = errors.New("transfer not found")
	// ErrTransferSettled is returned when a status transition is attempted on a
	// record that has already left the pending state.
	ErrTransferSettled = errors.New("transfer already settled")
)

// Repository defines the set of methods for interacting with transfer records.
// The registry is the sole owner of every record's status; no other component
// mutates it.
type Repository interface {
	// CreateTransfer inserts a new pending record and assigns the next sequential
	// id (first id is 1, ids are never reused). The assigned id is written back
	// into the passed record.
	CreateTransfer(ctx context.Context, transfer *domain.Transfer) error

	FindTransferByID(ctx context.Context, id int64) (*domain.Transfer, error)

	// SettleTransfer moves a record from pending to the given terminal status.
	// It fails with ErrTransferSettled when the record is no longer pending and
	// with ErrTransferNotFound when the id is unknown; the transition is a single
	// compare-and-set so a settle can succeed at most once.
	SettleTransfer(ctx context.Context, id int64, to domain.TransferStatus) error

	// ReopenTransfer reverts a record to pending. It exists solely as the
	// compensating action when fund movement fails after a settle was claimed.
	ReopenTransfer(ctx context.Context, id int64) error

	// ListTransfersByPrincipal returns every transfer the principal participates
	// in, as sender or recipient, newest id first.
	ListTransfersByPrincipal(ctx context.Context, principal string) ([]domain.Transfer, error)
}
