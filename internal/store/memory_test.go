package store

import (
	"context"
	"errors"
	"testing"

	"github.com/paylock/escrow-service/internal/domain"
)

func newPendingTransfer(sender, recipient string) *domain.Transfer {
	return &domain.Transfer{
		Sender:          sender,
		Recipient:       recipient,
		Amount:          995000,
		Fee:             5000,
		Status:          domain.StatusPending,
		CreatedAtHeight: 10,
	}
}

func TestMemoryRepositoryAssignsSequentialIDs(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryRepository()

	first := newPendingTransfer("SP1SENDER", "SP2RECIPIENT")
	second := newPendingTransfer("SP1SENDER", "SP4OTHER")
	if err := repo.CreateTransfer(ctx, first); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := repo.CreateTransfer(ctx, second); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if first.ID != 1 || second.ID != 2 {
		t.Fatalf("expected ids 1 and 2, got %d and %d", first.ID, second.ID)
	}
	if first.CreatedAt.IsZero() || first.UpdatedAt.IsZero() {
		t.Fatal("expected audit timestamps to be stamped on insert")
	}
}

func TestMemoryRepositoryFindReturnsCopy(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryRepository()
	transfer := newPendingTransfer("SP1SENDER", "SP2RECIPIENT")
	if err := repo.CreateTransfer(ctx, transfer); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	found, err := repo.FindTransferByID(ctx, transfer.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	found.Status = domain.StatusCancelled

	again, err := repo.FindTransferByID(ctx, transfer.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if again.Status != domain.StatusPending {
		t.Fatal("mutating a returned record must not affect the stored one")
	}
}

func TestMemoryRepositoryFindUnknownID(t *testing.T) {
	repo := NewMemoryRepository()
	if _, err := repo.FindTransferByID(context.Background(), 99); !errors.Is(err, ErrTransferNotFound) {
		t.Fatalf("expected ErrTransferNotFound, got %v", err)
	}
}

func TestMemoryRepositorySettleTransferCAS(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryRepository()
	transfer := newPendingTransfer("SP1SENDER", "SP2RECIPIENT")
	if err := repo.CreateTransfer(ctx, transfer); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if err := repo.SettleTransfer(ctx, transfer.ID, domain.StatusConfirmed); err != nil {
		t.Fatalf("first settle should succeed, got %v", err)
	}
	if err := repo.SettleTransfer(ctx, transfer.ID, domain.StatusCancelled); !errors.Is(err, ErrTransferSettled) {
		t.Fatalf("second settle must fail with ErrTransferSettled, got %v", err)
	}
	if err := repo.SettleTransfer(ctx, 42, domain.StatusConfirmed); !errors.Is(err, ErrTransferNotFound) {
		t.Fatalf("expected ErrTransferNotFound, got %v", err)
	}

	found, _ := repo.FindTransferByID(ctx, transfer.ID)
	if found.Status != domain.StatusConfirmed {
		t.Fatalf("expected confirmed, got %s", found.Status)
	}
}

func TestMemoryRepositoryReopenTransfer(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryRepository()
	transfer := newPendingTransfer("SP1SENDER", "SP2RECIPIENT")
	if err := repo.CreateTransfer(ctx, transfer); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := repo.SettleTransfer(ctx, transfer.ID, domain.StatusCancelled); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := repo.ReopenTransfer(ctx, transfer.ID); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	found, _ := repo.FindTransferByID(ctx, transfer.ID)
	if found.Status != domain.StatusPending {
		t.Fatalf("expected pending after reopen, got %s", found.Status)
	}
}

func TestMemoryRepositoryListTransfersByPrincipal(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryRepository()

	asSender := newPendingTransfer("SP1SENDER", "SP2RECIPIENT")
	asRecipient := newPendingTransfer("SP4OTHER", "SP1SENDER")
	unrelated := newPendingTransfer("SP4OTHER", "SP5STRANGER")
	for _, transfer := range []*domain.Transfer{asSender, asRecipient, unrelated} {
		if err := repo.CreateTransfer(ctx, transfer); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}

	listed, err := repo.ListTransfersByPrincipal(ctx, "SP1SENDER")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(listed) != 2 {
		t.Fatalf("expected 2 transfers, got %d", len(listed))
	}
	if listed[0].ID < listed[1].ID {
		t.Fatal("expected newest id first")
	}
}
