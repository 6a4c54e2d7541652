package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/paylock/escrow-service/internal/domain"
)

// MemoryRepository is a mutex-guarded in-memory Repository. It backs the service
// when no database is configured and is the registry used by the service tests.
type MemoryRepository struct {
	mu        sync.Mutex
	nextID    int64
	transfers map[int64]*domain.Transfer
}

// NewMemoryRepository creates an empty registry. The first assigned id is 1.
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		nextID:    1,
		transfers: make(map[int64]*domain.Transfer),
	}
}

func (r *MemoryRepository) CreateTransfer(ctx context.Context, transfer *domain.Transfer) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := time.Now().UTC()
	transfer.ID = r.nextID
	transfer.CreatedAt = now
	transfer.UpdatedAt = now
	r.nextID++

	stored := *transfer
	r.transfers[stored.ID] = &stored
	return nil
}

func (r *MemoryRepository) FindTransferByID(ctx context.Context, id int64) (*domain.Transfer, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored, ok := r.transfers[id]
	if !ok {
		return nil, ErrTransferNotFound
	}
	copied := *stored
	return &copied, nil
}

func (r *MemoryRepository) SettleTransfer(ctx context.Context, id int64, to domain.TransferStatus) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored, ok := r.transfers[id]
	if !ok {
		return ErrTransferNotFound
	}
	if stored.Status != domain.StatusPending {
		return ErrTransferSettled
	}
	stored.Status = to
	stored.UpdatedAt = time.Now().UTC()
	return nil
}

func (r *MemoryRepository) ReopenTransfer(ctx context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored, ok := r.transfers[id]
	if !ok {
		return ErrTransferNotFound
	}
	stored.Status = domain.StatusPending
	stored.UpdatedAt = time.Now().UTC()
	return nil
}

func (r *MemoryRepository) ListTransfersByPrincipal(ctx context.Context, principal string) ([]domain.Transfer, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var result []domain.Transfer
	for _, stored := range r.transfers {
		if stored.Sender == principal || stored.Recipient == principal {
			result = append(result, *stored)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID > result[j].ID })
	return result, nil
}
