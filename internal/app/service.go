/**
 * @description
 * This file contains the core business logic for the escrow-service. The `Service`
 * struct is the transfer registry: it owns the create/confirm/cancel state machine,
 * validates caller authorization and record state before any fund movement, and
 * composes every movement from the custody ledger's withdraw/deposit primitives.
 *
 * Key features:
 * - Creation withdraws the gross amount from the sender into the custody principal
 *   and inserts a pending record; any later failure compensates the withdrawal so
 *   the operation is all-or-nothing.
 * - Confirmation is recipient-only and gated by a block-height cooling period; it
 *   pays the net amount to the recipient and the fee to the platform principal.
 * - Cancellation is sender-only, allowed any time while pending, and refunds the
 *   full gross amount.
 * - Settles claim the record first via a compare-and-set on the pending status, so
 *   payouts and refunds happen at most once even under concurrent submission.
 * - Publishes lifecycle events to RabbitMQ for asynchronous consumers.
 *
 * @dependencies
 * - context, errors, fmt, log, strings: Standard Go libraries.
 * - internal/domain, internal/ledger, internal/store: Domain models, custody ledger, registry storage.
 * - pkg/rabbitmq: For event publishing.
 */

package app

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/paylock/escrow-service/internal/domain"
	"github.com/paylock/escrow-service/internal/ledger"
	"github.com/paylock/escrow-service/internal/store"
	"github.com/paylock/escrow-service/pkg/rabbitmq"
)

var (
	ErrNotSender           = errors.New("caller is not the transfer sender")
	ErrNotRecipient        = errors.New("caller is not the transfer recipient")
	ErrCoolingPeriodActive = errors.New("cooling period has not elapsed")
	ErrConfirmRateLimited  = errors.New("too many confirmation attempts")
)

// Clock supplies the logical clock every timing rule is measured against,
// typically the chain tip height.
type Clock interface {
	Height(ctx context.Context) (int64, error)
}

// RateLimiter is the subset of the Redis limiter the service depends on.
type RateLimiter interface {
	ConsumeRateLimit(ctx context.Context, scope, subject string, limit int, window time.Duration) (count int, retryAfterSeconds int, err error)
}

// Service provides the core business logic for escrow transfers.
type Service struct {
	repo              store.Repository
	ledger            ledger.Ledger
	clock             Clock
	eventProducer     rabbitmq.Publisher
	custodyPrincipal  string
	platformPrincipal string
	feePolicy         domain.FeePolicy
	coolingPeriod     int64

	confirmLimiter        RateLimiter
	confirmLimitPerMinute int
}

// NewService creates a new escrow service instance.
func NewService(
	repo store.Repository,
	custodyLedger ledger.Ledger,
	clock Clock,
	producer rabbitmq.Publisher,
	custodyPrincipal string,
	platformPrincipal string,
	feePolicy domain.FeePolicy,
	coolingPeriodBlocks int64,
) *Service {
	if coolingPeriodBlocks < 0 {
		coolingPeriodBlocks = domain.DefaultCoolingPeriodBlocks
	}
	return &Service{
		repo:              repo,
		ledger:            custodyLedger,
		clock:             clock,
		eventProducer:     producer,
		custodyPrincipal:  custodyPrincipal,
		platformPrincipal: platformPrincipal,
		feePolicy:         feePolicy,
		coolingPeriod:     coolingPeriodBlocks,
	}
}

// SetConfirmRateLimiter enables per-caller rate limiting of confirmation attempts.
func (s *Service) SetConfirmRateLimiter(limiter RateLimiter, limitPerMinute int) {
	s.confirmLimiter = limiter
	s.confirmLimitPerMinute = limitPerMinute
}

// CreateTransfer escrows req.Amount (gross) from the sender toward the recipient.
// The platform fee is carved out of the gross amount at creation; the withdrawal
// and the record insertion succeed or fail together.
func (s *Service) CreateTransfer(ctx context.Context, sender string, req domain.CreateTransferRequest) (*domain.Transfer, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	recipient := strings.TrimSpace(req.Recipient)

	amount, fee, err := s.feePolicy.Split(req.Amount)
	if err != nil {
		return nil, err
	}
	gross := req.Amount

	height, err := s.clock.Height(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to read chain height: %w", err)
	}

	// Move the gross amount from the sender into custody before inserting the
	// record, so an insufficient balance fails the operation with no record.
	if err := s.ledger.Withdraw(ctx, sender, gross); err != nil {
		return nil, err
	}
	if err := s.ledger.Deposit(ctx, s.custodyPrincipal, gross); err != nil {
		s.compensate(ctx, sender, gross, "custody deposit failed during create")
		return nil, fmt.Errorf("failed to fund custody: %w", err)
	}

	transfer := &domain.Transfer{
		Sender:          sender,
		Recipient:       recipient,
		Amount:          amount,
		Fee:             fee,
		Status:          domain.StatusPending,
		CreatedAtHeight: height,
	}
	if err := s.repo.CreateTransfer(ctx, transfer); err != nil {
		// Return the escrowed funds; creation must be all-or-nothing.
		if werr := s.ledger.Withdraw(ctx, s.custodyPrincipal, gross); werr != nil {
			log.Printf("level=error component=app msg=\"CRITICAL: custody withdrawal failed while unwinding create\" sender=%s gross=%d err=%v", sender, gross, werr)
		} else {
			s.compensate(ctx, sender, gross, "record insertion failed during create")
		}
		return nil, fmt.Errorf("failed to create transfer record: %w", err)
	}

	log.Printf("level=info component=app op=create_transfer transfer_id=%d sender=%s recipient=%s amount=%d fee=%d height=%d",
		transfer.ID, sender, recipient, amount, fee, height)
	s.publishEvent(ctx, rabbitmq.RoutingKeyTransferCreated, transfer, height)
	return transfer, nil
}

// ConfirmTransfer pays out a pending transfer to its recipient. Only the recorded
// recipient may confirm, and only once the cooling period has elapsed.
func (s *Service) ConfirmTransfer(ctx context.Context, caller string, id int64) (*domain.Transfer, error) {
	if err := s.consumeConfirmBudget(ctx, caller); err != nil {
		return nil, err
	}

	transfer, err := s.repo.FindTransferByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if transfer.Recipient != caller {
		return nil, ErrNotRecipient
	}
	if transfer.Status != domain.StatusPending {
		return nil, store.ErrTransferSettled
	}

	height, err := s.clock.Height(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to read chain height: %w", err)
	}
	if height-transfer.CreatedAtHeight < s.coolingPeriod {
		return nil, ErrCoolingPeriodActive
	}

	// Claim the record before moving any funds; the CAS guarantees at-most-once
	// payout even when two confirmations race.
	if err := s.repo.SettleTransfer(ctx, id, domain.StatusConfirmed); err != nil {
		return nil, err
	}

	if err := s.payout(ctx, transfer); err != nil {
		if rerr := s.repo.ReopenTransfer(ctx, id); rerr != nil {
			log.Printf("level=error component=app msg=\"CRITICAL: failed to reopen transfer after payout failure\" transfer_id=%d err=%v", id, rerr)
		}
		return nil, err
	}
	transfer.Status = domain.StatusConfirmed

	log.Printf("level=info component=app op=confirm_transfer transfer_id=%d recipient=%s amount=%d fee=%d height=%d",
		id, caller, transfer.Amount, transfer.Fee, height)
	s.publishEvent(ctx, rabbitmq.RoutingKeyTransferConfirmed, transfer, height)
	return transfer, nil
}

// CancelTransfer refunds a pending transfer to its sender, fee included. Only the
// recorded sender may cancel; cancellation is permitted at any time before
// confirmation, including during the cooling period.
func (s *Service) CancelTransfer(ctx context.Context, caller string, id int64) (*domain.Transfer, error) {
	transfer, err := s.repo.FindTransferByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if transfer.Sender != caller {
		return nil, ErrNotSender
	}
	if transfer.Status != domain.StatusPending {
		return nil, store.ErrTransferSettled
	}

	if err := s.repo.SettleTransfer(ctx, id, domain.StatusCancelled); err != nil {
		return nil, err
	}

	if err := s.move(ctx, s.custodyPrincipal, transfer.Sender, transfer.Gross()); err != nil {
		if rerr := s.repo.ReopenTransfer(ctx, id); rerr != nil {
			log.Printf("level=error component=app msg=\"CRITICAL: failed to reopen transfer after refund failure\" transfer_id=%d err=%v", id, rerr)
		}
		return nil, fmt.Errorf("failed to refund sender: %w", err)
	}
	transfer.Status = domain.StatusCancelled

	height, herr := s.clock.Height(ctx)
	if herr != nil {
		height = transfer.CreatedAtHeight
	}
	log.Printf("level=info component=app op=cancel_transfer transfer_id=%d sender=%s refund=%d", id, caller, transfer.Gross())
	s.publishEvent(ctx, rabbitmq.RoutingKeyTransferCancelled, transfer, height)
	return transfer, nil
}

// GetTransfer returns a transfer visible to the caller. Non-participants get a
// not-found error rather than a hint the record exists.
func (s *Service) GetTransfer(ctx context.Context, caller string, id int64) (*domain.Transfer, error) {
	transfer, err := s.repo.FindTransferByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if transfer.Sender != caller && transfer.Recipient != caller {
		return nil, store.ErrTransferNotFound
	}
	return transfer, nil
}

// ListTransfers returns every transfer the caller participates in.
func (s *Service) ListTransfers(ctx context.Context, caller string) ([]domain.Transfer, error) {
	return s.repo.ListTransfersByPrincipal(ctx, caller)
}

// payout moves the escrowed funds of a confirmed transfer out of custody: the net
// amount to the recipient and the fee to the platform principal.
func (s *Service) payout(ctx context.Context, transfer *domain.Transfer) error {
	if err := s.move(ctx, s.custodyPrincipal, transfer.Recipient, transfer.Amount); err != nil {
		return fmt.Errorf("failed to pay recipient: %w", err)
	}
	if transfer.Fee > 0 {
		if err := s.move(ctx, s.custodyPrincipal, s.platformPrincipal, transfer.Fee); err != nil {
			// Pull the recipient payout back so the custody pool stays whole.
			if rerr := s.move(ctx, transfer.Recipient, s.custodyPrincipal, transfer.Amount); rerr != nil {
				log.Printf("level=error component=app msg=\"CRITICAL: failed to unwind recipient payout after fee failure\" transfer_id=%d err=%v", transfer.ID, rerr)
			}
			return fmt.Errorf("failed to pay platform fee: %w", err)
		}
	}
	return nil
}

// move composes a transfer of value from one principal to another out of the
// ledger's two primitives, compensating the withdrawal if the deposit fails.
func (s *Service) move(ctx context.Context, from, to string, amount int64) error {
	if err := s.ledger.Withdraw(ctx, from, amount); err != nil {
		return err
	}
	if err := s.ledger.Deposit(ctx, to, amount); err != nil {
		s.compensate(ctx, from, amount, "deposit failed mid-move")
		return err
	}
	return nil
}

func (s *Service) compensate(ctx context.Context, principal string, amount int64, reason string) {
	if err := s.ledger.Deposit(ctx, principal, amount); err != nil {
		log.Printf("level=error component=app msg=\"CRITICAL: compensating deposit failed\" principal=%s amount=%d reason=%q err=%v",
			principal, amount, reason, err)
	}
}

func (s *Service) consumeConfirmBudget(ctx context.Context, caller string) error {
	if s.confirmLimiter == nil || s.confirmLimitPerMinute <= 0 {
		return nil
	}
	count, retryAfter, err := s.confirmLimiter.ConsumeRateLimit(ctx, "confirm", caller, s.confirmLimitPerMinute, time.Minute)
	if err != nil {
		// Rate limiting is hardening, not correctness; an unavailable limiter
		// must not block legitimate confirmations.
		log.Printf("level=warn component=app msg=\"confirm rate limiter unavailable\" caller=%s err=%v", caller, err)
		return nil
	}
	if count > s.confirmLimitPerMinute {
		log.Printf("level=warn component=app msg=\"confirm rate limited\" caller=%s count=%d retry_after_s=%d", caller, count, retryAfter)
		return ErrConfirmRateLimited
	}
	return nil
}

func (s *Service) publishEvent(ctx context.Context, routingKey string, transfer *domain.Transfer, height int64) {
	if s.eventProducer == nil {
		return
	}
	event := rabbitmq.NewTransferEvent(transfer.ID, transfer.Sender, transfer.Recipient, transfer.Amount, transfer.Fee, string(transfer.Status), height)
	if err := s.eventProducer.PublishTransferEvent(ctx, routingKey, event); err != nil {
		log.Printf("level=warn component=app msg=\"event publish failed\" routing_key=%s transfer_id=%d err=%v", routingKey, transfer.ID, err)
	}
}
