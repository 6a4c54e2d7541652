package domain

import (
	"errors"
	"math"
	"testing"
)

func TestFeePolicySplit(t *testing.T) {
	policy := DefaultFeePolicy()

	tests := []struct {
		name       string
		gross      int64
		wantAmount int64
		wantFee    int64
		wantErr    error
	}{
		{
			name:       "reference scenario splits 0.5 percent",
			gross:      1000000,
			wantAmount: 995000,
			wantFee:    5000,
		},
		{
			name:       "fee floors toward zero",
			gross:      1999,
			wantAmount: 1990,
			wantFee:    9,
		},
		{
			name:       "small gross below rounding floor keeps zero fee",
			gross:      199,
			wantAmount: 199,
			wantFee:    0,
		},
		{
			name:    "zero gross rejected",
			gross:   0,
			wantErr: ErrInvalidAmount,
		},
		{
			name:    "negative gross rejected",
			gross:   -500,
			wantErr: ErrInvalidAmount,
		},
		{
			name:    "gross that would overflow the fee multiply rejected",
			gross:   math.MaxInt64/5 + 1,
			wantErr: ErrInvalidAmount,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			amount, fee, err := policy.Split(tt.gross)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("expected error %v, got %v", tt.wantErr, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if amount != tt.wantAmount {
				t.Fatalf("expected amount=%d, got %d", tt.wantAmount, amount)
			}
			if fee != tt.wantFee {
				t.Fatalf("expected fee=%d, got %d", tt.wantFee, fee)
			}
			if amount+fee != tt.gross {
				t.Fatalf("value not conserved: amount=%d fee=%d gross=%d", amount, fee, tt.gross)
			}
		})
	}
}

func TestFeePolicySplitRejectsMalformedPolicy(t *testing.T) {
	bad := []FeePolicy{
		{Numerator: -1, Denominator: 1000},
		{Numerator: 5, Denominator: 0},
		{Numerator: 1001, Denominator: 1000},
	}
	for _, p := range bad {
		if _, _, err := p.Split(1000); err == nil {
			t.Fatalf("expected error for policy %+v", p)
		}
	}
}

func TestTransferStatusTerminal(t *testing.T) {
	if StatusPending.Terminal() {
		t.Fatal("pending must not be terminal")
	}
	if !StatusConfirmed.Terminal() || !StatusCancelled.Terminal() {
		t.Fatal("confirmed and cancelled must be terminal")
	}
}

func TestCreateTransferRequestValidate(t *testing.T) {
	tests := []struct {
		name    string
		req     CreateTransferRequest
		wantErr error
	}{
		{name: "valid", req: CreateTransferRequest{Recipient: "SP2RECIPIENT", Amount: 1000}},
		{name: "blank recipient", req: CreateTransferRequest{Recipient: "   ", Amount: 1000}, wantErr: ErrInvalidRecipient},
		{name: "zero amount", req: CreateTransferRequest{Recipient: "SP2RECIPIENT"}, wantErr: ErrInvalidAmount},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.req.Validate()
			if tt.wantErr == nil && err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if tt.wantErr != nil && !errors.Is(err, tt.wantErr) {
				t.Fatalf("expected %v, got %v", tt.wantErr, err)
			}
		})
	}
}
