package config

import (
	"os"
	"testing"

	"github.com/spf13/viper"
)

func TestLoadConfig_Defaults(t *testing.T) {
	viper.Reset()
	t.Cleanup(viper.Reset)

	for _, key := range []string{
		"FEE_RATE_NUMERATOR", "FEE_RATE_DENOMINATOR", "COOLING_PERIOD_BLOCKS",
		"CUSTODY_PRINCIPAL", "PLATFORM_PRINCIPAL", "CONFIRM_RATE_LIMIT_PER_MINUTE",
	} {
		unsetEnvWithCleanup(t, key)
	}

	cfg, err := LoadConfig(t.TempDir())
	if err != nil {
		t.Fatalf("LoadConfig returned error: %v", err)
	}
	if cfg.FeeRateNumerator != 5 || cfg.FeeRateDenominator != 1000 {
		t.Fatalf("expected default fee rate 5/1000, got %d/%d", cfg.FeeRateNumerator, cfg.FeeRateDenominator)
	}
	if cfg.CoolingPeriodBlocks != 200 {
		t.Fatalf("expected default cooling period 200, got %d", cfg.CoolingPeriodBlocks)
	}
	if cfg.CustodyPrincipal == "" || cfg.PlatformPrincipal == "" {
		t.Fatal("expected default custody and platform principals")
	}
	if cfg.ConfirmRateLimitPerMin != 30 {
		t.Fatalf("expected default confirm rate limit 30, got %d", cfg.ConfirmRateLimitPerMin)
	}
}

func TestLoadConfig_UsesJWTSecretAlias(t *testing.T) {
	viper.Reset()
	t.Cleanup(viper.Reset)

	unsetEnvWithCleanup(t, "JWT_SECRET")
	setEnvWithCleanup(t, "ESCROW_SERVICE_JWT_SECRET", "alias-only-secret")

	cfg, err := LoadConfig(t.TempDir())
	if err != nil {
		t.Fatalf("LoadConfig returned error: %v", err)
	}
	if cfg.JWTSecret != "alias-only-secret" {
		t.Fatalf("expected JWTSecret from alias env var, got %q", cfg.JWTSecret)
	}
}

func TestLoadConfig_ClampsMalformedFeeRate(t *testing.T) {
	viper.Reset()
	t.Cleanup(viper.Reset)

	setEnvWithCleanup(t, "FEE_RATE_NUMERATOR", "2000")
	setEnvWithCleanup(t, "FEE_RATE_DENOMINATOR", "1000")

	cfg, err := LoadConfig(t.TempDir())
	if err != nil {
		t.Fatalf("LoadConfig returned error: %v", err)
	}
	if cfg.FeeRateNumerator != cfg.FeeRateDenominator {
		t.Fatalf("expected numerator capped at denominator, got %d/%d", cfg.FeeRateNumerator, cfg.FeeRateDenominator)
	}
}

func TestLoadConfig_NegativeCoolingPeriodFallsBackToDefault(t *testing.T) {
	viper.Reset()
	t.Cleanup(viper.Reset)

	setEnvWithCleanup(t, "COOLING_PERIOD_BLOCKS", "-1")

	cfg, err := LoadConfig(t.TempDir())
	if err != nil {
		t.Fatalf("LoadConfig returned error: %v", err)
	}
	if cfg.CoolingPeriodBlocks != 200 {
		t.Fatalf("expected default cooling period 200, got %d", cfg.CoolingPeriodBlocks)
	}
}

func setEnvWithCleanup(t *testing.T, key string, value string) {
	t.Helper()
	prev, hadPrev := os.LookupEnv(key)
	if err := os.Setenv(key, value); err != nil {
		t.Fatalf("failed to set env %s: %v", key, err)
	}
	t.Cleanup(func() {
		if hadPrev {
			_ = os.Setenv(key, prev)
			return
		}
		_ = os.Unsetenv(key)
	})
}

func unsetEnvWithCleanup(t *testing.T, key string) {
	t.Helper()
	prev, hadPrev := os.LookupEnv(key)
	if err := os.Unsetenv(key); err != nil {
		t.Fatalf("failed to unset env %s: %v", key, err)
	}
	t.Cleanup(func() {
		if hadPrev {
			_ = os.Setenv(key, prev)
			return
		}
		_ = os.Unsetenv(key)
	})
}
