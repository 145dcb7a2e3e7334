package config

import "testing"

func TestLoadDefaults(t *testing.T) {
	for _, key := range []string{
		"PORT", "ALLOWED_ORIGIN", "DATABASE_URL", "REDIS_ADDR", "REDIS_DB",
		"SHOP_NAME", "DIMENSION_TTL_SECONDS", "LOW_STOCK_THRESHOLD",
		"AUTH_SECRET", "ACCESS_TOKEN_TTL_MINUTES",
	} {
		t.Setenv(key, "")
	}

	cfg := Load()
	if cfg.Port != "8080" {
		t.Fatalf("expected default port 8080, got %q", cfg.Port)
	}
	if cfg.Address() != ":8080" {
		t.Fatalf("unexpected address %q", cfg.Address())
	}
	if cfg.DimensionTTLSeconds != 30 {
		t.Fatalf("expected dimension TTL 30, got %d", cfg.DimensionTTLSeconds)
	}
	if cfg.LowStockThreshold != 2 {
		t.Fatalf("expected low stock threshold 2, got %d", cfg.LowStockThreshold)
	}
	if cfg.AccessTokenTTLMinutes != 480 {
		t.Fatalf("expected token TTL 480, got %d", cfg.AccessTokenTTLMinutes)
	}
	if cfg.ShopName != "main-shop" {
		t.Fatalf("expected default shop name, got %q", cfg.ShopName)
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("PORT", "9999")
	t.Setenv("LOW_STOCK_THRESHOLD", "5")
	t.Setenv("AUTH_SECRET", "  padded-secret  ")
	t.Setenv("DIMENSION_TTL_SECONDS", "not-a-number")

	cfg := Load()
	if cfg.Port != "9999" {
		t.Fatalf("expected port override, got %q", cfg.Port)
	}
	if cfg.LowStockThreshold != 5 {
		t.Fatalf("expected threshold 5, got %d", cfg.LowStockThreshold)
	}
	if cfg.AuthSecret != "padded-secret" {
		t.Fatalf("expected trimmed secret, got %q", cfg.AuthSecret)
	}
	// Bad numeric values fall back to the default.
	if cfg.DimensionTTLSeconds != 30 {
		t.Fatalf("expected TTL fallback 30, got %d", cfg.DimensionTTLSeconds)
	}
}
