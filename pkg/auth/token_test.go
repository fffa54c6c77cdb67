package auth

import (
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/marktkorb/marktkorb-backend/pkg/config"
	"github.com/marktkorb/marktkorb-backend/pkg/enums"
)

func testJWTConfig() config.JWTConfig {
	return config.JWTConfig{
		Secret:            "test-secret",
		Issuer:            "marktkorb",
		ExpirationMinutes: 60,
	}
}

func TestMintAndParseAccessToken(t *testing.T) {
	cfg := testJWTConfig()
	now := time.Now().UTC()
	sellerID := uuid.New()

	signed, err := MintAccessToken(cfg, now, AccessTokenPayload{
		UserID:   uuid.New(),
		Role:     enums.UserRoleSeller,
		SellerID: &sellerID,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	claims, err := ParseAccessToken(cfg, signed)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if claims.Role != enums.UserRoleSeller {
		t.Fatalf("expected seller role, got %s", claims.Role)
	}
	if claims.SellerID == nil || *claims.SellerID != sellerID {
		t.Fatal("seller id claim did not round trip")
	}
	if claims.ID == "" {
		t.Fatal("a jti must be assigned")
	}
}

func TestMintAccessTokenValidation(t *testing.T) {
	now := time.Now().UTC()

	cfg := testJWTConfig()
	cfg.Secret = ""
	if _, err := MintAccessToken(cfg, now, AccessTokenPayload{UserID: uuid.New(), Role: enums.UserRoleBuyer}); err == nil {
		t.Fatal("expected error without secret")
	}

	cfg = testJWTConfig()
	if _, err := MintAccessToken(cfg, now, AccessTokenPayload{UserID: uuid.Nil, Role: enums.UserRoleBuyer}); err == nil {
		t.Fatal("expected error without user id")
	}

	if _, err := MintAccessToken(cfg, now, AccessTokenPayload{UserID: uuid.New(), Role: enums.UserRole("admin")}); err == nil {
		t.Fatal("expected error for unknown role")
	}
}

func TestParseAccessTokenRejectsWrongSecret(t *testing.T) {
	cfg := testJWTConfig()
	signed, err := MintAccessToken(cfg, time.Now().UTC(), AccessTokenPayload{
		UserID: uuid.New(),
		Role:   enums.UserRoleBuyer,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	other := testJWTConfig()
	other.Secret = "other-secret"
	if _, err := ParseAccessToken(other, signed); err == nil {
		t.Fatal("expected error for wrong secret")
	}
}

func TestParseAccessTokenRejectsExpired(t *testing.T) {
	cfg := testJWTConfig()
	signed, err := MintAccessToken(cfg, time.Now().UTC().Add(-2*time.Hour), AccessTokenPayload{
		UserID: uuid.New(),
		Role:   enums.UserRoleBuyer,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := ParseAccessToken(cfg, signed); err == nil {
		t.Fatal("expected error for expired token")
	}
}
