package repository

import (
	"errors"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/UsmanFarooq46/e-commerce-backend/internal/core/domain"
)

func TestTranslate(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want error
	}{
		{"no rows", pgx.ErrNoRows, domain.ErrNotFound},
		{"email unique", &pgconn.PgError{Code: "23505", ConstraintName: "accounts_email_live_uidx"}, domain.ErrDuplicateIdentifier},
		{"referral code unique", &pgconn.PgError{Code: "23505", ConstraintName: "accounts_referral_code_uidx"}, domain.ErrReferralCodeTaken},
		{"other unique", &pgconn.PgError{Code: "23505", ConstraintName: "addresses_single_default_uidx"}, domain.ErrStorageFailure},
		{"foreign key", &pgconn.PgError{Code: "23503"}, domain.ErrNotFound},
		{"network", errors.New("connection reset"), domain.ErrStorageFailure},
		{"domain passthrough", domain.ErrVersionConflict, domain.ErrVersionConflict},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := Translate("op", tc.err)
			if !errors.Is(got, tc.want) {
				t.Fatalf("Translate(%v) = %v, want %v", tc.err, got, tc.want)
			}
		})
	}

	if Translate("op", nil) != nil {
		t.Fatal("expected nil for nil error")
	}
}
