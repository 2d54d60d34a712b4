package repository

import (
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/UsmanFarooq46/e-commerce-backend/internal/core/domain"
)

const (
	uniqueViolation     = "23505"
	foreignKeyViolation = "23503"
)

// Translate maps driver errors onto the domain error taxonomy. Unique
// violations on the email index become ErrDuplicateIdentifier and those on
// the referral code index ErrReferralCodeTaken; any other
// unexpected failure is wrapped as a StorageError tagged with op.
func Translate(op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.ErrNotFound
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case uniqueViolation:
			switch pgErr.ConstraintName {
			case "accounts_email_live_uidx":
				return domain.ErrDuplicateIdentifier
			case "accounts_referral_code_uidx":
				return domain.ErrReferralCodeTaken
			}
		case foreignKeyViolation:
			return domain.ErrNotFound
		}
	}
	return domain.NewStorageError(op, err)
}
