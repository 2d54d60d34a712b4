package usecase

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/UsmanFarooq46/e-commerce-backend/internal/core/domain"
	"github.com/UsmanFarooq46/e-commerce-backend/internal/core/port"
	"github.com/UsmanFarooq46/e-commerce-backend/internal/infra/logger"
	"github.com/UsmanFarooq46/e-commerce-backend/internal/infra/security"
)

// RegisterInput is the registration payload after transport binding.
type RegisterInput struct {
	Email        string
	Password     string
	FirstName    string
	LastName     string
	Phone        *string
	DateOfBirth  *time.Time
	Gender       domain.Gender
	Role         domain.Role
	Notes        *string
	ReferredBy   *string
	Preferences  domain.PreferenceOverrides
	ProfileImage *domain.ImageUpload
}

func defaultReferralCode() (string, error) {
	return security.GenerateReferralCode()
}

func (s *AccountService) persistRegistration(ctx context.Context, acc domain.Account, prefs domain.Preferences, cart domain.Cart) error {
	if s.uow != nil {
		return s.uow.WithinTx(ctx, func(ctx context.Context, repos port.TxRepositories) error {
			return createCompanions(ctx, repos, acc, prefs, cart)
		})
	}
	return s.registerWithCompensation(ctx, acc, prefs, cart)
}

// Register creates the account together with its preferences and cart.
// With a unit of work all three rows commit or none do; otherwise rows
// already written are deleted again in reverse order when a later step fails.
func (s *AccountService) Register(ctx context.Context, in RegisterInput) (account domain.Account, err error) {
	ctx, span := s.tracer.Start(ctx, "AccountService.Register")
	defer func() {
		s.metrics.ObserveRegistration(outcomeOf(err))
		endSpan(span, err)
	}()

	in.Email = domain.NormalizeEmail(in.Email)
	in.FirstName = strings.TrimSpace(in.FirstName)
	in.LastName = strings.TrimSpace(in.LastName)
	in.Phone = trimmed(in.Phone)
	in.Notes = s.sanitize(in.Notes)
	if in.Role == "" {
		in.Role = domain.RoleCustomer
	}
	if in.Gender == "" {
		in.Gender = domain.GenderPreferNotToSay
	}

	now := s.now()
	if err := s.validateRegistration(in, now); err != nil {
		return domain.Account{}, err
	}

	exists, err := s.accounts.ExistsByIdentifier(ctx, in.Email)
	if err != nil {
		return domain.Account{}, err
	}
	if exists {
		return domain.Account{}, domain.ErrDuplicateIdentifier
	}

	hash, err := s.hasher.Hash(in.Password)
	if err != nil {
		return domain.Account{}, fmt.Errorf("hash password: %w", err)
	}

	code, err := s.newReferralCode()
	if err != nil {
		return domain.Account{}, fmt.Errorf("generate referral code: %w", err)
	}

	acc := domain.Account{
		ID:           s.newID(),
		Email:        in.Email,
		PasswordHash: hash,
		FirstName:    in.FirstName,
		LastName:     in.LastName,
		Phone:        in.Phone,
		DateOfBirth:  in.DateOfBirth,
		Gender:       in.Gender,
		Role:         in.Role,
		IsActive:     true,
		ReferralCode: &code,
		ReferredBy:   in.ReferredBy,
		Notes:        in.Notes,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	prefs := domain.NewPreferences(s.newID(), acc.ID, in.Preferences, now)
	if err := prefs.Validate(); err != nil {
		return domain.Account{}, err
	}
	cart := domain.NewCart(s.newID(), acc.ID, now, s.cartTTL)

	// The image is stored before any row is written so a rejected upload
	// leaves nothing behind.
	if in.ProfileImage != nil {
		ref, err := s.storeAvatar(ctx, acc.ID, *in.ProfileImage)
		if err != nil {
			return domain.Account{}, err
		}
		acc.ProfileImage = &ref
	}

	err = s.persistRegistration(ctx, acc, prefs, cart)
	if errors.Is(err, domain.ErrReferralCodeTaken) {
		// Nothing was written, so a fresh code can be tried once.
		if code, err = s.newReferralCode(); err != nil {
			return domain.Account{}, fmt.Errorf("generate referral code: %w", err)
		}
		acc.ReferralCode = &code
		err = s.persistRegistration(ctx, acc, prefs, cart)
	}
	if err != nil {
		return domain.Account{}, err
	}

	logger.WithContext(ctx).Info("account registered",
		zap.String("account_id", acc.ID),
		zap.String("email", logger.MaskEmail(acc.Email)),
		zap.String("role", string(acc.Role)),
	)
	s.publish(ctx, "account.registered", func(ctx context.Context) error {
		return s.events.PublishAccountRegistered(ctx, domain.AccountRegisteredEvent{
			EventID:      s.newID(),
			AccountID:    acc.ID,
			Email:        acc.Email,
			Role:         acc.Role,
			ReferralCode: acc.ReferralCode,
			RegisteredAt: now,
			Metadata: map[string]any{
				"currency": prefs.Currency,
				"language": prefs.Language,
				"timezone": prefs.Timezone,
			},
		})
	})

	return acc.Sanitized(), nil
}

func createCompanions(ctx context.Context, repos port.TxRepositories, acc domain.Account, prefs domain.Preferences, cart domain.Cart) error {
	if err := repos.Accounts.Create(ctx, acc); err != nil {
		return err
	}
	if err := repos.Preferences.Create(ctx, prefs); err != nil {
		return fmt.Errorf("create preferences: %w", err)
	}
	if err := repos.Carts.Create(ctx, cart); err != nil {
		return fmt.Errorf("create cart: %w", err)
	}
	return nil
}

// registerWithCompensation performs the three writes in order and undoes the
// completed ones when a later write fails.
func (s *AccountService) registerWithCompensation(ctx context.Context, acc domain.Account, prefs domain.Preferences, cart domain.Cart) error {
	var undo []func(context.Context) error

	rollback := func(cause error) error {
		// The caller may already be gone. Compensation still has to run.
		cctx := context.WithoutCancel(ctx)
		var errs error
		for i := len(undo) - 1; i >= 0; i-- {
			errs = multierr.Append(errs, undo[i](cctx))
		}
		if errs != nil {
			s.logger.Error("registration compensation failed",
				zap.String("account_id", acc.ID),
				zap.Error(errs),
			)
		}
		return cause
	}

	if err := s.accounts.Create(ctx, acc); err != nil {
		return err
	}
	undo = append(undo, func(ctx context.Context) error { return s.accounts.Delete(ctx, acc.ID) })

	if err := s.prefs.Create(ctx, prefs); err != nil {
		return rollback(fmt.Errorf("create preferences: %w", err))
	}
	undo = append(undo, func(ctx context.Context) error { return s.prefs.DeleteByAccountID(ctx, acc.ID) })

	if err := s.carts.Create(ctx, cart); err != nil {
		return rollback(fmt.Errorf("create cart: %w", err))
	}
	return nil
}

func (s *AccountService) validateRegistration(in RegisterInput, now time.Time) error {
	verr := &domain.ValidationError{}
	if in.Email == "" {
		verr.Add("email", "email is required", nil)
	} else if addr, err := mail.ParseAddress(in.Email); err != nil || addr.Address != in.Email {
		verr.Add("email", "Please enter a valid email", in.Email)
	}
	checkName(verr, "firstName", in.FirstName)
	checkName(verr, "lastName", in.LastName)
	if !in.Role.Valid() {
		verr.Add("role", "role must be customer, admin, moderator, vendor or guest", in.Role)
	}
	if !validGender(in.Gender) {
		verr.Add("gender", "gender must be male, female, other or prefer_not_to_say", in.Gender)
	}
	if in.Phone != nil && *in.Phone != "" && !domain.PhonePattern.MatchString(*in.Phone) {
		verr.Add("phone", "Please enter a valid phone number", *in.Phone)
	}
	if in.DateOfBirth != nil && !in.DateOfBirth.Before(now) {
		verr.Add("dateOfBirth", "Date of birth must be in the past", in.DateOfBirth)
	}
	if err := s.policy.Validate(in.Password, in.Email, in.FirstName, in.LastName); err != nil {
		var pv *domain.ValidationError
		if errors.As(err, &pv) {
			verr.Fields = append(verr.Fields, pv.Fields...)
		} else {
			verr.Add("password", err.Error(), nil)
		}
	}
	return verr.OrNil()
}
