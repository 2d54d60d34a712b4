package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	uuid "github.com/google/uuid"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/UsmanFarooq46/e-commerce-backend/internal/core/domain"
	"github.com/UsmanFarooq46/e-commerce-backend/internal/core/port"
	"github.com/UsmanFarooq46/e-commerce-backend/internal/infra/config"
	"github.com/UsmanFarooq46/e-commerce-backend/internal/infra/logger"
	"github.com/UsmanFarooq46/e-commerce-backend/internal/infra/telemetry"
)

const tracerName = "github.com/UsmanFarooq46/e-commerce-backend/internal/usecase"

var (
	// ErrUnauthenticated indicates a missing, malformed or expired access token.
	ErrUnauthenticated = errors.New("invalid or expired token")
	// ErrForbidden indicates the caller's role may not perform the operation.
	ErrForbidden = errors.New("insufficient role")
)

// AccountDependencies groups the collaborators of AccountService.
type AccountDependencies struct {
	Accounts    port.AccountRepository
	Preferences port.PreferencesRepository
	Carts       port.CartRepository
	// UnitOfWork is optional. Without it registration falls back to
	// ordered writes with compensating deletes.
	UnitOfWork port.UnitOfWork
	Hasher     port.PasswordHasher
	Policy     port.PasswordPolicy
	Tokens     port.TokenIssuer
	Sanitizer  port.TextSanitizer
	Avatars    port.AvatarStorage
	Events     port.EventPublisher
	Metrics    *telemetry.Metrics
	Logger     *zap.Logger
	Lockout    config.LockoutSettings
	CartExpiry time.Duration
}

// AccountService is the account lifecycle orchestrator.
type AccountService struct {
	accounts  port.AccountRepository
	prefs     port.PreferencesRepository
	carts     port.CartRepository
	uow       port.UnitOfWork
	hasher    port.PasswordHasher
	policy    port.PasswordPolicy
	tokens    port.TokenIssuer
	sanitizer port.TextSanitizer
	avatars   port.AvatarStorage
	events    port.EventPublisher
	metrics   *telemetry.Metrics
	logger    *zap.Logger
	lockout   config.LockoutSettings
	cartTTL   time.Duration
	tracer    trace.Tracer

	now             func() time.Time
	newID           func() string
	newReferralCode func() (string, error)
}

// NewAccountService constructs an AccountService.
func NewAccountService(deps AccountDependencies) (*AccountService, error) {
	switch {
	case deps.Accounts == nil:
		return nil, errors.New("account repository is required")
	case deps.Preferences == nil:
		return nil, errors.New("preferences repository is required")
	case deps.Carts == nil:
		return nil, errors.New("cart repository is required")
	case deps.Hasher == nil:
		return nil, errors.New("password hasher is required")
	case deps.Tokens == nil:
		return nil, errors.New("token issuer is required")
	}

	log := deps.Logger
	if log == nil {
		log = zap.NewNop()
	}
	policy := deps.Policy
	if policy == nil {
		policy = minLengthPolicy{min: 6}
	}

	return &AccountService{
		accounts:        deps.Accounts,
		prefs:           deps.Preferences,
		carts:           deps.Carts,
		uow:             deps.UnitOfWork,
		hasher:          deps.Hasher,
		policy:          policy,
		tokens:          deps.Tokens,
		sanitizer:       deps.Sanitizer,
		avatars:         deps.Avatars,
		events:          deps.Events,
		metrics:         deps.Metrics,
		logger:          log,
		lockout:         deps.Lockout,
		cartTTL:         deps.CartExpiry,
		tracer:          telemetry.Tracer(tracerName),
		now:             func() time.Time { return time.Now().UTC() },
		newID:           uuid.NewString,
		newReferralCode: defaultReferralCode,
	}, nil
}

// LoginInput carries credentials and request metadata for Login.
type LoginInput struct {
	Email     string
	Password  string
	IPAddress string
	UserAgent string
}

// LoginResult is returned by a successful Login.
type LoginResult struct {
	Account   domain.Account
	Token     string
	ExpiresAt time.Time
}

// Login authenticates the credentials and issues a token.
func (s *AccountService) Login(ctx context.Context, in LoginInput) (result LoginResult, err error) {
	ctx, span := s.tracer.Start(ctx, "AccountService.Login")
	defer func() { endSpan(span, err) }()

	email := domain.NormalizeEmail(in.Email)
	if email == "" || in.Password == "" {
		return LoginResult{}, domain.NewValidationError("email", "email and password are required", nil)
	}

	account, err := s.accounts.FindActiveByIdentifier(ctx, email)
	if err != nil {
		s.metrics.ObserveLogin(outcomeOf(err))
		return LoginResult{}, err
	}

	now := s.now()
	if !account.IsActive {
		s.metrics.ObserveLogin("disabled")
		return LoginResult{}, domain.ErrAccountDisabled
	}
	if s.lockoutEnabled() && account.IsLocked(now) {
		s.metrics.ObserveLogin("locked")
		return LoginResult{}, domain.ErrAccountLocked
	}

	ok, err := s.hasher.Verify(in.Password, account.PasswordHash)
	if err != nil {
		s.metrics.ObserveLogin("error")
		return LoginResult{}, fmt.Errorf("verify password: %w", err)
	}
	if !ok {
		s.recordFailedLogin(ctx, *account, now)
		s.metrics.ObserveLogin("invalid_credential")
		return LoginResult{}, domain.ErrInvalidCredential
	}

	if err := s.accounts.RecordLogin(ctx, account.ID, now); err != nil {
		s.metrics.ObserveLogin("error")
		return LoginResult{}, err
	}
	account.LastLogin = &now
	account.LoginAttempts = 0
	account.LockUntil = nil

	token, expiresAt, err := s.tokens.Issue(ctx, *account, now)
	if err != nil {
		s.metrics.ObserveLogin("error")
		return LoginResult{}, fmt.Errorf("issue token: %w", err)
	}

	s.publish(ctx, "account.logged_in", func(ctx context.Context) error {
		return s.events.PublishAccountLoggedIn(ctx, domain.AccountLoggedInEvent{
			EventID:    s.newID(),
			AccountID:  account.ID,
			Role:       account.Role,
			LoggedInAt: now,
			IPAddress:  optionalString(in.IPAddress),
			UserAgent:  optionalString(in.UserAgent),
		})
	})
	s.metrics.ObserveLogin("success")

	return LoginResult{Account: account.Sanitized(), Token: token, ExpiresAt: expiresAt}, nil
}

func (s *AccountService) lockoutEnabled() bool {
	return s.lockout.MaxAttempts > 0
}

// recordFailedLogin bumps the counter only when lockout is enabled. A failure
// to persist the counter does not change the caller-visible outcome.
func (s *AccountService) recordFailedLogin(ctx context.Context, account domain.Account, now time.Time) {
	if !s.lockoutEnabled() {
		return
	}
	lockFor := s.lockout.LockDuration
	if lockFor <= 0 {
		lockFor = 15 * time.Minute
	}
	attempts, err := s.accounts.RecordFailedLogin(ctx, account.ID, s.lockout.MaxAttempts, now.Add(lockFor), now)
	if err != nil {
		logger.WithContext(ctx).Warn("record failed login", zap.String("account_id", account.ID), zap.Error(err))
		return
	}
	if attempts >= s.lockout.MaxAttempts {
		logger.WithContext(ctx).Info("account locked after failed logins",
			zap.String("account_id", account.ID),
			zap.Int("attempts", attempts),
		)
	}
}

// Authenticate resolves an access token to its live account.
func (s *AccountService) Authenticate(ctx context.Context, token string) (*domain.Account, *port.TokenClaims, error) {
	claims, err := s.tokens.Parse(ctx, token)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %v", ErrUnauthenticated, err)
	}
	account, err := s.accounts.GetByID(ctx, claims.AccountID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, nil, fmt.Errorf("%w: account no longer exists", ErrUnauthenticated)
		}
		return nil, nil, err
	}
	if !account.IsActive {
		return nil, nil, domain.ErrAccountDisabled
	}
	sanitized := account.Sanitized()
	return &sanitized, claims, nil
}

// GetProfile returns the credential-stripped account.
func (s *AccountService) GetProfile(ctx context.Context, accountID string) (domain.Account, error) {
	account, err := s.accounts.GetByID(ctx, strings.TrimSpace(accountID))
	if err != nil {
		return domain.Account{}, err
	}
	return account.Sanitized(), nil
}

// ListAccounts lists non-deleted accounts, newest first.
func (s *AccountService) ListAccounts(ctx context.Context, filter domain.AccountFilter) ([]domain.Account, error) {
	accounts, err := s.accounts.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	out := make([]domain.Account, 0, len(accounts))
	for _, a := range accounts {
		out = append(out, a.Sanitized())
	}
	return out, nil
}

// UpdateProfile applies a self-service patch. Email and role cannot be part of
// the patch, so requests that carry them simply have those fields dropped.
func (s *AccountService) UpdateProfile(ctx context.Context, accountID string, patch domain.ProfilePatch) (account domain.Account, err error) {
	ctx, span := s.tracer.Start(ctx, "AccountService.UpdateProfile")
	defer func() { endSpan(span, err) }()

	now := s.now()
	patch = s.sanitizePatch(patch)
	if err := validateProfilePatch(patch, now); err != nil {
		return domain.Account{}, err
	}
	if patch.Empty() {
		return s.GetProfile(ctx, accountID)
	}

	updated, err := s.accounts.UpdateProfile(ctx, accountID, patch, now)
	if err != nil {
		return domain.Account{}, err
	}
	return updated.Sanitized(), nil
}

// UpdateProfileImage stores the upload and points the profile at it.
func (s *AccountService) UpdateProfileImage(ctx context.Context, accountID string, upload domain.ImageUpload) (domain.Account, error) {
	if _, err := s.accounts.GetByID(ctx, accountID); err != nil {
		return domain.Account{}, err
	}
	ref, err := s.storeAvatar(ctx, accountID, upload)
	if err != nil {
		return domain.Account{}, err
	}
	return s.UpdateProfile(ctx, accountID, domain.ProfilePatch{ProfileImage: &ref})
}

func (s *AccountService) storeAvatar(ctx context.Context, accountID string, upload domain.ImageUpload) (string, error) {
	if s.avatars == nil {
		return "", fmt.Errorf("%w: image uploads are not configured", domain.ErrUploadRejected)
	}
	return s.avatars.Store(ctx, accountID, upload)
}

// ForgotPassword replaces the credential of a non-deleted account.
func (s *AccountService) ForgotPassword(ctx context.Context, email, newPassword string) error {
	email = domain.NormalizeEmail(email)
	if email == "" {
		return domain.NewValidationError("email", "email is required", nil)
	}
	if err := s.policy.Validate(newPassword, email); err != nil {
		return err
	}

	account, err := s.accounts.FindActiveByIdentifier(ctx, email)
	if err != nil {
		return err
	}

	hash, err := s.hasher.Hash(newPassword)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	now := s.now()
	if err := s.accounts.UpdatePassword(ctx, account.ID, hash, now); err != nil {
		return err
	}

	s.publish(ctx, "account.password.changed", func(ctx context.Context) error {
		return s.events.PublishPasswordChanged(ctx, domain.PasswordChangedEvent{
			EventID:   s.newID(),
			AccountID: account.ID,
			ChangedAt: now,
			Method:    "forgot_password",
		})
	})
	return nil
}

// Disable marks the account inactive and deleted and deactivates its cart.
// Preferences are retained. There is no way back.
func (s *AccountService) Disable(ctx context.Context, actorID, accountID string) (account domain.Account, err error) {
	ctx, span := s.tracer.Start(ctx, "AccountService.Disable")
	defer func() { endSpan(span, err) }()

	accountID = strings.TrimSpace(accountID)
	current, err := s.accounts.GetByID(ctx, accountID)
	if err != nil {
		return domain.Account{}, err
	}

	now := s.now()
	if s.uow != nil {
		err = s.uow.WithinTx(ctx, func(ctx context.Context, repos port.TxRepositories) error {
			return disableCascade(ctx, repos.Accounts, repos.Carts, accountID, now)
		})
	} else {
		err = disableCascade(ctx, s.accounts, s.carts, accountID, now)
	}
	if err != nil {
		return domain.Account{}, err
	}

	current.IsActive = false
	current.IsDeleted = true
	current.UpdatedAt = now

	logger.WithContext(ctx).Info("account disabled",
		zap.String("account_id", accountID),
		zap.String("actor_id", actorID),
	)
	s.publish(ctx, "account.disabled", func(ctx context.Context) error {
		return s.events.PublishAccountDisabled(ctx, domain.AccountDisabledEvent{
			EventID:    s.newID(),
			AccountID:  accountID,
			DisabledBy: actorID,
			DisabledAt: now,
		})
	})
	return current.Sanitized(), nil
}

func disableCascade(ctx context.Context, accounts port.AccountRepository, carts port.CartRepository, accountID string, now time.Time) error {
	if err := accounts.Disable(ctx, accountID, now); err != nil {
		return err
	}
	if err := carts.Deactivate(ctx, accountID, now); err != nil && !errors.Is(err, domain.ErrNotFound) {
		return err
	}
	return nil
}

// publish sends an event when a publisher is wired. Delivery failures are
// logged and never fail the calling operation.
func (s *AccountService) publish(ctx context.Context, event string, send func(context.Context) error) {
	if s.events == nil {
		return
	}
	if err := send(ctx); err != nil {
		logger.WithContext(ctx).Warn("publish event failed", zap.String("event", event), zap.Error(err))
	}
}

func (s *AccountService) sanitize(v *string) *string {
	if v == nil || s.sanitizer == nil {
		return v
	}
	clean := strings.TrimSpace(s.sanitizer.Sanitize(*v))
	return &clean
}

func (s *AccountService) sanitizePatch(p domain.ProfilePatch) domain.ProfilePatch {
	p.FirstName = trimmed(p.FirstName)
	p.LastName = trimmed(p.LastName)
	p.Phone = trimmed(p.Phone)
	p.Notes = s.sanitize(p.Notes)
	return p
}

func validateProfilePatch(p domain.ProfilePatch, now time.Time) error {
	verr := &domain.ValidationError{}
	if p.FirstName != nil {
		checkName(verr, "firstName", *p.FirstName)
	}
	if p.LastName != nil {
		checkName(verr, "lastName", *p.LastName)
	}
	if p.Phone != nil && *p.Phone != "" && !domain.PhonePattern.MatchString(*p.Phone) {
		verr.Add("phone", "Please enter a valid phone number", *p.Phone)
	}
	if p.DateOfBirth != nil && !p.DateOfBirth.Before(now) {
		verr.Add("dateOfBirth", "Date of birth must be in the past", p.DateOfBirth)
	}
	if p.Gender != nil && !validGender(*p.Gender) {
		verr.Add("gender", "gender must be male, female, other or prefer_not_to_say", *p.Gender)
	}
	if p.Notes != nil && len([]rune(*p.Notes)) > 500 {
		verr.Add("notes", "Notes cannot exceed 500 characters", len([]rune(*p.Notes)))
	}
	return verr.OrNil()
}

func checkName(verr *domain.ValidationError, field, value string) {
	n := len([]rune(value))
	if n < 2 || n > 50 {
		verr.Add(field, field+" must be between 2 and 50 characters", value)
	}
}

func validGender(g domain.Gender) bool {
	switch g {
	case domain.GenderMale, domain.GenderFemale, domain.GenderOther, domain.GenderPreferNotToSay:
		return true
	}
	return false
}

func trimmed(v *string) *string {
	if v == nil {
		return nil
	}
	t := strings.TrimSpace(*v)
	return &t
}

func optionalString(v string) *string {
	v = strings.TrimSpace(v)
	if v == "" {
		return nil
	}
	return &v
}

// outcomeOf labels an error for the outcome metrics.
func outcomeOf(err error) string {
	switch {
	case err == nil:
		return "success"
	case errors.Is(err, domain.ErrNotFound):
		return "not_found"
	case errors.Is(err, domain.ErrDuplicateIdentifier):
		return "duplicate"
	case errors.Is(err, domain.ErrValidationFailed):
		return "invalid"
	case errors.Is(err, domain.ErrUploadRejected):
		return "upload_rejected"
	default:
		return "error"
	}
}

func endSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		if !domain.IsDomainError(err) || errors.Is(err, domain.ErrStorageFailure) {
			span.SetStatus(codes.Error, err.Error())
		}
	}
	span.End()
}

// minLengthPolicy is used when no policy is wired.
type minLengthPolicy struct {
	min int
}

func (p minLengthPolicy) Validate(password string, _ ...string) error {
	if len([]rune(password)) < p.min {
		return domain.NewValidationError("password", fmt.Sprintf("password must be at least %d characters", p.min), nil)
	}
	return nil
}
