package usecase

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"go.uber.org/zap/zaptest"

	"github.com/UsmanFarooq46/e-commerce-backend/internal/core/domain"
	"github.com/UsmanFarooq46/e-commerce-backend/internal/infra/config"
	"github.com/UsmanFarooq46/e-commerce-backend/internal/infra/telemetry"
)

var fixedNow = time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

type accountFixture struct {
	svc     *AccountService
	store   *memStore
	uow     *fakeUnitOfWork
	events  *recordingEvents
	metrics *telemetry.Metrics
}

type fixtureOption func(*AccountDependencies)

func withoutUnitOfWork() fixtureOption {
	return func(d *AccountDependencies) { d.UnitOfWork = nil }
}

func withLockout(attempts int, d time.Duration) fixtureOption {
	return func(deps *AccountDependencies) {
		deps.Lockout = config.LockoutSettings{MaxAttempts: attempts, LockDuration: d}
	}
}

func withAvatars(a fakeAvatars) fixtureOption {
	return func(d *AccountDependencies) { d.Avatars = a }
}

func newAccountFixture(t *testing.T, opts ...fixtureOption) *accountFixture {
	t.Helper()

	store := newMemStore()
	uow := &fakeUnitOfWork{s: store}
	events := &recordingEvents{}
	metrics, err := telemetry.NewMetrics(prometheus.NewRegistry())
	if err != nil {
		t.Fatalf("NewMetrics: %v", err)
	}

	deps := AccountDependencies{
		Accounts:    fakeAccounts{store},
		Preferences: fakePreferences{store},
		Carts:       fakeCarts{store},
		UnitOfWork:  uow,
		Hasher:      fakeHasher{},
		Tokens:      fakeTokens{},
		Sanitizer:   tagStripper{},
		Events:      events,
		Metrics:     metrics,
		Logger:      zaptest.NewLogger(t),
	}
	for _, opt := range opts {
		opt(&deps)
	}

	svc, err := NewAccountService(deps)
	if err != nil {
		t.Fatalf("NewAccountService: %v", err)
	}
	svc.now = func() time.Time { return fixedNow }
	seq := 0
	svc.newID = func() string {
		seq++
		return fmt.Sprintf("id-%03d", seq)
	}
	codes := 0
	svc.newReferralCode = func() (string, error) {
		codes++
		return fmt.Sprintf("ABC%03d", 122+codes), nil
	}

	return &accountFixture{svc: svc, store: store, uow: uow, events: events, metrics: metrics}
}

func validRegistration() RegisterInput {
	return RegisterInput{
		Email:     "  Ada@Example.com ",
		Password:  "secret1",
		FirstName: "Ada",
		LastName:  "Lovelace",
	}
}

func TestRegisterCreatesAccountWithCompanions(t *testing.T) {
	f := newAccountFixture(t)

	account, err := f.svc.Register(context.Background(), validRegistration())
	if err != nil {
		t.Fatalf("Register returned error: %v", err)
	}

	if account.Email != "ada@example.com" {
		t.Fatalf("expected normalized email, got %q", account.Email)
	}
	if account.PasswordHash != "" {
		t.Fatal("expected credential hash to be stripped")
	}
	if account.Role != domain.RoleCustomer || account.Gender != domain.GenderPreferNotToSay {
		t.Fatalf("unexpected defaults: role=%s gender=%s", account.Role, account.Gender)
	}
	if account.ReferralCode == nil || *account.ReferralCode != "ABC123" {
		t.Fatalf("expected referral code, got %v", account.ReferralCode)
	}

	if len(f.store.accounts) != 1 || len(f.store.prefs) != 1 || len(f.store.carts) != 1 {
		t.Fatalf("expected one row each, got accounts=%d prefs=%d carts=%d",
			len(f.store.accounts), len(f.store.prefs), len(f.store.carts))
	}
	stored := f.store.accounts[account.ID]
	if stored.PasswordHash != "hashed:secret1" {
		t.Fatalf("expected stored hash, got %q", stored.PasswordHash)
	}

	prefs := f.store.prefs[account.ID]
	if prefs.Currency != domain.DefaultCurrency || prefs.Language != "en" || prefs.Timezone != "Asia/Karachi" {
		t.Fatalf("unexpected preference defaults: %+v", prefs)
	}
	cart := f.store.carts[account.ID]
	if !cart.IsActive || len(cart.Items) != 0 || !cart.ExpiresAt.Equal(fixedNow.Add(domain.DefaultCartExpiry)) {
		t.Fatalf("unexpected cart: %+v", cart)
	}

	if f.uow.calls != 1 {
		t.Fatalf("expected registration inside one unit of work, got %d", f.uow.calls)
	}
	if len(f.events.registered) != 1 || f.events.registered[0].AccountID != account.ID {
		t.Fatalf("expected registered event, got %+v", f.events.registered)
	}
	if got := testutil.ToFloat64(f.metrics.Registrations.WithLabelValues("success")); got != 1 {
		t.Fatalf("expected registration metric, got %v", got)
	}
}

func TestRegisterAppliesPreferenceOverrides(t *testing.T) {
	f := newAccountFixture(t)

	in := validRegistration()
	in.Preferences = domain.PreferenceOverrides{Currency: "USD", Language: "fr"}
	account, err := f.svc.Register(context.Background(), in)
	if err != nil {
		t.Fatalf("Register returned error: %v", err)
	}

	prefs := f.store.prefs[account.ID]
	if prefs.Currency != "USD" || prefs.Language != "fr" || prefs.Timezone != domain.DefaultTimezone {
		t.Fatalf("unexpected preferences: %+v", prefs)
	}
}

func TestRegisterRejectsLiveDuplicate(t *testing.T) {
	f := newAccountFixture(t)
	ctx := context.Background()

	if _, err := f.svc.Register(ctx, validRegistration()); err != nil {
		t.Fatalf("first Register returned error: %v", err)
	}

	in := validRegistration()
	in.Email = "ADA@example.com"
	_, err := f.svc.Register(ctx, in)
	if !errors.Is(err, domain.ErrDuplicateIdentifier) {
		t.Fatalf("expected ErrDuplicateIdentifier, got %v", err)
	}
}

func TestRegisterAllowsEmailOfDeletedAccount(t *testing.T) {
	f := newAccountFixture(t)
	ctx := context.Background()

	first, err := f.svc.Register(ctx, validRegistration())
	if err != nil {
		t.Fatalf("Register returned error: %v", err)
	}
	if _, err := f.svc.Disable(ctx, "admin", first.ID); err != nil {
		t.Fatalf("Disable returned error: %v", err)
	}

	second, err := f.svc.Register(ctx, validRegistration())
	if err != nil {
		t.Fatalf("expected re-registration to succeed, got %v", err)
	}
	if second.ID == first.ID {
		t.Fatal("expected a new account id")
	}
}

func TestRegisterRetriesReferralCodeCollision(t *testing.T) {
	for name, opts := range map[string][]fixtureOption{
		"unit of work": nil,
		"compensation": {withoutUnitOfWork()},
	} {
		t.Run(name, func(t *testing.T) {
			f := newAccountFixture(t, opts...)
			taken := "ABC123"
			f.store.accounts["holder"] = domain.Account{ID: "holder", Email: "grace@example.com", ReferralCode: &taken}

			codes := []string{"ABC123", "XYZ789"}
			calls := 0
			f.svc.newReferralCode = func() (string, error) {
				calls++
				return codes[calls-1], nil
			}

			account, err := f.svc.Register(context.Background(), validRegistration())
			if err != nil {
				t.Fatalf("Register returned error: %v", err)
			}
			if calls != 2 {
				t.Fatalf("expected one regeneration, got %d calls", calls)
			}
			if account.ReferralCode == nil || *account.ReferralCode != "XYZ789" {
				t.Fatalf("expected the regenerated code, got %v", account.ReferralCode)
			}
			if len(f.store.accounts) != 2 || len(f.store.prefs) != 1 || len(f.store.carts) != 1 {
				t.Fatalf("unexpected rows: accounts=%d prefs=%d carts=%d",
					len(f.store.accounts), len(f.store.prefs), len(f.store.carts))
			}
		})
	}
}

func TestRegisterRetriesReferralCodeOnlyOnce(t *testing.T) {
	f := newAccountFixture(t)
	taken := "ABC123"
	f.store.accounts["holder"] = domain.Account{ID: "holder", Email: "grace@example.com", ReferralCode: &taken}

	calls := 0
	f.svc.newReferralCode = func() (string, error) {
		calls++
		return taken, nil
	}

	_, err := f.svc.Register(context.Background(), validRegistration())
	if !errors.Is(err, domain.ErrReferralCodeTaken) {
		t.Fatalf("expected ErrReferralCodeTaken, got %v", err)
	}
	if !errors.Is(err, domain.ErrStorageFailure) {
		t.Fatalf("expected the collision to remain a storage failure, got %v", err)
	}
	if calls != 2 {
		t.Fatalf("expected exactly one retry, got %d calls", calls)
	}
	if len(f.store.accounts) != 1 || len(f.store.prefs) != 0 || len(f.store.carts) != 0 {
		t.Fatal("expected nothing written for the rejected registration")
	}
}

func TestRegisterValidation(t *testing.T) {
	f := newAccountFixture(t)
	future := fixedNow.Add(24 * time.Hour)
	badPhone := "0123"

	cases := map[string]func(*RegisterInput){
		"bad email":      func(in *RegisterInput) { in.Email = "not-an-email" },
		"short password": func(in *RegisterInput) { in.Password = "abc" },
		"short name":     func(in *RegisterInput) { in.FirstName = "A" },
		"unknown role":   func(in *RegisterInput) { in.Role = "root" },
		"future birth":   func(in *RegisterInput) { in.DateOfBirth = &future },
		"bad phone":      func(in *RegisterInput) { in.Phone = &badPhone },
		"bad currency":   func(in *RegisterInput) { in.Preferences.Currency = "GBP" },
	}

	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			in := validRegistration()
			mutate(&in)
			_, err := f.svc.Register(context.Background(), in)
			if !errors.Is(err, domain.ErrValidationFailed) {
				t.Fatalf("expected validation error, got %v", err)
			}
		})
	}
	if len(f.store.accounts) != 0 {
		t.Fatalf("expected no rows after rejected registrations, got %d", len(f.store.accounts))
	}
}

func TestRegisterRollsBackInsideUnitOfWork(t *testing.T) {
	f := newAccountFixture(t)
	f.store.cartCreateErr = domain.NewStorageError("create cart", errors.New("disk full"))

	_, err := f.svc.Register(context.Background(), validRegistration())
	if !errors.Is(err, domain.ErrStorageFailure) {
		t.Fatalf("expected storage failure, got %v", err)
	}
	if len(f.store.accounts) != 0 || len(f.store.prefs) != 0 {
		t.Fatalf("expected rollback, got accounts=%d prefs=%d", len(f.store.accounts), len(f.store.prefs))
	}
	if len(f.events.registered) != 0 {
		t.Fatal("expected no event for a failed registration")
	}
}

func TestRegisterCompensatesWithoutUnitOfWork(t *testing.T) {
	f := newAccountFixture(t, withoutUnitOfWork())
	f.store.cartCreateErr = domain.NewStorageError("create cart", errors.New("disk full"))

	_, err := f.svc.Register(context.Background(), validRegistration())
	if !errors.Is(err, domain.ErrStorageFailure) {
		t.Fatalf("expected storage failure, got %v", err)
	}
	if len(f.store.accounts) != 0 || len(f.store.prefs) != 0 || len(f.store.carts) != 0 {
		t.Fatal("expected compensating deletes to remove every row")
	}
	want := []string{"preferences", "account"}
	if fmt.Sprint(f.store.deleted) != fmt.Sprint(want) {
		t.Fatalf("expected reverse-order compensation %v, got %v", want, f.store.deleted)
	}
}

func TestRegisterCompensatesAfterPreferencesFailure(t *testing.T) {
	f := newAccountFixture(t, withoutUnitOfWork())
	f.store.prefsCreateErr = domain.NewStorageError("create preferences", errors.New("timeout"))

	if _, err := f.svc.Register(context.Background(), validRegistration()); err == nil {
		t.Fatal("expected error")
	}
	if fmt.Sprint(f.store.deleted) != "[account]" {
		t.Fatalf("expected only the account to be compensated, got %v", f.store.deleted)
	}
}

func TestRegisterStoresProfileImageFirst(t *testing.T) {
	f := newAccountFixture(t, withAvatars(fakeAvatars{ref: "/uploads/avatars/"}))

	in := validRegistration()
	in.ProfileImage = &domain.ImageUpload{Filename: "me.png", Data: []byte{1}}
	account, err := f.svc.Register(context.Background(), in)
	if err != nil {
		t.Fatalf("Register returned error: %v", err)
	}
	if account.ProfileImage == nil || *account.ProfileImage != "/uploads/avatars/"+account.ID {
		t.Fatalf("unexpected profile image: %v", account.ProfileImage)
	}
}

func TestRegisterRejectedUploadWritesNothing(t *testing.T) {
	f := newAccountFixture(t, withAvatars(fakeAvatars{err: fmt.Errorf("%w: not an image", domain.ErrUploadRejected)}))

	in := validRegistration()
	in.ProfileImage = &domain.ImageUpload{Filename: "notes.txt", Data: []byte("hello")}
	_, err := f.svc.Register(context.Background(), in)
	if !errors.Is(err, domain.ErrUploadRejected) {
		t.Fatalf("expected ErrUploadRejected, got %v", err)
	}
	if len(f.store.accounts) != 0 {
		t.Fatal("expected no account row")
	}
}

func registerAda(t *testing.T, f *accountFixture) domain.Account {
	t.Helper()
	account, err := f.svc.Register(context.Background(), validRegistration())
	if err != nil {
		t.Fatalf("Register returned error: %v", err)
	}
	return account
}

func TestLoginIssuesTokenAndResetsCounters(t *testing.T) {
	f := newAccountFixture(t)
	account := registerAda(t, f)

	stored := f.store.accounts[account.ID]
	stored.LoginAttempts = 2
	f.store.accounts[account.ID] = stored

	result, err := f.svc.Login(context.Background(), LoginInput{Email: "ADA@example.com", Password: "secret1", IPAddress: "10.0.0.1"})
	if err != nil {
		t.Fatalf("Login returned error: %v", err)
	}
	if result.Token == "" || result.Account.PasswordHash != "" {
		t.Fatalf("unexpected login result: %+v", result)
	}
	if !result.ExpiresAt.Equal(fixedNow.Add(14 * 24 * time.Hour)) {
		t.Fatalf("expected 14 day token, got %v", result.ExpiresAt)
	}

	claims, err := fakeTokens{}.Parse(context.Background(), result.Token)
	if err != nil || claims.AccountID != account.ID || claims.Role != domain.RoleCustomer || claims.Email != "ada@example.com" {
		t.Fatalf("token does not round trip: %+v %v", claims, err)
	}

	stored = f.store.accounts[account.ID]
	if stored.LastLogin == nil || !stored.LastLogin.Equal(fixedNow) || stored.LoginAttempts != 0 {
		t.Fatalf("expected login counters to be reset, got %+v", stored)
	}
	if len(f.events.loggedIn) != 1 || *f.events.loggedIn[0].IPAddress != "10.0.0.1" {
		t.Fatalf("unexpected login events: %+v", f.events.loggedIn)
	}
}

func TestLoginFailures(t *testing.T) {
	f := newAccountFixture(t)
	account := registerAda(t, f)
	ctx := context.Background()

	if _, err := f.svc.Login(ctx, LoginInput{Email: "nobody@example.com", Password: "secret1"}); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	if _, err := f.svc.Login(ctx, LoginInput{Email: account.Email, Password: "wrong"}); !errors.Is(err, domain.ErrInvalidCredential) {
		t.Fatalf("expected ErrInvalidCredential, got %v", err)
	}
	if got := f.store.accounts[account.ID].LoginAttempts; got != 0 {
		t.Fatalf("expected counters untouched with lockout disabled, got %d", got)
	}

	stored := f.store.accounts[account.ID]
	stored.IsActive = false
	f.store.accounts[account.ID] = stored
	if _, err := f.svc.Login(ctx, LoginInput{Email: account.Email, Password: "secret1"}); !errors.Is(err, domain.ErrAccountDisabled) {
		t.Fatalf("expected ErrAccountDisabled, got %v", err)
	}

	if got := testutil.ToFloat64(f.metrics.Logins.WithLabelValues("invalid_credential")); got != 1 {
		t.Fatalf("expected one invalid credential metric, got %v", got)
	}
}

func TestLoginLockoutWhenEnabled(t *testing.T) {
	f := newAccountFixture(t, withLockout(3, 10*time.Minute))
	account := registerAda(t, f)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		if _, err := f.svc.Login(ctx, LoginInput{Email: account.Email, Password: "wrong"}); !errors.Is(err, domain.ErrInvalidCredential) {
			t.Fatalf("attempt %d: expected ErrInvalidCredential, got %v", i, err)
		}
	}

	_, err := f.svc.Login(ctx, LoginInput{Email: account.Email, Password: "secret1"})
	if !errors.Is(err, domain.ErrAccountLocked) || !errors.Is(err, domain.ErrAccountDisabled) {
		t.Fatalf("expected locked account, got %v", err)
	}

	f.svc.now = func() time.Time { return fixedNow.Add(11 * time.Minute) }
	if _, err := f.svc.Login(ctx, LoginInput{Email: account.Email, Password: "secret1"}); err != nil {
		t.Fatalf("expected login after lock expiry, got %v", err)
	}
	if stored := f.store.accounts[account.ID]; stored.LoginAttempts != 0 || stored.LockUntil != nil {
		t.Fatalf("expected lock to be cleared, got %+v", stored)
	}
}

func TestUpdateProfileIgnoresIdentityFields(t *testing.T) {
	f := newAccountFixture(t)
	account := registerAda(t, f)

	first := "  Augusta "
	notes := "<b>vip</b>"
	updated, err := f.svc.UpdateProfile(context.Background(), account.ID, domain.ProfilePatch{FirstName: &first, Notes: &notes})
	if err != nil {
		t.Fatalf("UpdateProfile returned error: %v", err)
	}
	if updated.FirstName != "Augusta" || *updated.Notes != "vip" {
		t.Fatalf("unexpected profile: %+v", updated)
	}
	if updated.Email != account.Email || updated.Role != account.Role {
		t.Fatal("identity fields must not change through profile updates")
	}
}

func TestUpdateProfileValidationAndMissing(t *testing.T) {
	f := newAccountFixture(t)
	account := registerAda(t, f)
	ctx := context.Background()

	gender := domain.Gender("robot")
	if _, err := f.svc.UpdateProfile(ctx, account.ID, domain.ProfilePatch{Gender: &gender}); !errors.Is(err, domain.ErrValidationFailed) {
		t.Fatalf("expected validation error, got %v", err)
	}

	name := "Grace"
	if _, err := f.svc.UpdateProfile(ctx, "missing", domain.ProfilePatch{FirstName: &name}); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestUpdateProfileImageWithoutStorage(t *testing.T) {
	f := newAccountFixture(t)
	account := registerAda(t, f)

	_, err := f.svc.UpdateProfileImage(context.Background(), account.ID, domain.ImageUpload{Data: []byte{1}})
	if !errors.Is(err, domain.ErrUploadRejected) {
		t.Fatalf("expected ErrUploadRejected, got %v", err)
	}
}

func TestDisableCascadesToCart(t *testing.T) {
	f := newAccountFixture(t)
	account := registerAda(t, f)
	ctx := context.Background()

	disabled, err := f.svc.Disable(ctx, "admin-1", account.ID)
	if err != nil {
		t.Fatalf("Disable returned error: %v", err)
	}
	if disabled.IsActive || !disabled.IsDeleted {
		t.Fatalf("expected inactive and deleted, got %+v", disabled)
	}
	if f.store.carts[account.ID].IsActive {
		t.Fatal("expected cart to be deactivated")
	}
	if _, ok := f.store.prefs[account.ID]; !ok {
		t.Fatal("expected preferences to be retained")
	}
	if len(f.events.disabled) != 1 || f.events.disabled[0].DisabledBy != "admin-1" {
		t.Fatalf("unexpected disabled events: %+v", f.events.disabled)
	}

	if _, err := f.svc.Login(ctx, LoginInput{Email: account.Email, Password: "secret1"}); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected disabled account to be invisible to login, got %v", err)
	}
	if _, err := f.svc.Disable(ctx, "admin-1", account.ID); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected second disable to report ErrNotFound, got %v", err)
	}
}

func TestAuthenticate(t *testing.T) {
	f := newAccountFixture(t)
	account := registerAda(t, f)
	ctx := context.Background()

	result, err := f.svc.Login(ctx, LoginInput{Email: account.Email, Password: "secret1"})
	if err != nil {
		t.Fatalf("Login returned error: %v", err)
	}

	got, claims, err := f.svc.Authenticate(ctx, result.Token)
	if err != nil {
		t.Fatalf("Authenticate returned error: %v", err)
	}
	if got.ID != account.ID || claims.Role != domain.RoleCustomer {
		t.Fatalf("unexpected principal: %+v %+v", got, claims)
	}

	if _, _, err := f.svc.Authenticate(ctx, "garbage"); !errors.Is(err, ErrUnauthenticated) {
		t.Fatalf("expected ErrUnauthenticated, got %v", err)
	}

	if _, err := f.svc.Disable(ctx, "admin", account.ID); err != nil {
		t.Fatalf("Disable returned error: %v", err)
	}
	if _, _, err := f.svc.Authenticate(ctx, result.Token); !errors.Is(err, ErrUnauthenticated) {
		t.Fatalf("expected token of a deleted account to be rejected, got %v", err)
	}
}

func TestForgotPassword(t *testing.T) {
	f := newAccountFixture(t)
	account := registerAda(t, f)
	ctx := context.Background()

	if err := f.svc.ForgotPassword(ctx, "ada@example.com", "newpass"); err != nil {
		t.Fatalf("ForgotPassword returned error: %v", err)
	}
	if f.store.accounts[account.ID].PasswordHash != "hashed:newpass" {
		t.Fatal("expected password to be replaced")
	}
	if len(f.events.password) != 1 || f.events.password[0].Method != "forgot_password" {
		t.Fatalf("unexpected password events: %+v", f.events.password)
	}

	if err := f.svc.ForgotPassword(ctx, "nobody@example.com", "newpass"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if err := f.svc.ForgotPassword(ctx, "ada@example.com", "x"); !errors.Is(err, domain.ErrValidationFailed) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestEventFailureDoesNotFailRegistration(t *testing.T) {
	f := newAccountFixture(t)
	f.events.err = errors.New("broker down")

	if _, err := f.svc.Register(context.Background(), validRegistration()); err != nil {
		t.Fatalf("expected registration to succeed despite publish failure, got %v", err)
	}
}
