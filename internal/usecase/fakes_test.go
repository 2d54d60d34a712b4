package usecase

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/UsmanFarooq46/e-commerce-backend/internal/core/domain"
	"github.com/UsmanFarooq46/e-commerce-backend/internal/core/port"
)

// memStore backs the account, preferences and cart fakes so a fake unit of
// work can snapshot and restore all three together.
type memStore struct {
	mu       sync.Mutex
	accounts map[string]domain.Account
	prefs    map[string]domain.Preferences
	carts    map[string]domain.Cart

	prefsCreateErr error
	cartCreateErr  error
	saveConflicts  int
	saveCalls      int
	deleted        []string
}

func newMemStore() *memStore {
	return &memStore{
		accounts: map[string]domain.Account{},
		prefs:    map[string]domain.Preferences{},
		carts:    map[string]domain.Cart{},
	}
}

type fakeAccounts struct{ s *memStore }

func (f fakeAccounts) Create(_ context.Context, a domain.Account) error {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	for _, existing := range f.s.accounts {
		if !existing.IsDeleted && strings.EqualFold(existing.Email, a.Email) {
			return domain.ErrDuplicateIdentifier
		}
		if a.ReferralCode != nil && existing.ReferralCode != nil && *existing.ReferralCode == *a.ReferralCode {
			return domain.ErrReferralCodeTaken
		}
	}
	f.s.accounts[a.ID] = a
	return nil
}

func (f fakeAccounts) GetByID(_ context.Context, id string) (*domain.Account, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	a, ok := f.s.accounts[id]
	if !ok || a.IsDeleted {
		return nil, domain.ErrNotFound
	}
	return &a, nil
}

func (f fakeAccounts) FindActiveByIdentifier(_ context.Context, email string) (*domain.Account, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	for _, a := range f.s.accounts {
		if !a.IsDeleted && strings.EqualFold(a.Email, email) {
			return &a, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (f fakeAccounts) ExistsByIdentifier(ctx context.Context, email string) (bool, error) {
	_, err := f.FindActiveByIdentifier(ctx, email)
	if errors.Is(err, domain.ErrNotFound) {
		return false, nil
	}
	return err == nil, err
}

func (f fakeAccounts) List(_ context.Context, filter domain.AccountFilter) ([]domain.Account, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	var out []domain.Account
	for _, a := range f.s.accounts {
		if a.IsDeleted || (filter.ActiveOnly && !a.IsActive) {
			continue
		}
		out = append(out, a)
	}
	return out, nil
}

func (f fakeAccounts) UpdateProfile(_ context.Context, id string, patch domain.ProfilePatch, at time.Time) (*domain.Account, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	a, ok := f.s.accounts[id]
	if !ok || a.IsDeleted {
		return nil, domain.ErrNotFound
	}
	if patch.FirstName != nil {
		a.FirstName = *patch.FirstName
	}
	if patch.LastName != nil {
		a.LastName = *patch.LastName
	}
	if patch.Phone != nil {
		a.Phone = patch.Phone
	}
	if patch.Notes != nil {
		a.Notes = patch.Notes
	}
	if patch.ProfileImage != nil {
		a.ProfileImage = patch.ProfileImage
	}
	if patch.Gender != nil {
		a.Gender = *patch.Gender
	}
	if patch.DateOfBirth != nil {
		a.DateOfBirth = patch.DateOfBirth
	}
	a.UpdatedAt = at
	f.s.accounts[id] = a
	return &a, nil
}

func (f fakeAccounts) UpdatePassword(_ context.Context, id, hash string, at time.Time) error {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	a, ok := f.s.accounts[id]
	if !ok || a.IsDeleted {
		return domain.ErrNotFound
	}
	a.PasswordHash = hash
	a.UpdatedAt = at
	f.s.accounts[id] = a
	return nil
}

func (f fakeAccounts) RecordLogin(_ context.Context, id string, at time.Time) error {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	a := f.s.accounts[id]
	a.LastLogin = &at
	a.LoginAttempts = 0
	a.LockUntil = nil
	f.s.accounts[id] = a
	return nil
}

func (f fakeAccounts) RecordFailedLogin(_ context.Context, id string, maxAttempts int, lockUntil, _ time.Time) (int, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	a := f.s.accounts[id]
	a.LoginAttempts++
	if a.LoginAttempts >= maxAttempts {
		a.LockUntil = &lockUntil
	}
	f.s.accounts[id] = a
	return a.LoginAttempts, nil
}

func (f fakeAccounts) Disable(_ context.Context, id string, at time.Time) error {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	a, ok := f.s.accounts[id]
	if !ok {
		return domain.ErrNotFound
	}
	a.IsActive = false
	a.IsDeleted = true
	a.UpdatedAt = at
	f.s.accounts[id] = a
	return nil
}

func (f fakeAccounts) Delete(_ context.Context, id string) error {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	delete(f.s.accounts, id)
	f.s.deleted = append(f.s.deleted, "account")
	return nil
}

type fakePreferences struct{ s *memStore }

func (f fakePreferences) Create(_ context.Context, p domain.Preferences) error {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	if f.s.prefsCreateErr != nil {
		return f.s.prefsCreateErr
	}
	f.s.prefs[p.AccountID] = p
	return nil
}

func (f fakePreferences) GetByAccountID(_ context.Context, accountID string) (*domain.Preferences, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	p, ok := f.s.prefs[accountID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &p, nil
}

func (f fakePreferences) Update(_ context.Context, p domain.Preferences) error {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	if _, ok := f.s.prefs[p.AccountID]; !ok {
		return domain.ErrNotFound
	}
	f.s.prefs[p.AccountID] = p
	return nil
}

func (f fakePreferences) DeleteByAccountID(_ context.Context, accountID string) error {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	delete(f.s.prefs, accountID)
	f.s.deleted = append(f.s.deleted, "preferences")
	return nil
}

type fakeCarts struct{ s *memStore }

func (f fakeCarts) Create(_ context.Context, c domain.Cart) error {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	if f.s.cartCreateErr != nil {
		return f.s.cartCreateErr
	}
	f.s.carts[c.AccountID] = c.Clone()
	return nil
}

func (f fakeCarts) GetByAccountID(_ context.Context, accountID string) (*domain.Cart, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	c, ok := f.s.carts[accountID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	out := c.Clone()
	return &out, nil
}

func (f fakeCarts) Save(_ context.Context, c domain.Cart) (int64, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	f.s.saveCalls++
	stored, ok := f.s.carts[c.AccountID]
	if !ok || !stored.IsActive {
		return 0, domain.ErrVersionConflict
	}
	if f.s.saveConflicts > 0 {
		f.s.saveConflicts--
		stored.Version++
		f.s.carts[c.AccountID] = stored
		return 0, domain.ErrVersionConflict
	}
	if stored.Version != c.Version {
		return 0, domain.ErrVersionConflict
	}
	next := c.Clone()
	next.Version = c.Version + 1
	f.s.carts[c.AccountID] = next
	return next.Version, nil
}

func (f fakeCarts) Deactivate(_ context.Context, accountID string, at time.Time) error {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	c, ok := f.s.carts[accountID]
	if !ok {
		return domain.ErrNotFound
	}
	c.IsActive = false
	c.UpdatedAt = at
	c.Version++
	f.s.carts[accountID] = c
	return nil
}

func (f fakeCarts) DeleteByAccountID(_ context.Context, accountID string) error {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	delete(f.s.carts, accountID)
	f.s.deleted = append(f.s.deleted, "cart")
	return nil
}

// fakeUnitOfWork restores the store snapshot when fn fails.
type fakeUnitOfWork struct {
	s     *memStore
	calls int
}

func (u *fakeUnitOfWork) WithinTx(ctx context.Context, fn func(context.Context, port.TxRepositories) error) error {
	u.calls++
	u.s.mu.Lock()
	accounts := copyMap(u.s.accounts)
	prefs := copyMap(u.s.prefs)
	carts := copyMap(u.s.carts)
	u.s.mu.Unlock()

	err := fn(ctx, port.TxRepositories{
		Accounts:    fakeAccounts{u.s},
		Preferences: fakePreferences{u.s},
		Carts:       fakeCarts{u.s},
	})
	if err != nil {
		u.s.mu.Lock()
		u.s.accounts, u.s.prefs, u.s.carts = accounts, prefs, carts
		u.s.mu.Unlock()
	}
	return err
}

func copyMap[V any](in map[string]V) map[string]V {
	out := make(map[string]V, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}

type fakeHasher struct{}

func (fakeHasher) Hash(password string) (string, error) { return "hashed:" + password, nil }

func (fakeHasher) Verify(password, encoded string) (bool, error) {
	return encoded == "hashed:"+password, nil
}

type fakeTokens struct{}

func (fakeTokens) Issue(_ context.Context, a domain.Account, now time.Time) (string, time.Time, error) {
	return "token|" + a.ID + "|" + string(a.Role) + "|" + a.Email, now.Add(14 * 24 * time.Hour), nil
}

func (fakeTokens) Parse(_ context.Context, token string) (*port.TokenClaims, error) {
	parts := strings.Split(token, "|")
	if len(parts) != 4 || parts[0] != "token" {
		return nil, errors.New("malformed token")
	}
	return &port.TokenClaims{AccountID: parts[1], Role: domain.Role(parts[2]), Email: parts[3]}, nil
}

type recordingEvents struct {
	mu         sync.Mutex
	registered []domain.AccountRegisteredEvent
	loggedIn   []domain.AccountLoggedInEvent
	disabled   []domain.AccountDisabledEvent
	password   []domain.PasswordChangedEvent
	cart       []domain.CartUpdatedEvent
	err        error
}

func (r *recordingEvents) PublishAccountRegistered(_ context.Context, e domain.AccountRegisteredEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.registered = append(r.registered, e)
	return r.err
}

func (r *recordingEvents) PublishAccountLoggedIn(_ context.Context, e domain.AccountLoggedInEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.loggedIn = append(r.loggedIn, e)
	return r.err
}

func (r *recordingEvents) PublishAccountDisabled(_ context.Context, e domain.AccountDisabledEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.disabled = append(r.disabled, e)
	return r.err
}

func (r *recordingEvents) PublishPasswordChanged(_ context.Context, e domain.PasswordChangedEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.password = append(r.password, e)
	return r.err
}

func (r *recordingEvents) PublishCartUpdated(_ context.Context, e domain.CartUpdatedEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.cart = append(r.cart, e)
	return r.err
}

type fakeAvatars struct {
	ref string
	err error
}

func (f fakeAvatars) Store(_ context.Context, accountID string, _ domain.ImageUpload) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	return f.ref + accountID, nil
}

type tagStripper struct{}

func (tagStripper) Sanitize(in string) string {
	return strings.ReplaceAll(strings.ReplaceAll(in, "<b>", ""), "</b>", "")
}
