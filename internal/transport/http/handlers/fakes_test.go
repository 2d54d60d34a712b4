package handlers_test

import (
	"context"
	"errors"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"github.com/UsmanFarooq46/e-commerce-backend/internal/core/domain"
	"github.com/UsmanFarooq46/e-commerce-backend/internal/core/port"
	"github.com/UsmanFarooq46/e-commerce-backend/internal/infra/config"
	"github.com/UsmanFarooq46/e-commerce-backend/internal/transport/http/handlers"
	"github.com/UsmanFarooq46/e-commerce-backend/internal/transport/http/middleware"
	"github.com/UsmanFarooq46/e-commerce-backend/internal/usecase"
)

type store struct {
	mu       sync.Mutex
	accounts map[string]domain.Account
	prefs    map[string]domain.Preferences
	carts    map[string]domain.Cart
	wishlist map[string]domain.WishlistItem
}

func newStore() *store {
	return &store{
		accounts: map[string]domain.Account{},
		prefs:    map[string]domain.Preferences{},
		carts:    map[string]domain.Cart{},
		wishlist: map[string]domain.WishlistItem{},
	}
}

type accountRepo struct{ s *store }

func (r accountRepo) Create(_ context.Context, a domain.Account) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, existing := range r.s.accounts {
		if !existing.IsDeleted && existing.Email == a.Email {
			return domain.ErrDuplicateIdentifier
		}
	}
	r.s.accounts[a.ID] = a
	return nil
}

func (r accountRepo) GetByID(_ context.Context, id string) (*domain.Account, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	a, ok := r.s.accounts[id]
	if !ok || a.IsDeleted {
		return nil, domain.ErrNotFound
	}
	return &a, nil
}

func (r accountRepo) FindActiveByIdentifier(_ context.Context, email string) (*domain.Account, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, a := range r.s.accounts {
		if !a.IsDeleted && strings.EqualFold(a.Email, email) {
			return &a, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (r accountRepo) ExistsByIdentifier(ctx context.Context, email string) (bool, error) {
	_, err := r.FindActiveByIdentifier(ctx, email)
	if errors.Is(err, domain.ErrNotFound) {
		return false, nil
	}
	return err == nil, err
}

func (r accountRepo) List(_ context.Context, filter domain.AccountFilter) ([]domain.Account, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []domain.Account
	for _, a := range r.s.accounts {
		if a.IsDeleted || (filter.ActiveOnly && !a.IsActive) {
			continue
		}
		out = append(out, a)
	}
	return out, nil
}

func (r accountRepo) UpdateProfile(_ context.Context, id string, patch domain.ProfilePatch, at time.Time) (*domain.Account, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	a, ok := r.s.accounts[id]
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
	if patch.ProfileImage != nil {
		a.ProfileImage = patch.ProfileImage
	}
	a.UpdatedAt = at
	r.s.accounts[id] = a
	return &a, nil
}

func (r accountRepo) UpdatePassword(_ context.Context, id, hash string, at time.Time) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	a, ok := r.s.accounts[id]
	if !ok || a.IsDeleted {
		return domain.ErrNotFound
	}
	a.PasswordHash = hash
	a.UpdatedAt = at
	r.s.accounts[id] = a
	return nil
}

func (r accountRepo) RecordLogin(_ context.Context, id string, at time.Time) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	a := r.s.accounts[id]
	a.LastLogin = &at
	r.s.accounts[id] = a
	return nil
}

func (r accountRepo) RecordFailedLogin(_ context.Context, id string, _ int, _, _ time.Time) (int, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	a := r.s.accounts[id]
	a.LoginAttempts++
	r.s.accounts[id] = a
	return a.LoginAttempts, nil
}

func (r accountRepo) Disable(_ context.Context, id string, at time.Time) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	a, ok := r.s.accounts[id]
	if !ok {
		return domain.ErrNotFound
	}
	a.IsActive, a.IsDeleted, a.UpdatedAt = false, true, at
	r.s.accounts[id] = a
	return nil
}

func (r accountRepo) Delete(_ context.Context, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	delete(r.s.accounts, id)
	return nil
}

type prefsRepo struct{ s *store }

func (r prefsRepo) Create(_ context.Context, p domain.Preferences) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.prefs[p.AccountID] = p
	return nil
}

func (r prefsRepo) GetByAccountID(_ context.Context, accountID string) (*domain.Preferences, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	p, ok := r.s.prefs[accountID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &p, nil
}

func (r prefsRepo) Update(_ context.Context, p domain.Preferences) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.prefs[p.AccountID] = p
	return nil
}

func (r prefsRepo) DeleteByAccountID(_ context.Context, accountID string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	delete(r.s.prefs, accountID)
	return nil
}

type cartRepo struct{ s *store }

func (r cartRepo) Create(_ context.Context, c domain.Cart) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.carts[c.AccountID] = c.Clone()
	return nil
}

func (r cartRepo) GetByAccountID(_ context.Context, accountID string) (*domain.Cart, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	c, ok := r.s.carts[accountID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	out := c.Clone()
	return &out, nil
}

func (r cartRepo) Save(_ context.Context, c domain.Cart) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	stored, ok := r.s.carts[c.AccountID]
	if !ok || !stored.IsActive || stored.Version != c.Version {
		return 0, domain.ErrVersionConflict
	}
	next := c.Clone()
	next.Version++
	r.s.carts[c.AccountID] = next
	return next.Version, nil
}

func (r cartRepo) Deactivate(_ context.Context, accountID string, at time.Time) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	c, ok := r.s.carts[accountID]
	if !ok {
		return domain.ErrNotFound
	}
	c.IsActive = false
	c.UpdatedAt = at
	c.Version++
	r.s.carts[accountID] = c
	return nil
}

func (r cartRepo) DeleteByAccountID(_ context.Context, accountID string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	delete(r.s.carts, accountID)
	return nil
}

type wishlistRepo struct{ s *store }

func (r wishlistRepo) Add(_ context.Context, w domain.WishlistItem) (*domain.WishlistItem, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for id, existing := range r.s.wishlist {
		if existing.AccountID == w.AccountID && existing.ProductID == w.ProductID {
			if existing.IsActive {
				return nil, domain.ErrDuplicateIdentifier
			}
			w.ID, w.CreatedAt = id, existing.CreatedAt
			break
		}
	}
	r.s.wishlist[w.ID] = w
	return &w, nil
}

func (r wishlistRepo) GetByID(_ context.Context, accountID, id string) (*domain.WishlistItem, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	w, ok := r.s.wishlist[id]
	if !ok || w.AccountID != accountID || !w.IsActive {
		return nil, domain.ErrNotFound
	}
	return &w, nil
}

func (r wishlistRepo) List(_ context.Context, accountID string, filter domain.WishlistFilter) ([]domain.WishlistItem, int, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []domain.WishlistItem
	for _, w := range r.s.wishlist {
		if w.AccountID == accountID && w.IsActive && (filter.Priority == nil || w.Priority == *filter.Priority) {
			out = append(out, w)
		}
	}
	return out, len(out), nil
}

func (r wishlistRepo) Update(_ context.Context, w domain.WishlistItem) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.wishlist[w.ID]; !ok {
		return domain.ErrNotFound
	}
	r.s.wishlist[w.ID] = w
	return nil
}

func (r wishlistRepo) Remove(_ context.Context, accountID, id string, at time.Time) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	w, ok := r.s.wishlist[id]
	if !ok || w.AccountID != accountID || !w.IsActive {
		return domain.ErrNotFound
	}
	w.IsActive = false
	w.UpdatedAt = at
	r.s.wishlist[id] = w
	return nil
}

type plainHasher struct{}

func (plainHasher) Hash(password string) (string, error) { return "h:" + password, nil }

func (plainHasher) Verify(password, encoded string) (bool, error) {
	return encoded == "h:"+password, nil
}

type pipeTokens struct{}

func (pipeTokens) Issue(_ context.Context, a domain.Account, now time.Time) (string, time.Time, error) {
	return "tok|" + a.ID + "|" + string(a.Role), now.Add(time.Hour), nil
}

func (pipeTokens) Parse(_ context.Context, token string) (*port.TokenClaims, error) {
	parts := strings.Split(token, "|")
	if len(parts) != 3 || parts[0] != "tok" {
		return nil, errors.New("malformed token")
	}
	return &port.TokenClaims{AccountID: parts[1], Role: domain.Role(parts[2])}, nil
}

// testAPI wires the account and cart handlers the way the router does, over
// in-memory repositories.
type testAPI struct {
	t        *testing.T
	store    *store
	accounts *usecase.AccountService
	engine   *gin.Engine
}

func newTestAPI(t *testing.T) *testAPI {
	t.Helper()
	gin.SetMode(gin.TestMode)
	require.NoError(t, handlers.RegisterValidators())

	s := newStore()
	accounts, err := usecase.NewAccountService(usecase.AccountDependencies{
		Accounts:    accountRepo{s},
		Preferences: prefsRepo{s},
		Carts:       cartRepo{s},
		Hasher:      plainHasher{},
		Tokens:      pipeTokens{},
	})
	require.NoError(t, err)
	carts := usecase.NewCartService(cartRepo{s}, nil, nil, nil, config.CartSettings{})
	prefs := usecase.NewPreferencesService(prefsRepo{s})

	r := gin.New()
	r.Use(middleware.EnrichContext())

	authenticated := middleware.RequireAuth(accounts)
	admin := middleware.RequireRole(domain.RoleAdmin)
	mw := handlers.AuthRouteMiddlewares{Authenticated: authenticated, Admin: admin}

	api := r.Group("/api")
	handlers.NewAuthHandler(accounts).RegisterRoutes(api.Group("/auth"), mw)
	handlers.NewAuthHandler(accounts, handlers.WithAuctionSurface()).RegisterAuctionRoutes(api.Group("/auction"), mw)
	handlers.NewCartHandler(carts).RegisterRoutes(api.Group("/cart", authenticated))
	handlers.NewPreferencesHandler(prefs).RegisterRoutes(api.Group("/preferences", authenticated))
	handlers.NewWishlistHandler(usecase.NewWishlistService(wishlistRepo{s}, nil)).RegisterRoutes(api.Group("/wishlist", authenticated))

	return &testAPI{t: t, store: s, accounts: accounts, engine: r}
}

func (a *testAPI) do(method, path, token, body string) *httptest.ResponseRecorder {
	a.t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set(middleware.TokenHeader, token)
	}
	w := httptest.NewRecorder()
	a.engine.ServeHTTP(w, req)
	return w
}

// register creates an account through the service and returns a token for it.
func (a *testAPI) register(email string, role domain.Role) (domain.Account, string) {
	a.t.Helper()
	acc, err := a.accounts.Register(context.Background(), usecase.RegisterInput{
		Email:     email,
		Password:  "secret1",
		FirstName: "Ada",
		LastName:  "Lovelace",
		Role:      role,
	})
	require.NoError(a.t, err)
	token, _, err := pipeTokens{}.Issue(context.Background(), acc, time.Now())
	require.NoError(a.t, err)
	return acc, token
}

func requireStatus(t *testing.T, w *httptest.ResponseRecorder, status int) {
	t.Helper()
	require.Equalf(t, status, w.Code, "body: %s", w.Body.String())
}
