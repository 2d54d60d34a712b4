package main

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/UsmanFarooq46/e-commerce-backend/internal/core/domain"
	"github.com/UsmanFarooq46/e-commerce-backend/internal/usecase"
)

type fakeAccounts struct {
	registered  *usecase.RegisterInput
	registerErr error
	disabled    []string
	disableErr  error
}

func (f *fakeAccounts) Register(_ context.Context, in usecase.RegisterInput) (domain.Account, error) {
	if f.registerErr != nil {
		return domain.Account{}, f.registerErr
	}
	f.registered = &in
	return domain.Account{ID: "acc-1", Email: strings.ToLower(in.Email)}, nil
}

func (f *fakeAccounts) Disable(_ context.Context, actorID, accountID string) (domain.Account, error) {
	if f.disableErr != nil {
		return domain.Account{}, f.disableErr
	}
	f.disabled = append(f.disabled, actorID+":"+accountID)
	return domain.Account{ID: accountID, Email: "a@example.com"}, nil
}

func stubPasswords(t *testing.T, values ...string) {
	t.Helper()
	old := readPassword
	t.Cleanup(func() { readPassword = old })
	readPassword = func(int) ([]byte, error) {
		if len(values) == 0 {
			return nil, errors.New("no more input")
		}
		v := values[0]
		values = values[1:]
		return []byte(v), nil
	}
}

func TestParseCommand(t *testing.T) {
	cases := []struct {
		args    []string
		want    command
		wantErr bool
	}{
		{args: []string{"migrate", "up"}, want: command{name: "migrate up"}},
		{args: []string{"migrate", "status"}, want: command{name: "migrate status"}},
		{args: []string{"create-admin"}, want: command{name: "create-admin"}},
		{args: []string{"disable", "acc-9"}, want: command{name: "disable", arg: "acc-9"}},
		{args: nil, wantErr: true},
		{args: []string{"migrate"}, wantErr: true},
		{args: []string{"migrate", "down"}, wantErr: true},
		{args: []string{"disable"}, wantErr: true},
		{args: []string{"purge"}, wantErr: true},
	}
	for _, tc := range cases {
		got, err := parseCommand(tc.args)
		if tc.wantErr {
			assert.ErrorIs(t, err, errUsage, "args %v", tc.args)
			continue
		}
		require.NoError(t, err, "args %v", tc.args)
		assert.Equal(t, tc.want, got)
	}
}

func TestCreateAdminRegistersAdminRole(t *testing.T) {
	stubPasswords(t, "Str0ng!Passw0rd", "Str0ng!Passw0rd")
	accounts := &fakeAccounts{}
	var out bytes.Buffer

	err := createAdmin(context.Background(), accounts, strings.NewReader("Root@Example.com\nAda\nLovelace\n"), &out)
	require.NoError(t, err)

	require.NotNil(t, accounts.registered)
	assert.Equal(t, domain.RoleAdmin, accounts.registered.Role)
	assert.Equal(t, "Root@Example.com", accounts.registered.Email)
	assert.Equal(t, "Ada", accounts.registered.FirstName)
	assert.Equal(t, "Lovelace", accounts.registered.LastName)
	assert.Equal(t, "Str0ng!Passw0rd", accounts.registered.Password)
	assert.Contains(t, out.String(), "created admin acc-1 (root@example.com)")
}

func TestCreateAdminRejectsMismatchedPasswords(t *testing.T) {
	stubPasswords(t, "one", "two")
	accounts := &fakeAccounts{}

	err := createAdmin(context.Background(), accounts, strings.NewReader("a@example.com\nA\nB\n"), &bytes.Buffer{})
	require.Error(t, err)
	assert.Nil(t, accounts.registered)
}

func TestCreateAdminPrintsFieldErrors(t *testing.T) {
	stubPasswords(t, "short", "short")
	verr := domain.NewValidationError("password", "Password must be at least 8 characters", nil)
	accounts := &fakeAccounts{registerErr: verr}
	var out bytes.Buffer

	err := createAdmin(context.Background(), accounts, strings.NewReader("a@example.com\nA\nB\n"), &out)
	require.ErrorIs(t, err, domain.ErrValidationFailed)
	assert.Contains(t, out.String(), "password: Password must be at least 8 characters")
}

func TestCreateAdminPasswordReadFailure(t *testing.T) {
	stubPasswords(t)
	err := createAdmin(context.Background(), &fakeAccounts{}, strings.NewReader("a@example.com\nA\nB\n"), &bytes.Buffer{})
	require.Error(t, err)
}

func TestDisableUsesOperatorActor(t *testing.T) {
	accounts := &fakeAccounts{}
	var out bytes.Buffer

	require.NoError(t, disable(context.Background(), accounts, "acc-7", &out))
	assert.Equal(t, []string{"accountctl:acc-7"}, accounts.disabled)
	assert.Contains(t, out.String(), "disabled acc-7")
}

func TestDisablePropagatesNotFound(t *testing.T) {
	accounts := &fakeAccounts{disableErr: domain.ErrNotFound}
	err := disable(context.Background(), accounts, "missing", &bytes.Buffer{})
	assert.ErrorIs(t, err, domain.ErrNotFound)
}
