package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/multierr"

	"github.com/UsmanFarooq46/e-commerce-backend/internal/core/port"
	"github.com/UsmanFarooq46/e-commerce-backend/internal/repository"
)

type txBeginner interface {
	Begin(ctx context.Context) (pgx.Tx, error)
}

// withTx commits when fn succeeds and rolls back otherwise. The rollback
// runs on a context detached from cancellation so an abandoned request
// still releases its locks.
func withTx(ctx context.Context, db txBeginner, fn func(tx pgx.Tx) error) (err error) {
	tx, err := db.Begin(ctx)
	if err != nil {
		return repository.Translate("begin transaction", err)
	}

	defer func() {
		if err == nil {
			return
		}
		if rbErr := tx.Rollback(context.WithoutCancel(ctx)); rbErr != nil && !errors.Is(rbErr, pgx.ErrTxClosed) {
			err = multierr.Append(err, repository.Translate("rollback transaction", rbErr))
		}
	}()

	if err = fn(tx); err != nil {
		return err
	}
	if err = tx.Commit(ctx); err != nil {
		return repository.Translate("commit transaction", err)
	}
	return nil
}

// UnitOfWork implements port.UnitOfWork with a pgx transaction.
type UnitOfWork struct {
	db txBeginner
}

func NewUnitOfWork(db txBeginner) *UnitOfWork {
	return &UnitOfWork{db: db}
}

func (u *UnitOfWork) WithinTx(ctx context.Context, fn func(ctx context.Context, repos port.TxRepositories) error) error {
	return withTx(ctx, u.db, func(tx pgx.Tx) error {
		return fn(ctx, port.TxRepositories{
			Accounts:       NewAccountRepository(tx),
			Preferences:    NewPreferencesRepository(tx),
			Carts:          NewCartRepository(tx),
			Addresses:      NewAddressRepository(tx),
			PaymentMethods: NewPaymentMethodRepository(tx),
			// pgx.Tx.Begin opens a savepoint.
			DefaultScopes:  NewDefaultScopeStore(tx),
		})
	})
}

// Repositories groups the PostgreSQL implementations sharing one pool.
type Repositories struct {
	Accounts       *AccountRepository
	Preferences    *PreferencesRepository
	Carts          *CartRepository
	Addresses      *AddressRepository
	PaymentMethods *PaymentMethodRepository
	Notifications  *NotificationRepository
	Wishlist       *WishlistRepository
	DefaultScopes  *DefaultScopeStore
	UnitOfWork     *UnitOfWork
}

func NewRepositories(pool *pgxpool.Pool) *Repositories {
	return &Repositories{
		Accounts:       NewAccountRepository(pool),
		Preferences:    NewPreferencesRepository(pool),
		Carts:          NewCartRepository(pool),
		Addresses:      NewAddressRepository(pool),
		PaymentMethods: NewPaymentMethodRepository(pool),
		Notifications:  NewNotificationRepository(pool),
		Wishlist:       NewWishlistRepository(pool),
		DefaultScopes:  NewDefaultScopeStore(pool),
		UnitOfWork:     NewUnitOfWork(pool),
	}
}

var _ port.UnitOfWork = (*UnitOfWork)(nil)
