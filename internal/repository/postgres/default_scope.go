package postgres

import (
	"context"
	"fmt"
	"time"

	squirrel "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"

	"github.com/UsmanFarooq46/e-commerce-backend/internal/core/domain"
	"github.com/UsmanFarooq46/e-commerce-backend/internal/core/port"
	"github.com/UsmanFarooq46/e-commerce-backend/internal/repository"
)

const advisoryLockSQL = `SELECT pg_advisory_xact_lock(hashtext($1))`

// DefaultScopeStore serializes default changes per (kind, owner, scope) with
// a transaction-scoped advisory lock. The partial unique indexes on
// addresses and payment_methods reject any write that slips past it.
type DefaultScopeStore struct {
	db      txBeginner
	builder squirrel.StatementBuilderType
}

func NewDefaultScopeStore(db txBeginner) *DefaultScopeStore {
	return &DefaultScopeStore{db: db, builder: newBuilder()}
}

func scopeTarget(scope domain.DefaultScope) (string, squirrel.Eq) {
	switch scope.Kind {
	case domain.DefaultKindAddress:
		return "addresses", squirrel.Eq{"account_id": scope.OwnerID, "type": scope.Scope}
	default:
		return "payment_methods", squirrel.Eq{"account_id": scope.OwnerID}
	}
}

// SetDefault clears the other defaults before flagging the target. The
// unique index is checked per row, so the two writes cannot be merged into
// one statement without a transient conflict.
func (s *DefaultScopeStore) SetDefault(ctx context.Context, scope domain.DefaultScope, entityID string, at time.Time) error {
	if err := scope.Validate(); err != nil {
		return err
	}
	table, inScope := scopeTarget(scope)

	return withTx(ctx, s.db, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, advisoryLockSQL, scope.LockKey()); err != nil {
			return repository.Translate("lock default scope", err)
		}

		lookup, args, err := s.builder.Select("id").
			From(table).
			Where(inScope).
			Where(squirrel.Eq{"id": entityID, "is_active": true}).
			Suffix("FOR UPDATE").
			ToSql()
		if err != nil {
			return fmt.Errorf("build default target sql: %w", err)
		}
		var id string
		if err := tx.QueryRow(ctx, lookup, args...).Scan(&id); err != nil {
			return repository.Translate("select default target", err)
		}

		clearStmt, args, err := s.builder.Update(table).
			Set("is_default", false).
			Set("updated_at", at).
			Where(inScope).
			Where(squirrel.Eq{"is_default": true}).
			Where(squirrel.NotEq{"id": entityID}).
			ToSql()
		if err != nil {
			return fmt.Errorf("build clear defaults sql: %w", err)
		}
		if _, err := tx.Exec(ctx, clearStmt, args...); err != nil {
			return repository.Translate("clear defaults", err)
		}

		setStmt, args, err := s.builder.Update(table).
			Set("is_default", true).
			Set("updated_at", at).
			Where(squirrel.Eq{"id": entityID}).
			ToSql()
		if err != nil {
			return fmt.Errorf("build set default sql: %w", err)
		}
		if _, err := tx.Exec(ctx, setStmt, args...); err != nil {
			return repository.Translate("set default", err)
		}
		return nil
	})
}

func (s *DefaultScopeStore) ClearDefault(ctx context.Context, scope domain.DefaultScope, at time.Time) error {
	if err := scope.Validate(); err != nil {
		return err
	}
	table, inScope := scopeTarget(scope)

	return withTx(ctx, s.db, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, advisoryLockSQL, scope.LockKey()); err != nil {
			return repository.Translate("lock default scope", err)
		}

		stmt, args, err := s.builder.Update(table).
			Set("is_default", false).
			Set("updated_at", at).
			Where(inScope).
			Where(squirrel.Eq{"is_default": true}).
			ToSql()
		if err != nil {
			return fmt.Errorf("build clear defaults sql: %w", err)
		}
		if _, err := tx.Exec(ctx, stmt, args...); err != nil {
			return repository.Translate("clear defaults", err)
		}
		return nil
	})
}

var _ port.DefaultScopeStore = (*DefaultScopeStore)(nil)
