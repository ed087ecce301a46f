package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// DBTX is the subset of pgx shared by *pgxpool.Pool and pgx.Tx, letting the
// same store implementations run inside and outside transactions.
type DBTX interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

type Provider struct {
	pool *pgxpool.Pool
	db   DBTX
}

var (
	_ Stores   = (*Provider)(nil)
	_ TxRunner = (*Provider)(nil)
)

func New(pool *pgxpool.Pool) *Provider {
	return &Provider{pool: pool, db: pool}
}

func newTxProvider(tx pgx.Tx) *Provider {
	return &Provider{db: tx}
}

func (p *Provider) Users() UserStore             { return &userStore{db: p.db} }
func (p *Provider) Sessions() SessionStore       { return &sessionStore{db: p.db} }
func (p *Provider) Classrooms() ClassroomStore   { return &classroomStore{db: p.db} }
func (p *Provider) Memberships() MembershipStore { return &membershipStore{db: p.db} }
func (p *Provider) Assignments() AssignmentStore { return &assignmentStore{db: p.db} }

func (p *Provider) WithTx(ctx context.Context, fn func(Stores) error) error {
	if p.pool == nil {
		return errors.New("nested transactions are not supported")
	}

	tx, err := p.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if err := fn(newTxProvider(tx)); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}
