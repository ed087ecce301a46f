package store

import (
	"context"
	"errors"

	"classhub.app/api-server/internal/model"
	"github.com/jackc/pgx/v5"
)

const sessionColumns = `id, user_id, expires_at, created_at`

type sessionStore struct {
	db DBTX
}

func scanSession(row pgx.Row) (*model.Session, error) {
	var s model.Session
	err := row.Scan(&s.ID, &s.UserID, &s.ExpiresAt, &s.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &s, nil
}

func (s *sessionStore) GetByID(ctx context.Context, id int64) (*model.Session, error) {
	return scanSession(s.db.QueryRow(ctx,
		`SELECT `+sessionColumns+` FROM sessions WHERE id = $1`, id))
}

func (s *sessionStore) GetValid(ctx context.Context, id int64) (*model.Session, error) {
	return scanSession(s.db.QueryRow(ctx,
		`SELECT `+sessionColumns+` FROM sessions WHERE id = $1 AND expires_at > now()`, id))
}

func (s *sessionStore) Create(ctx context.Context, session *model.Session) error {
	row := s.db.QueryRow(ctx, `
		INSERT INTO sessions (id, user_id, expires_at)
		VALUES ($1, $2, $3)
		RETURNING `+sessionColumns,
		session.ID, session.UserID, session.ExpiresAt)

	saved, err := scanSession(row)
	if err != nil {
		return err
	}
	*session = *saved
	return nil
}

func (s *sessionStore) Delete(ctx context.Context, id int64) error {
	_, err := s.db.Exec(ctx, `DELETE FROM sessions WHERE id = $1`, id)
	return err
}

func (s *sessionStore) DeleteByUser(ctx context.Context, userID int64) error {
	_, err := s.db.Exec(ctx, `DELETE FROM sessions WHERE user_id = $1`, userID)
	return err
}

func (s *sessionStore) DeleteExpired(ctx context.Context) error {
	_, err := s.db.Exec(ctx, `DELETE FROM sessions WHERE expires_at <= now()`)
	return err
}
