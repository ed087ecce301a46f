package store

import (
	"context"
	"errors"

	"classhub.app/api-server/internal/model"
	"github.com/jackc/pgx/v5"
)

const userColumns = `id, name, email, avatar_url, workos_id, provider_token, provider_user_id, created_at, updated_at`

type userStore struct {
	db DBTX
}

func scanUser(row pgx.Row) (*model.User, error) {
	var u model.User
	err := row.Scan(
		&u.ID, &u.Name, &u.Email, &u.AvatarURL, &u.WorkOSID,
		&u.ProviderToken, &u.ProviderUserID, &u.CreatedAt, &u.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &u, nil
}

func (s *userStore) GetByID(ctx context.Context, id int64) (*model.User, error) {
	return scanUser(s.db.QueryRow(ctx,
		`SELECT `+userColumns+` FROM users WHERE id = $1`, id))
}

func (s *userStore) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	return scanUser(s.db.QueryRow(ctx,
		`SELECT `+userColumns+` FROM users WHERE email = $1`, email))
}

func (s *userStore) GetByWorkOSID(ctx context.Context, workosID string) (*model.User, error) {
	return scanUser(s.db.QueryRow(ctx,
		`SELECT `+userColumns+` FROM users WHERE workos_id = $1`, workosID))
}

func (s *userStore) UpsertByWorkOSID(ctx context.Context, user *model.User) error {
	row := s.db.QueryRow(ctx, `
		INSERT INTO users (id, name, email, avatar_url, workos_id)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (workos_id) DO UPDATE
		SET name = EXCLUDED.name,
		    email = EXCLUDED.email,
		    avatar_url = EXCLUDED.avatar_url,
		    updated_at = now()
		RETURNING `+userColumns,
		user.ID, user.Name, user.Email, user.AvatarURL, user.WorkOSID)

	saved, err := scanUser(row)
	if err != nil {
		return err
	}
	*user = *saved
	return nil
}

func (s *userStore) SetProviderCredential(ctx context.Context, id int64, token string, providerUserID int64) error {
	tag, err := s.db.Exec(ctx, `
		UPDATE users
		SET provider_token = $2, provider_user_id = $3, updated_at = now()
		WHERE id = $1`,
		id, token, providerUserID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *userStore) ClearProviderCredential(ctx context.Context, id int64) error {
	tag, err := s.db.Exec(ctx, `
		UPDATE users
		SET provider_token = NULL, provider_user_id = NULL, updated_at = now()
		WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *userStore) Update(ctx context.Context, user *model.User) error {
	row := s.db.QueryRow(ctx, `
		UPDATE users
		SET name = $2, email = $3, avatar_url = $4, updated_at = now()
		WHERE id = $1
		RETURNING `+userColumns,
		user.ID, user.Name, user.Email, user.AvatarURL)

	saved, err := scanUser(row)
	if err != nil {
		return err
	}
	*user = *saved
	return nil
}

func (s *userStore) Delete(ctx context.Context, id int64) error {
	_, err := s.db.Exec(ctx, `DELETE FROM users WHERE id = $1`, id)
	return err
}
