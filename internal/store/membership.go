package store

import (
	"context"
	"errors"

	"classhub.app/api-server/internal/model"
	"github.com/jackc/pgx/v5"
)

const membershipColumns = `id, classroom_id, user_id, created_at`

type membershipStore struct {
	db DBTX
}

func scanMembership(row pgx.Row) (*model.Membership, error) {
	var m model.Membership
	err := row.Scan(&m.ID, &m.ClassroomID, &m.UserID, &m.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &m, nil
}

func (s *membershipStore) Get(ctx context.Context, classroomID, userID int64) (*model.Membership, error) {
	return scanMembership(s.db.QueryRow(ctx,
		`SELECT `+membershipColumns+` FROM memberships WHERE classroom_id = $1 AND user_id = $2`,
		classroomID, userID))
}

func (s *membershipStore) Create(ctx context.Context, membership *model.Membership) error {
	row := s.db.QueryRow(ctx, `
		INSERT INTO memberships (id, classroom_id, user_id)
		VALUES ($1, $2, $3)
		ON CONFLICT (classroom_id, user_id) DO UPDATE SET user_id = EXCLUDED.user_id
		RETURNING `+membershipColumns,
		membership.ID, membership.ClassroomID, membership.UserID)

	saved, err := scanMembership(row)
	if err != nil {
		return err
	}
	*membership = *saved
	return nil
}

func (s *membershipStore) Delete(ctx context.Context, classroomID, userID int64) error {
	tag, err := s.db.Exec(ctx,
		`DELETE FROM memberships WHERE classroom_id = $1 AND user_id = $2`,
		classroomID, userID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *membershipStore) DeleteByClassroom(ctx context.Context, classroomID int64) error {
	_, err := s.db.Exec(ctx, `DELETE FROM memberships WHERE classroom_id = $1`, classroomID)
	return err
}

func (s *membershipStore) ListByClassroom(ctx context.Context, classroomID int64) ([]model.Membership, error) {
	rows, err := s.db.Query(ctx,
		`SELECT `+membershipColumns+` FROM memberships WHERE classroom_id = $1 ORDER BY created_at`,
		classroomID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []model.Membership
	for rows.Next() {
		m, err := scanMembership(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *m)
	}
	return result, rows.Err()
}
