package store

import (
	"context"
	"errors"

	"classhub.app/api-server/internal/model"
	"github.com/jackc/pgx/v5"
)

const assignmentColumns = `id, classroom_id, title, slug, creator_id, created_at, updated_at`

type assignmentStore struct {
	db DBTX
}

func scanAssignment(row pgx.Row) (*model.Assignment, error) {
	var a model.Assignment
	err := row.Scan(&a.ID, &a.ClassroomID, &a.Title, &a.Slug, &a.CreatorID, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &a, nil
}

func (s *assignmentStore) GetByID(ctx context.Context, id int64) (*model.Assignment, error) {
	return scanAssignment(s.db.QueryRow(ctx,
		`SELECT `+assignmentColumns+` FROM assignments WHERE id = $1`, id))
}

func (s *assignmentStore) Create(ctx context.Context, assignment *model.Assignment) error {
	row := s.db.QueryRow(ctx, `
		INSERT INTO assignments (id, classroom_id, title, slug, creator_id)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING `+assignmentColumns,
		assignment.ID, assignment.ClassroomID, assignment.Title, assignment.Slug, assignment.CreatorID)

	saved, err := scanAssignment(row)
	if err != nil {
		return err
	}
	*assignment = *saved
	return nil
}

func (s *assignmentStore) Delete(ctx context.Context, id int64) error {
	_, err := s.db.Exec(ctx, `DELETE FROM assignments WHERE id = $1`, id)
	return err
}

func (s *assignmentStore) DeleteByClassroom(ctx context.Context, classroomID int64) error {
	_, err := s.db.Exec(ctx, `DELETE FROM assignments WHERE classroom_id = $1`, classroomID)
	return err
}

func (s *assignmentStore) ListByClassroom(ctx context.Context, classroomID int64) ([]model.Assignment, error) {
	rows, err := s.db.Query(ctx,
		`SELECT `+assignmentColumns+` FROM assignments WHERE classroom_id = $1 ORDER BY created_at`,
		classroomID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []model.Assignment
	for rows.Next() {
		a, err := scanAssignment(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *a)
	}
	return result, rows.Err()
}

func (s *assignmentStore) ClearCreator(ctx context.Context, classroomID, creatorID int64) error {
	_, err := s.db.Exec(ctx, `
		UPDATE assignments
		SET creator_id = NULL, updated_at = now()
		WHERE classroom_id = $1 AND creator_id = $2`,
		classroomID, creatorID)
	return err
}
