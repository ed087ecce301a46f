package store

import (
	"context"
	"errors"

	"classhub.app/api-server/internal/model"
	"github.com/jackc/pgx/v5"
)

const classroomColumns = `id, slug, title, group_id, group_global_id, deleted_at, created_at, updated_at`

type classroomStore struct {
	db DBTX
}

func scanClassroom(row pgx.Row) (*model.Classroom, error) {
	var c model.Classroom
	err := row.Scan(
		&c.ID, &c.Slug, &c.Title, &c.GroupID, &c.GroupGlobalID,
		&c.DeletedAt, &c.CreatedAt, &c.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &c, nil
}

func scanClassrooms(rows pgx.Rows) ([]model.Classroom, error) {
	defer rows.Close()

	var result []model.Classroom
	for rows.Next() {
		c, err := scanClassroom(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *c)
	}
	return result, rows.Err()
}

func (s *classroomStore) GetByID(ctx context.Context, id int64) (*model.Classroom, error) {
	return scanClassroom(s.db.QueryRow(ctx,
		`SELECT `+classroomColumns+` FROM classrooms WHERE id = $1 AND deleted_at IS NULL`, id))
}

func (s *classroomStore) GetBySlug(ctx context.Context, slug string) (*model.Classroom, error) {
	return scanClassroom(s.db.QueryRow(ctx,
		`SELECT `+classroomColumns+` FROM classrooms WHERE slug = $1 AND deleted_at IS NULL`, slug))
}

func (s *classroomStore) GetBySlugUnscoped(ctx context.Context, slug string) (*model.Classroom, error) {
	return scanClassroom(s.db.QueryRow(ctx,
		`SELECT `+classroomColumns+` FROM classrooms WHERE slug = $1`, slug))
}

func (s *classroomStore) GetByIDUnscoped(ctx context.Context, id int64) (*model.Classroom, error) {
	return scanClassroom(s.db.QueryRow(ctx,
		`SELECT `+classroomColumns+` FROM classrooms WHERE id = $1`, id))
}

func (s *classroomStore) GetByGroupID(ctx context.Context, groupID int64) (*model.Classroom, error) {
	return scanClassroom(s.db.QueryRow(ctx,
		`SELECT `+classroomColumns+` FROM classrooms
		 WHERE group_id = $1 AND deleted_at IS NULL
		 ORDER BY created_at
		 LIMIT 1`, groupID))
}

func (s *classroomStore) Create(ctx context.Context, classroom *model.Classroom) error {
	row := s.db.QueryRow(ctx, `
		INSERT INTO classrooms (id, slug, title, group_id, group_global_id)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING `+classroomColumns,
		classroom.ID, classroom.Slug, classroom.Title, classroom.GroupID, classroom.GroupGlobalID)

	saved, err := scanClassroom(row)
	if err != nil {
		return err
	}
	*classroom = *saved
	return nil
}

func (s *classroomStore) Update(ctx context.Context, classroom *model.Classroom) error {
	row := s.db.QueryRow(ctx, `
		UPDATE classrooms
		SET title = $2, updated_at = now()
		WHERE id = $1 AND deleted_at IS NULL
		RETURNING `+classroomColumns,
		classroom.ID, classroom.Title)

	saved, err := scanClassroom(row)
	if err != nil {
		return err
	}
	*classroom = *saved
	return nil
}

func (s *classroomStore) SoftDelete(ctx context.Context, id int64) error {
	tag, err := s.db.Exec(ctx, `
		UPDATE classrooms
		SET deleted_at = now(), updated_at = now()
		WHERE id = $1 AND deleted_at IS NULL`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *classroomStore) HardDelete(ctx context.Context, id int64) error {
	_, err := s.db.Exec(ctx, `DELETE FROM classrooms WHERE id = $1`, id)
	return err
}

func (s *classroomStore) ListByUser(ctx context.Context, userID int64) ([]model.Classroom, error) {
	rows, err := s.db.Query(ctx, `
		SELECT c.id, c.slug, c.title, c.group_id, c.group_global_id, c.deleted_at, c.created_at, c.updated_at
		FROM classrooms c
		JOIN memberships m ON m.classroom_id = c.id
		WHERE m.user_id = $1 AND c.deleted_at IS NULL
		ORDER BY c.created_at DESC`, userID)
	if err != nil {
		return nil, err
	}
	return scanClassrooms(rows)
}

func (s *classroomStore) ListBoundGroupIDs(ctx context.Context) ([]int64, error) {
	rows, err := s.db.Query(ctx,
		`SELECT DISTINCT group_id FROM classrooms WHERE deleted_at IS NULL`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func (s *classroomStore) CountActive(ctx context.Context) (int64, error) {
	var count int64
	err := s.db.QueryRow(ctx,
		`SELECT count(*) FROM classrooms WHERE deleted_at IS NULL`).Scan(&count)
	return count, err
}
