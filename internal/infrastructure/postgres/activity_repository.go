package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/oksasatya/zenplan-api/internal/domain/entity"
	"github.com/oksasatya/zenplan-api/internal/domain/repository"
)

// Lists are ordered by seq, a sequence assigned on insert, so creation order
// holds even when two rows share created_at.
const activityColumns = `id, user_id, title, category::text, time, description, note, completed, created_at, updated_at`

// ActivityRepository stores activities in Postgres. Ownership is enforced
// inside each statement (WHERE id AND user_id), so there is no gap between
// checking the owner and mutating the row.
type ActivityRepository struct {
	pool *pgxpool.Pool
}

func NewActivityRepository(pool *pgxpool.Pool) *ActivityRepository {
	return &ActivityRepository{pool: pool}
}

func (r *ActivityRepository) Create(ctx context.Context, a *entity.Activity) error {
	row := r.pool.QueryRow(ctx, `
		INSERT INTO activities (user_id, title, category, time, description, note)
		VALUES ($1, $2, $3::activity_category, $4, $5, $6)
		RETURNING id, completed, created_at, updated_at
	`, a.UserID, a.Title, a.Category.DBValue(), a.Time, a.Description, a.Note)

	return row.Scan(&a.ID, &a.Completed, &a.CreatedAt, &a.UpdatedAt)
}

func (r *ActivityRepository) ListByUser(ctx context.Context, userID string) ([]entity.Activity, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+activityColumns+`
		FROM activities
		WHERE user_id = $1
		ORDER BY seq
	`, userID)
	if err != nil {
		return nil, err
	}
	return collectActivities(rows)
}

func (r *ActivityRepository) Update(ctx context.Context, userID, id string, patch entity.ActivityPatch) (*entity.Activity, error) {
	var category *string
	if patch.Category != nil {
		v := patch.Category.DBValue()
		category = &v
	}
	row := r.pool.QueryRow(ctx, `
		UPDATE activities
		SET title       = COALESCE($3, title),
		    category    = COALESCE($4::activity_category, category),
		    time        = COALESCE($5, time),
		    description = COALESCE($6, description),
		    note        = COALESCE($7, note),
		    updated_at  = now()
		WHERE id = $1 AND user_id = $2
		RETURNING `+activityColumns,
		id, userID, patch.Title, category, patch.Time, patch.Description, patch.Note)
	return scanOne(row)
}

func (r *ActivityRepository) Delete(ctx context.Context, userID, id string) error {
	res, err := r.pool.Exec(ctx, `DELETE FROM activities WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return err
	}
	if res.RowsAffected() == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (r *ActivityRepository) Toggle(ctx context.Context, userID, id string) (*entity.Activity, error) {
	row := r.pool.QueryRow(ctx, `
		UPDATE activities
		SET completed = NOT completed, updated_at = now()
		WHERE id = $1 AND user_id = $2
		RETURNING `+activityColumns,
		id, userID)
	return scanOne(row)
}

// CompleteAll marks every open activity of the user as completed and
// returns the rows that changed in creation order.
func (r *ActivityRepository) CompleteAll(ctx context.Context, userID string) ([]entity.Activity, error) {
	rows, err := r.pool.Query(ctx, `
		WITH updated AS (
			UPDATE activities
			SET completed = TRUE, updated_at = now()
			WHERE user_id = $1 AND NOT completed
			RETURNING `+activityColumns+`, seq
		)
		SELECT id, user_id, title, category, time, description, note, completed, created_at, updated_at
		FROM updated ORDER BY seq
	`, userID)
	if err != nil {
		return nil, err
	}
	return collectActivities(rows)
}

func scanOne(row pgx.Row) (*entity.Activity, error) {
	a, err := scanActivity(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return &a, nil
}

func collectActivities(rows pgx.Rows) ([]entity.Activity, error) {
	defer rows.Close()
	out := make([]entity.Activity, 0)
	for rows.Next() {
		a, err := scanActivity(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func scanActivity(row pgx.Row) (entity.Activity, error) {
	var (
		a        entity.Activity
		category string
	)
	if err := row.Scan(&a.ID, &a.UserID, &a.Title, &category, &a.Time, &a.Description, &a.Note,
		&a.Completed, &a.CreatedAt, &a.UpdatedAt); err != nil {
		return entity.Activity{}, err
	}
	c, ok := entity.ParseCategory(category)
	if !ok {
		return entity.Activity{}, fmt.Errorf("unknown category %q for activity %s", category, a.ID)
	}
	a.Category = c
	return a, nil
}

var _ repository.ActivityRepository = (*ActivityRepository)(nil)
