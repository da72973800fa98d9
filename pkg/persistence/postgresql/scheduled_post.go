package postgresql

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/uplix/flow/pkg/models"
	"github.com/uplix/flow/pkg/persistence"
)

// ScheduledPostRepository implements persistence.ScheduledPostRepository on
// PostgreSQL.
type ScheduledPostRepository struct {
	db *sql.DB
}

const scheduledPostColumns = "id, media_url, media_type, caption, schedule_time, status, owner, error, created_at, updated_at"

// List returns scheduled posts, soonest schedule time first.
func (r *ScheduledPostRepository) List(ctx context.Context, owner string) ([]*models.ScheduledPost, error) {
	query := "SELECT " + scheduledPostColumns + " FROM scheduled_posts"
	args := []any{}

	if owner != "" {
		query += " WHERE owner = $1"

		args = append(args, owner)
	}

	query += " ORDER BY schedule_time ASC"

	return r.queryPosts(ctx, "List", query, args...)
}

// GetByID returns a scheduled post by ID.
func (r *ScheduledPostRepository) GetByID(ctx context.Context, id string) (*models.ScheduledPost, error) {
	row := r.db.QueryRowContext(ctx,
		"SELECT "+scheduledPostColumns+" FROM scheduled_posts WHERE id = $1", id)

	post, err := scanScheduledPost(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, persistence.NewScheduledPostError("GetByID", id, persistence.ErrScheduledPostNotFound)
		}

		return nil, persistence.NewScheduledPostError("GetByID", id, err)
	}

	return post, nil
}

// Save upserts the post.
func (r *ScheduledPostRepository) Save(ctx context.Context, post *models.ScheduledPost) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO scheduled_posts (id, media_url, media_type, caption, schedule_time, status, owner, error, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (id) DO UPDATE SET
			media_url = EXCLUDED.media_url,
			media_type = EXCLUDED.media_type,
			caption = EXCLUDED.caption,
			schedule_time = EXCLUDED.schedule_time,
			status = EXCLUDED.status,
			owner = EXCLUDED.owner,
			error = EXCLUDED.error,
			updated_at = EXCLUDED.updated_at
	`, post.ID, post.MediaURL, post.MediaType, post.Caption, post.ScheduleTime,
		post.Status, nullString(post.Owner), post.Error, post.CreatedAt, post.UpdatedAt)
	if err != nil {
		return persistence.NewScheduledPostError("Save", post.ID, err)
	}

	return nil
}

// Delete removes the post.
func (r *ScheduledPostRepository) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, "DELETE FROM scheduled_posts WHERE id = $1", id)
	if err != nil {
		return persistence.NewScheduledPostError("Delete", id, err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return persistence.NewScheduledPostError("Delete", id, err)
	}

	if affected == 0 {
		return persistence.NewScheduledPostError("Delete", id, persistence.ErrScheduledPostNotFound)
	}

	return nil
}

// Due returns posts still scheduled whose schedule time has passed.
func (r *ScheduledPostRepository) Due(ctx context.Context, now time.Time) ([]*models.ScheduledPost, error) {
	query := "SELECT " + scheduledPostColumns + " FROM scheduled_posts" +
		" WHERE status = $1 AND schedule_time <= $2 ORDER BY schedule_time ASC"

	return r.queryPosts(ctx, "Due", query, models.ScheduledPostStatusScheduled, now)
}

func (r *ScheduledPostRepository) queryPosts(ctx context.Context, op, query string, args ...any) ([]*models.ScheduledPost, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, persistence.NewScheduledPostError(op, "", err)
	}
	defer rows.Close()

	var posts []*models.ScheduledPost

	for rows.Next() {
		post, err := scanScheduledPost(rows)
		if err != nil {
			return nil, persistence.NewScheduledPostError(op, "", err)
		}

		posts = append(posts, post)
	}

	if err := rows.Err(); err != nil {
		return nil, persistence.NewScheduledPostError(op, "", err)
	}

	return posts, nil
}

func scanScheduledPost(row rowScanner) (*models.ScheduledPost, error) {
	var (
		post  models.ScheduledPost
		owner sql.NullString
	)

	err := row.Scan(&post.ID, &post.MediaURL, &post.MediaType, &post.Caption,
		&post.ScheduleTime, &post.Status, &owner, &post.Error,
		&post.CreatedAt, &post.UpdatedAt)
	if err != nil {
		return nil, err
	}

	post.Owner = owner.String

	return &post, nil
}
