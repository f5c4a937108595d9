package users

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"

	"github.com/yanote/notes/backend/go-services/internal/models"
)

// PostgresUserRepository stores users in the "users" table. Deleting a row
// cascades to the user's notes through the notes.author_id foreign key.
type PostgresUserRepository struct {
	db *sql.DB
}

func NewPostgresUserRepository(db *sql.DB) *PostgresUserRepository {
	return &PostgresUserRepository{db: db}
}

func (r *PostgresUserRepository) UpsertBySub(ctx context.Context, u *models.User) (*models.User, error) {
	query := `
		INSERT INTO users (id, sub, email, name, created_at, updated_at)
		VALUES ($1, $2, $3, $4, now(), now())
		ON CONFLICT (sub) DO UPDATE
			SET email = EXCLUDED.email, name = EXCLUDED.name, updated_at = now()
		RETURNING id, sub, email, name, created_at, updated_at
	`
	out := &models.User{}
	err := r.db.QueryRowContext(ctx, query, uuid.NewString(), u.Sub, u.Email, u.Name).
		Scan(&out.ID, &out.Sub, &out.Email, &out.Name, &out.CreatedAt, &out.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (r *PostgresUserRepository) GetBySub(ctx context.Context, sub string) (*models.User, error) {
	u := &models.User{}
	err := r.db.QueryRowContext(ctx,
		`SELECT id, sub, email, name, created_at, updated_at FROM users WHERE sub = $1`, sub).
		Scan(&u.ID, &u.Sub, &u.Email, &u.Name, &u.CreatedAt, &u.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return u, nil
}

func (r *PostgresUserRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
