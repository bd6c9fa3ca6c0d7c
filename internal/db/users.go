package db

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"foodgram/internal/models"
)

// userColumns is the standard column list for user queries.
const userColumns = `id, email, username, first_name, last_name, password_hash, avatar,
	is_active, token_version, created_at, updated_at`

// scanUser scans a row into a User struct.
func scanUser(row pgx.Row) (*models.User, error) {
	var user models.User
	err := row.Scan(
		&user.ID,
		&user.Email,
		&user.Username,
		&user.FirstName,
		&user.LastName,
		&user.PasswordHash,
		&user.Avatar,
		&user.IsActive,
		&user.TokenVersion,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// scanUsers scans multiple rows into a slice of Users.
func scanUsers(rows pgx.Rows) ([]models.User, error) {
	defer rows.Close()

	var users []models.User
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, *user)
	}
	return users, rows.Err()
}

// CreateUser inserts a user together with their shopping cart.
func (d *DB) CreateUser(ctx context.Context, user *models.User) error {
	return d.WithTx(ctx, func(tx *DB) error {
		err := tx.q.QueryRow(ctx, `
			INSERT INTO users (email, username, first_name, last_name, password_hash)
			VALUES ($1, $2, $3, $4, $5)
			RETURNING id, is_active, token_version, created_at, updated_at
		`,
			user.Email,
			user.Username,
			user.FirstName,
			user.LastName,
			user.PasswordHash,
		).Scan(&user.ID, &user.IsActive, &user.TokenVersion, &user.CreatedAt, &user.UpdatedAt)
		if err != nil {
			if constraint, ok := isUniqueViolation(err); ok {
				if constraint == "users_username_key" {
					return ErrDuplicateUsername
				}
				return ErrDuplicateEmail
			}
			return err
		}

		_, err = tx.q.Exec(ctx, `INSERT INTO carts (owner_id) VALUES ($1)`, user.ID)
		return err
	})
}

// GetUserByID retrieves a user by id.
func (d *DB) GetUserByID(ctx context.Context, id int64) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`
	return scanUser(d.q.QueryRow(ctx, query, id))
}

// GetUserByEmail retrieves a user by email (case-insensitive).
func (d *DB) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE lower(email) = lower($1)`
	return scanUser(d.q.QueryRow(ctx, query, email))
}

// ListUsers returns a page of users ordered by id, plus the total count.
func (d *DB) ListUsers(ctx context.Context, limit, offset int) ([]models.User, int, error) {
	var total int
	if err := d.q.QueryRow(ctx, `SELECT COUNT(*) FROM users`).Scan(&total); err != nil {
		return nil, 0, err
	}

	rows, err := d.q.Query(ctx, `
		SELECT `+userColumns+`
		FROM users
		ORDER BY id
		LIMIT $1 OFFSET $2
	`, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	users, err := scanUsers(rows)
	return users, total, err
}

// FindUserConflicts reports whether the username or email is used by
// somebody else.
func (d *DB) FindUserConflicts(ctx context.Context, username, email string) (usernameTaken, emailTaken bool, err error) {
	err = d.q.QueryRow(ctx, `
		SELECT
			EXISTS (SELECT 1 FROM users WHERE username = $1 AND lower(email) <> lower($2)),
			EXISTS (SELECT 1 FROM users WHERE lower(email) = lower($2) AND username <> $1)
	`, username, email).Scan(&usernameTaken, &emailTaken)
	return usernameTaken, emailTaken, err
}

// UpdateUserAvatar sets or clears (nil) a user's avatar key.
func (d *DB) UpdateUserAvatar(ctx context.Context, userID int64, avatar *string) error {
	result, err := d.q.Exec(ctx, `UPDATE users SET avatar = $1, updated_at = NOW() WHERE id = $2`, avatar, userID)
	if err != nil {
		return err
	}
	if result.RowsAffected() == 0 {
		return ErrUserNotFound
	}
	return nil
}

// UpdateUserPassword replaces a user's password hash.
func (d *DB) UpdateUserPassword(ctx context.Context, userID int64, passwordHash string) error {
	result, err := d.q.Exec(ctx, `UPDATE users SET password_hash = $1, updated_at = NOW() WHERE id = $2`, passwordHash, userID)
	if err != nil {
		return err
	}
	if result.RowsAffected() == 0 {
		return ErrUserNotFound
	}
	return nil
}

// BumpTokenVersion invalidates every token issued to the user so far and
// returns the new version.
func (d *DB) BumpTokenVersion(ctx context.Context, userID int64) (int, error) {
	var version int
	err := d.q.QueryRow(ctx, `
		UPDATE users SET token_version = token_version + 1, updated_at = NOW()
		WHERE id = $1
		RETURNING token_version
	`, userID).Scan(&version)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, ErrUserNotFound
	}
	return version, err
}

// GetCartByOwner returns the cart belonging to a user.
func (d *DB) GetCartByOwner(ctx context.Context, userID int64) (*models.Cart, error) {
	var cart models.Cart
	err := d.q.QueryRow(ctx, `SELECT id, owner_id FROM carts WHERE owner_id = $1`, userID).
		Scan(&cart.ID, &cart.OwnerID)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrCartNotFound
	}
	if err != nil {
		return nil, err
	}
	return &cart, nil
}
