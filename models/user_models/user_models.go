package user_models

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/joy095/spaces/config/db"
	"github.com/joy095/spaces/logger"
)

var ErrUserNotFound = errors.New("user not found")

// User is the contact view of an account used for notifications.
type User struct {
	ID       uuid.UUID `json:"id"`
	Email    string    `json:"email"`
	FullName string    `json:"full_name"`
}

// GetUserByID loads a user's contact details.
func GetUserByID(ctx context.Context, q db.DBTX, id uuid.UUID) (*User, error) {
	user := &User{}
	err := q.QueryRow(ctx, `SELECT id, email, full_name FROM users WHERE id = $1`, id).
		Scan(&user.ID, &user.Email, &user.FullName)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		logger.ErrorLogger.Errorf("Failed to fetch user %s: %v", id, err)
		return nil, fmt.Errorf("database error fetching user: %w", err)
	}
	return user, nil
}
