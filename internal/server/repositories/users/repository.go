// Package users persists user accounts. Two implementations exist: a
// PostgreSQL repository used in deployments and an in-memory repository used
// by tests and small single-process setups.
package users

import (
	"context"

	"github.com/techroad/techroad/internal/server/models"
)

// Repository is the persistence contract consumed by the auth service.
// Lookups that find nothing return common.ErrorNotFound.
type Repository interface {
	// Create inserts the user and returns it with its assigned id and
	// creation timestamp. Duplicate emails yield common.ErrorAlreadyExists.
	Create(ctx context.Context, user *models.User) (*models.User, error)

	// GetByEmail looks a user up by normalized email.
	GetByEmail(ctx context.Context, email string) (*models.User, error)

	// GetByID looks a user up by id.
	GetByID(ctx context.Context, id string) (*models.User, error)

	// UpdateFields applies a partial update. Keys are dotted field paths
	// ("last_login", "profile.education",
	// "profile.career_goals.work_environment", ...); only the named fields
	// change. Returns the number of matched records (0 or 1).
	UpdateFields(ctx context.Context, id string, fields map[string]any) (int64, error)
}
