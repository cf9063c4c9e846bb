package users

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/techroad/techroad/internal/common"
	"github.com/techroad/techroad/internal/server/models"
)

// InMemoryRepository keeps users in a mutex-guarded map. Records are copied
// on the way in and out so callers never share memory with the store.
type InMemoryRepository struct {
	mu      sync.RWMutex
	byID    map[string]*models.User
	byEmail map[string]string
}

func NewInMemoryRepository() *InMemoryRepository {
	return &InMemoryRepository{
		byID:    make(map[string]*models.User),
		byEmail: make(map[string]string),
	}
}

func (r *InMemoryRepository) Create(ctx context.Context, user *models.User) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.byEmail[user.Email]; ok {
		return nil, common.ErrorAlreadyExists
	}

	stored := cloneUser(user)
	stored.ID = uuid.NewString()
	stored.CreatedAt = time.Now().UTC()

	r.byID[stored.ID] = stored
	r.byEmail[stored.Email] = stored.ID

	return cloneUser(stored), nil
}

func (r *InMemoryRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	id, ok := r.byEmail[email]
	if !ok {
		return nil, common.ErrorNotFound
	}
	return cloneUser(r.byID[id]), nil
}

func (r *InMemoryRepository) GetByID(ctx context.Context, id string) (*models.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	user, ok := r.byID[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	return cloneUser(user), nil
}

func (r *InMemoryRepository) UpdateFields(ctx context.Context, id string, fields map[string]any) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	user, ok := r.byID[id]
	if !ok {
		return 0, nil
	}

	for path, value := range fields {
		if err := applyField(user, path, value); err != nil {
			return 0, err
		}
	}
	return 1, nil
}

func applyField(u *models.User, path string, value any) error {
	switch path {
	case "last_login":
		t, ok := value.(time.Time)
		if !ok {
			return fmt.Errorf("field %q: expected time.Time, got %T", path, value)
		}
		u.LastLogin = &t
	case "is_active":
		b, ok := value.(bool)
		if !ok {
			return fmt.Errorf("field %q: expected bool, got %T", path, value)
		}
		u.IsActive = b
	case "profile.education":
		return setString(&u.Profile.Education, path, value)
	case "profile.experience_level":
		return setString(&u.Profile.ExperienceLevel, path, value)
	case "profile.learning_preferences":
		prefs, ok := value.([]string)
		if !ok {
			return fmt.Errorf("field %q: expected []string, got %T", path, value)
		}
		u.Profile.LearningPreferences = append([]string(nil), prefs...)
	case "profile.time_commitment":
		return setFloat(&u.Profile.TimeCommitment, path, value)
	case "profile.career_goals.work_environment":
		return setString(&u.Profile.CareerGoals.WorkEnvironment, path, value)
	case "profile.career_goals.income_expectations":
		return setFloat(&u.Profile.CareerGoals.IncomeExpectations, path, value)
	default:
		return fmt.Errorf("invalid field path %q", path)
	}
	return nil
}

func setString(dst *string, path string, value any) error {
	s, ok := value.(string)
	if !ok {
		return fmt.Errorf("field %q: expected string, got %T", path, value)
	}
	*dst = s
	return nil
}

func setFloat(dst *float64, path string, value any) error {
	f, ok := value.(float64)
	if !ok {
		return fmt.Errorf("field %q: expected float64, got %T", path, value)
	}
	*dst = f
	return nil
}

func cloneUser(u *models.User) *models.User {
	c := *u
	c.PasswordHash = append([]byte(nil), u.PasswordHash...)
	c.Profile.LearningPreferences = append([]string(nil), u.Profile.LearningPreferences...)
	if u.LastLogin != nil {
		t := *u.LastLogin
		c.LastLogin = &t
	}
	return &c
}
