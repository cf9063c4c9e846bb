package users

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/techroad/techroad/internal/common"
	"github.com/techroad/techroad/internal/dbx"
	"github.com/techroad/techroad/internal/server/models"
)

// scalar columns UpdateFields may touch directly; everything else must be a
// profile.* path applied inside the JSONB document.
var updatableColumns = map[string]struct{}{
	"last_login": {},
	"is_active":  {},
}

var jsonPathSegment = regexp.MustCompile(`^[a-z_]+$`)

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Create(ctx context.Context, user *models.User) (*models.User, error) {

	profile, err := json.Marshal(user.Profile)
	if err != nil {
		return nil, fmt.Errorf("marshaling profile: %w", err)
	}

	query :=
		`INSERT INTO users (email, password_hash, user_type, profile, is_active)
		 VALUES ($1, $2, $3, $4, $5)
		 RETURNING id, created_at
		 `

	err = r.db.QueryRowContext(ctx, query,
		user.Email, user.PasswordHash, user.UserType, profile, user.IsActive).
		Scan(&user.ID, &user.CreatedAt)

	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
			return nil, common.ErrorAlreadyExists
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	return user, nil
}

func (r *PostgresRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	return r.getOne(ctx, "email = $1", email)
}

func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*models.User, error) {
	return r.getOne(ctx, "id = $1", id)
}

func (r *PostgresRepository) getOne(ctx context.Context, where string, arg any) (*models.User, error) {
	query :=
		`SELECT id, email, password_hash, user_type, profile, created_at, last_login, is_active
		 FROM users
		 WHERE ` + where

	user := &models.User{}
	var profile []byte
	var lastLogin sql.NullTime

	err := r.db.QueryRowContext(ctx, query, arg).Scan(
		&user.ID, &user.Email, &user.PasswordHash, &user.UserType,
		&profile, &user.CreatedAt, &lastLogin, &user.IsActive)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	if err := json.Unmarshal(profile, &user.Profile); err != nil {
		return nil, fmt.Errorf("unmarshaling profile: %w", err)
	}
	if lastLogin.Valid {
		t := lastLogin.Time
		user.LastLogin = &t
	}

	return user, nil
}

// UpdateFields applies the dotted-path field map as a single UPDATE. Profile
// paths are folded into one chained jsonb_set expression so the whole partial
// update stays atomic.
func (r *PostgresRepository) UpdateFields(ctx context.Context, id string, fields map[string]any) (int64, error) {
	if len(fields) == 0 {
		return 0, nil
	}

	// Sorted for a deterministic statement shape.
	paths := make([]string, 0, len(fields))
	for p := range fields {
		paths = append(paths, p)
	}
	sort.Strings(paths)

	var sets []string
	var args []any
	profileExpr := "profile"

	for _, path := range paths {
		value := fields[path]

		if rest, ok := strings.CutPrefix(path, "profile."); ok {
			segments := strings.Split(rest, ".")
			for _, seg := range segments {
				if !jsonPathSegment.MatchString(seg) {
					return 0, fmt.Errorf("invalid field path %q", path)
				}
			}
			encoded, err := json.Marshal(value)
			if err != nil {
				return 0, fmt.Errorf("marshaling %q: %w", path, err)
			}
			args = append(args, string(encoded))
			profileExpr = fmt.Sprintf("jsonb_set(%s, '{%s}', $%d::jsonb, true)",
				profileExpr, strings.Join(segments, ","), len(args))
			continue
		}

		if _, ok := updatableColumns[path]; !ok {
			return 0, fmt.Errorf("invalid field path %q", path)
		}
		args = append(args, value)
		sets = append(sets, fmt.Sprintf("%s = $%d", path, len(args)))
	}

	if profileExpr != "profile" {
		sets = append(sets, "profile = "+profileExpr)
	}

	args = append(args, id)
	query := fmt.Sprintf("UPDATE users SET %s WHERE id = $%d", strings.Join(sets, ", "), len(args))

	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}

	matched, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}
	return matched, nil
}
