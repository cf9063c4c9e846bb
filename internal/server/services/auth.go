// Package services contains server-side business logic. This file implements
// AuthService, which orchestrates registration, login, token refresh, logout,
// and the profile operations guarded by the authorization gate.
package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/techroad/techroad/internal/common"
	"github.com/techroad/techroad/internal/logging"
	"github.com/techroad/techroad/internal/server/auth"
	"github.com/techroad/techroad/internal/server/models"
	"github.com/techroad/techroad/internal/server/repositories/users"
)

// Session bundles the user view with a freshly minted token pair.
type Session struct {
	User         *models.UserView
	AccessToken  string
	RefreshToken string
}

// TokenInfo is the confirmation payload returned by VerifyToken.
type TokenInfo struct {
	UserID   string `json:"user_id"`
	UserType string `json:"user_type"`
}

// RegisterRequest carries the registration input. Profile is optional;
// supplied values are merged over the defaults.
type RegisterRequest struct {
	Email    string        `json:"email"`
	Password string        `json:"password"`
	UserType string        `json:"user_type"`
	Profile  *ProfilePatch `json:"profile"`
}

// UpdateProfileRequest carries a partial profile update. A nil request means
// the caller supplied no data at all.
type UpdateProfileRequest struct {
	Profile *ProfilePatch `json:"profile"`
}

// ProfilePatch holds optional profile fields. Nil pointers (and a nil
// preferences slice) mean "leave unchanged".
type ProfilePatch struct {
	Education           *string           `json:"education"`
	ExperienceLevel     *string           `json:"experience_level"`
	LearningPreferences []string          `json:"learning_preferences"`
	CareerGoals         *CareerGoalsPatch `json:"career_goals"`
	TimeCommitment      *float64          `json:"time_commitment"`
}

// CareerGoalsPatch holds the optional nested career-goals fields.
type CareerGoalsPatch struct {
	WorkEnvironment    *string  `json:"work_environment"`
	IncomeExpectations *float64 `json:"income_expectations"`
}

// AuthService implements the externally observable auth operations. It is
// stateless per request; shared mutable state lives behind the token
// service's revocation store.
type AuthService struct {
	repo   users.Repository
	hasher *auth.PasswordHasher
	tokens *auth.TokenService
	logger logging.Logger
}

func NewAuthService(repo users.Repository, hasher *auth.PasswordHasher, tokens *auth.TokenService, logger logging.Logger) *AuthService {
	return &AuthService{
		repo:   repo,
		hasher: hasher,
		tokens: tokens,
		logger: logger.With("module", "auth_service"),
	}
}

// Register creates an account and returns the user view with a token pair.
// lastLogin is stamped after token issuance; insert and stamp are two store
// operations, not one transaction.
func (s *AuthService) Register(ctx context.Context, req *RegisterRequest) (*Session, error) {

	if strings.TrimSpace(req.Email) == "" {
		return nil, common.Validation("email is required")
	}
	if req.Password == "" {
		return nil, common.Validation("password is required")
	}
	if strings.TrimSpace(req.UserType) == "" {
		return nil, common.Validation("user_type is required")
	}

	email := normalizeEmail(req.Email)
	if !auth.ValidEmail(email) {
		return nil, common.Validation("invalid email format")
	}
	if err := auth.ValidatePassword(req.Password); err != nil {
		return nil, common.Validation(err.Error())
	}
	if !models.ValidUserType(req.UserType) {
		return nil, common.Validation("invalid user type: must be student, professional, or career_changer")
	}

	_, err := s.repo.GetByEmail(ctx, email)
	if err == nil {
		return nil, common.Conflict("user with this email already exists")
	}
	if !errors.Is(err, common.ErrorNotFound) {
		return nil, s.storeError(ctx, "register: lookup failed", err)
	}

	hash, err := s.hasher.Hash(req.Password)
	if err != nil {
		return nil, common.Internal(err)
	}

	profile := models.DefaultProfile()
	mergePatch(&profile, req.Profile)

	user, err := s.repo.Create(ctx, &models.User{
		Email:        email,
		PasswordHash: hash,
		UserType:     req.UserType,
		Profile:      profile,
		IsActive:     true,
	})
	if err != nil {
		if errors.Is(err, common.ErrorAlreadyExists) {
			return nil, common.Conflict("user with this email already exists")
		}
		return nil, s.storeError(ctx, "register: insert failed", err)
	}

	session, err := s.openSession(ctx, user)
	if err != nil {
		return nil, err
	}

	s.logger.Info(ctx, "user registered", "user_id", user.ID)
	return session, nil
}

// Login verifies credentials and returns the user view with a token pair.
// Unknown email and wrong password produce identical errors.
func (s *AuthService) Login(ctx context.Context, email, password string) (*Session, error) {

	if strings.TrimSpace(email) == "" || password == "" {
		return nil, common.Validation("email and password are required")
	}

	user, err := s.repo.GetByEmail(ctx, normalizeEmail(email))
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.Unauthorized("invalid email or password")
		}
		return nil, s.storeError(ctx, "login: lookup failed", err)
	}

	if !user.IsActive {
		return nil, common.Unauthorized("account is deactivated")
	}
	if !s.hasher.Verify(password, user.PasswordHash) {
		return nil, common.Unauthorized("invalid email or password")
	}

	session, err := s.openSession(ctx, user)
	if err != nil {
		return nil, err
	}

	s.logger.Info(ctx, "user logged in", "user_id", user.ID)
	return session, nil
}

// Refresh exchanges a valid refresh token for a new access token. The refresh
// token is not rotated or invalidated; it remains usable until its natural
// expiry.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (string, error) {

	claims, err := s.tokens.Authorize(refreshToken, auth.TokenKindRefresh)
	if err != nil {
		return "", common.Unauthorized("invalid or expired token")
	}

	user, err := s.repo.GetByID(ctx, claims.Subject)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return "", common.Unauthorized("user not found or inactive")
		}
		return "", s.storeError(ctx, "refresh: lookup failed", err)
	}
	if !user.IsActive {
		return "", common.Unauthorized("user not found or inactive")
	}

	access, err := s.tokens.IssueAccessToken(user.ID)
	if err != nil {
		return "", common.Internal(err)
	}
	return access, nil
}

// Logout revokes the presented access token. Any refresh token issued in the
// same session stays valid until it expires on its own.
func (s *AuthService) Logout(ctx context.Context, accessToken string) error {

	claims, err := s.tokens.Authorize(accessToken, auth.TokenKindAccess)
	if err != nil {
		return common.Unauthorized("invalid or expired token")
	}

	s.tokens.Revoke(claims.ID)
	s.logger.Info(ctx, "user logged out", "user_id", claims.Subject)
	return nil
}

// GetProfile returns the full user view, timestamps included.
func (s *AuthService) GetProfile(ctx context.Context, accessToken string) (*models.UserView, error) {

	claims, err := s.tokens.Authorize(accessToken, auth.TokenKindAccess)
	if err != nil {
		return nil, common.Unauthorized("invalid or expired token")
	}

	user, err := s.repo.GetByID(ctx, claims.Subject)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.NotFound("user not found")
		}
		return nil, s.storeError(ctx, "get profile: lookup failed", err)
	}

	return user.DetailedView(), nil
}

// UpdateProfile applies a partial profile update and returns the post-update
// view. Only non-null supplied fields are written.
func (s *AuthService) UpdateProfile(ctx context.Context, accessToken string, req *UpdateProfileRequest) (*models.UserView, error) {

	claims, err := s.tokens.Authorize(accessToken, auth.TokenKindAccess)
	if err != nil {
		return nil, common.Unauthorized("invalid or expired token")
	}

	if req == nil {
		return nil, common.Validation("no data provided")
	}

	fields := patchFields(req.Profile)
	if len(fields) == 0 {
		return nil, common.Validation("no valid fields to update")
	}

	matched, err := s.repo.UpdateFields(ctx, claims.Subject, fields)
	if err != nil {
		return nil, s.storeError(ctx, "update profile: update failed", err)
	}
	if matched == 0 {
		return nil, common.NotFound("user not found")
	}

	user, err := s.repo.GetByID(ctx, claims.Subject)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.NotFound("user not found")
		}
		return nil, s.storeError(ctx, "update profile: reload failed", err)
	}

	s.logger.Info(ctx, "profile updated", "user_id", user.ID, "fields", len(fields))
	return user.View(), nil
}

// VerifyToken confirms that the access token passes the gate and that its
// subject still exists and is active.
func (s *AuthService) VerifyToken(ctx context.Context, accessToken string) (*TokenInfo, error) {

	claims, err := s.tokens.Authorize(accessToken, auth.TokenKindAccess)
	if err != nil {
		return nil, common.Unauthorized("invalid or expired token")
	}

	user, err := s.repo.GetByID(ctx, claims.Subject)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.Unauthorized("invalid or inactive user")
		}
		return nil, s.storeError(ctx, "verify token: lookup failed", err)
	}
	if !user.IsActive {
		return nil, common.Unauthorized("invalid or inactive user")
	}

	return &TokenInfo{UserID: user.ID, UserType: user.UserType}, nil
}

// --- helpers below ---

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// openSession mints a token pair for user and stamps lastLogin. The stamp
// happens after issuance; a stamp failure surfaces even though tokens were
// already minted.
func (s *AuthService) openSession(ctx context.Context, user *models.User) (*Session, error) {
	access, err := s.tokens.IssueAccessToken(user.ID)
	if err != nil {
		return nil, common.Internal(err)
	}
	refresh, err := s.tokens.IssueRefreshToken(user.ID)
	if err != nil {
		return nil, common.Internal(err)
	}

	if _, err := s.repo.UpdateFields(ctx, user.ID, map[string]any{"last_login": time.Now().UTC()}); err != nil {
		return nil, s.storeError(ctx, "session: last_login stamp failed", err)
	}

	return &Session{
		User:         user.View(),
		AccessToken:  access,
		RefreshToken: refresh,
	}, nil
}

// mergePatch overlays non-null patch values onto profile.
func mergePatch(profile *models.Profile, patch *ProfilePatch) {
	if patch == nil {
		return
	}
	if patch.Education != nil {
		profile.Education = *patch.Education
	}
	if patch.ExperienceLevel != nil {
		profile.ExperienceLevel = *patch.ExperienceLevel
	}
	if patch.LearningPreferences != nil {
		profile.LearningPreferences = patch.LearningPreferences
	}
	if patch.TimeCommitment != nil {
		profile.TimeCommitment = *patch.TimeCommitment
	}
	if patch.CareerGoals != nil {
		if patch.CareerGoals.WorkEnvironment != nil {
			profile.CareerGoals.WorkEnvironment = *patch.CareerGoals.WorkEnvironment
		}
		if patch.CareerGoals.IncomeExpectations != nil {
			profile.CareerGoals.IncomeExpectations = *patch.CareerGoals.IncomeExpectations
		}
	}
}

// patchFields translates non-null patch values into dotted repository paths.
func patchFields(patch *ProfilePatch) map[string]any {
	fields := map[string]any{}
	if patch == nil {
		return fields
	}
	if patch.Education != nil {
		fields["profile.education"] = *patch.Education
	}
	if patch.ExperienceLevel != nil {
		fields["profile.experience_level"] = *patch.ExperienceLevel
	}
	if patch.LearningPreferences != nil {
		fields["profile.learning_preferences"] = patch.LearningPreferences
	}
	if patch.TimeCommitment != nil {
		fields["profile.time_commitment"] = *patch.TimeCommitment
	}
	if patch.CareerGoals != nil {
		if patch.CareerGoals.WorkEnvironment != nil {
			fields["profile.career_goals.work_environment"] = *patch.CareerGoals.WorkEnvironment
		}
		if patch.CareerGoals.IncomeExpectations != nil {
			fields["profile.career_goals.income_expectations"] = *patch.CareerGoals.IncomeExpectations
		}
	}
	return fields
}

func (s *AuthService) storeError(ctx context.Context, msg string, err error) error {
	s.logger.Error(ctx, msg, "error", err)
	return common.Unavailable(err)
}
