package services

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/techroad/techroad/internal/common"
	"github.com/techroad/techroad/internal/logging"
	"github.com/techroad/techroad/internal/server/auth"
	"github.com/techroad/techroad/internal/server/repositories/users"
)

func newTestService(t *testing.T) (*AuthService, *users.InMemoryRepository) {
	t.Helper()
	repo := users.NewInMemoryRepository()
	hasher := auth.NewPasswordHasher(bcrypt.MinCost)
	tokens := auth.NewTokenService([]byte("test-secret"), time.Hour, 30*24*time.Hour, auth.NewMemoryRevocationStore())
	logger := logging.NewSlogLogger(slog.New(slog.NewJSONHandler(io.Discard, nil)))
	return NewAuthService(repo, hasher, tokens, logger), repo
}

func register(t *testing.T, s *AuthService, email string) *Session {
	t.Helper()
	session, err := s.Register(context.Background(), &RegisterRequest{
		Email:    email,
		Password: "goodpass1",
		UserType: "student",
	})
	require.NoError(t, err)
	return session
}

func strptr(s string) *string { return &s }

func f64ptr(f float64) *float64 { return &f }

func TestRegisterThenLogin(t *testing.T) {
	t.Parallel()

	s, _ := newTestService(t)
	ctx := context.Background()

	reg := register(t, s, "  User@Example.COM  ")
	assert.Equal(t, "user@example.com", reg.User.Email)
	assert.Equal(t, "student", reg.User.UserType)
	assert.NotEmpty(t, reg.AccessToken)
	assert.NotEmpty(t, reg.RefreshToken)

	login, err := s.Login(ctx, "user@example.com", "goodpass1")
	require.NoError(t, err)
	assert.Equal(t, reg.User.ID, login.User.ID)
	assert.Equal(t, reg.User.Email, login.User.Email)
	assert.Equal(t, reg.User.UserType, login.User.UserType)
}

func TestRegister_DefaultProfileAndMerge(t *testing.T) {
	t.Parallel()

	s, _ := newTestService(t)

	session, err := s.Register(context.Background(), &RegisterRequest{
		Email:    "p@example.com",
		Password: "goodpass1",
		UserType: "professional",
		Profile: &ProfilePatch{
			Education: strptr("MSc"),
			CareerGoals: &CareerGoalsPatch{
				IncomeExpectations: f64ptr(120000),
			},
		},
	})
	require.NoError(t, err)

	p := session.User.Profile
	assert.Equal(t, "MSc", p.Education)
	assert.Equal(t, float64(120000), p.CareerGoals.IncomeExpectations)
	// defaults fill everything the caller omitted
	assert.Equal(t, "basic", p.ExperienceLevel)
	assert.Equal(t, []string{}, p.LearningPreferences)
	assert.Equal(t, "", p.CareerGoals.WorkEnvironment)
	assert.Equal(t, float64(5), p.TimeCommitment)
}

func TestRegister_ValidationErrors(t *testing.T) {
	t.Parallel()

	s, _ := newTestService(t)
	ctx := context.Background()

	tests := []struct {
		name string
		req  *RegisterRequest
		msg  string
	}{
		{"missing email", &RegisterRequest{Password: "goodpass1", UserType: "student"}, "email is required"},
		{"missing password", &RegisterRequest{Email: "a@b.com", UserType: "student"}, "password is required"},
		{"missing user type", &RegisterRequest{Email: "a@b.com", Password: "goodpass1"}, "user_type is required"},
		{"bad email", &RegisterRequest{Email: "not-an-email", Password: "goodpass1", UserType: "student"}, "invalid email format"},
		{"short password", &RegisterRequest{Email: "a@b.com", Password: "short1", UserType: "student"}, "password must be at least 8 characters long"},
		{"no digit", &RegisterRequest{Email: "a@b.com", Password: "alllettersnodigit", UserType: "student"}, "password must contain at least one number"},
		{"no letter", &RegisterRequest{Email: "a@b.com", Password: "12345678", UserType: "student"}, "password must contain at least one letter"},
		{"bad user type", &RegisterRequest{Email: "a@b.com", Password: "goodpass1", UserType: "wizard"}, "invalid user type: must be student, professional, or career_changer"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := s.Register(ctx, tt.req)
			require.Error(t, err)
			assert.Equal(t, common.KindValidation, common.KindOf(err))
			assert.Equal(t, tt.msg, err.Error())
		})
	}
}

func TestRegister_DuplicateEmail(t *testing.T) {
	t.Parallel()

	s, _ := newTestService(t)
	ctx := context.Background()

	register(t, s, "dup@example.com")

	// conflict regardless of the rest of the payload
	_, err := s.Register(ctx, &RegisterRequest{
		Email:    "dup@example.com",
		Password: "otherpass9",
		UserType: "professional",
	})
	require.Error(t, err)
	assert.Equal(t, common.KindConflict, common.KindOf(err))
}

func TestLogin_IndistinguishableFailures(t *testing.T) {
	t.Parallel()

	s, _ := newTestService(t)
	ctx := context.Background()

	register(t, s, "real@example.com")

	_, errWrongPassword := s.Login(ctx, "real@example.com", "wrongpass1")
	_, errUnknownEmail := s.Login(ctx, "ghost@example.com", "goodpass1")

	require.Error(t, errWrongPassword)
	require.Error(t, errUnknownEmail)
	assert.Equal(t, errWrongPassword.Error(), errUnknownEmail.Error())
	assert.Equal(t, common.KindOf(errWrongPassword), common.KindOf(errUnknownEmail))
}

func TestLogin_DeactivatedAccount(t *testing.T) {
	t.Parallel()

	s, repo := newTestService(t)
	ctx := context.Background()

	session := register(t, s, "gone@example.com")
	_, err := repo.UpdateFields(ctx, session.User.ID, map[string]any{"is_active": false})
	require.NoError(t, err)

	_, err = s.Login(ctx, "gone@example.com", "goodpass1")
	require.Error(t, err)
	assert.Equal(t, common.KindUnauthorized, common.KindOf(err))
	assert.Equal(t, "account is deactivated", err.Error())
}

func TestLogin_MissingFields(t *testing.T) {
	t.Parallel()

	s, _ := newTestService(t)

	_, err := s.Login(context.Background(), "", "goodpass1")
	assert.Equal(t, common.KindValidation, common.KindOf(err))

	_, err = s.Login(context.Background(), "a@b.com", "")
	assert.Equal(t, common.KindValidation, common.KindOf(err))
}

func TestRefresh(t *testing.T) {
	t.Parallel()

	s, _ := newTestService(t)
	ctx := context.Background()

	session := register(t, s, "r@example.com")

	access, err := s.Refresh(ctx, session.RefreshToken)
	require.NoError(t, err)
	require.NotEmpty(t, access)

	// the new access token passes the gate
	info, err := s.VerifyToken(ctx, access)
	require.NoError(t, err)
	assert.Equal(t, session.User.ID, info.UserID)

	// an access token must not pass the refresh gate
	_, err = s.Refresh(ctx, session.AccessToken)
	require.Error(t, err)
	assert.Equal(t, common.KindUnauthorized, common.KindOf(err))
}

func TestRefresh_InactiveUser(t *testing.T) {
	t.Parallel()

	s, repo := newTestService(t)
	ctx := context.Background()

	session := register(t, s, "r2@example.com")
	_, err := repo.UpdateFields(ctx, session.User.ID, map[string]any{"is_active": false})
	require.NoError(t, err)

	_, err = s.Refresh(ctx, session.RefreshToken)
	require.Error(t, err)
	assert.Equal(t, common.KindUnauthorized, common.KindOf(err))
	assert.Equal(t, "user not found or inactive", err.Error())
}

func TestLogout_RevokesOnlyTheAccessToken(t *testing.T) {
	t.Parallel()

	s, _ := newTestService(t)
	ctx := context.Background()

	session := register(t, s, "l@example.com")

	require.NoError(t, s.Logout(ctx, session.AccessToken))

	// the revoked access token fails every subsequent gate check
	_, err := s.GetProfile(ctx, session.AccessToken)
	assert.Equal(t, common.KindUnauthorized, common.KindOf(err))
	_, err = s.VerifyToken(ctx, session.AccessToken)
	assert.Equal(t, common.KindUnauthorized, common.KindOf(err))
	err = s.Logout(ctx, session.AccessToken)
	assert.Equal(t, common.KindUnauthorized, common.KindOf(err))

	// the refresh token from the same session still passes its own gate
	access, err := s.Refresh(ctx, session.RefreshToken)
	require.NoError(t, err)
	assert.NotEmpty(t, access)

	// a refresh token never passes the access gate, revoked or not
	err = s.Logout(ctx, session.RefreshToken)
	assert.Equal(t, common.KindUnauthorized, common.KindOf(err))
}

func TestGetProfile(t *testing.T) {
	t.Parallel()

	s, _ := newTestService(t)
	ctx := context.Background()

	session := register(t, s, "gp@example.com")

	view, err := s.GetProfile(ctx, session.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, "gp@example.com", view.Email)
	require.NotNil(t, view.CreatedAt)
	require.NotNil(t, view.LastLogin, "last_login is stamped during registration")

	_, err = time.Parse(time.RFC3339, *view.CreatedAt)
	assert.NoError(t, err)
}

func TestUpdateProfile_PartialMerge(t *testing.T) {
	t.Parallel()

	s, _ := newTestService(t)
	ctx := context.Background()

	session, err := s.Register(ctx, &RegisterRequest{
		Email:    "up@example.com",
		Password: "goodpass1",
		UserType: "career_changer",
		Profile: &ProfilePatch{
			LearningPreferences: []string{"video", "reading"},
			CareerGoals:         &CareerGoalsPatch{WorkEnvironment: strptr("hybrid")},
		},
	})
	require.NoError(t, err)

	view, err := s.UpdateProfile(ctx, session.AccessToken, &UpdateProfileRequest{
		Profile: &ProfilePatch{Education: strptr("BSc")},
	})
	require.NoError(t, err)

	// only education changed
	assert.Equal(t, "BSc", view.Profile.Education)
	assert.Equal(t, []string{"video", "reading"}, view.Profile.LearningPreferences)
	assert.Equal(t, "hybrid", view.Profile.CareerGoals.WorkEnvironment)
	assert.Equal(t, "basic", view.Profile.ExperienceLevel)
	assert.Equal(t, float64(5), view.Profile.TimeCommitment)
}

func TestUpdateProfile_EmptyBodies(t *testing.T) {
	t.Parallel()

	s, _ := newTestService(t)
	ctx := context.Background()

	session := register(t, s, "ub@example.com")

	_, err := s.UpdateProfile(ctx, session.AccessToken, nil)
	require.Error(t, err)
	assert.Equal(t, "no data provided", err.Error())

	_, err = s.UpdateProfile(ctx, session.AccessToken, &UpdateProfileRequest{})
	require.Error(t, err)
	assert.Equal(t, "no valid fields to update", err.Error())

	_, err = s.UpdateProfile(ctx, session.AccessToken, &UpdateProfileRequest{Profile: &ProfilePatch{}})
	require.Error(t, err)
	assert.Equal(t, "no valid fields to update", err.Error())
}

func TestVerifyToken(t *testing.T) {
	t.Parallel()

	s, repo := newTestService(t)
	ctx := context.Background()

	session := register(t, s, "v@example.com")

	info, err := s.VerifyToken(ctx, session.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, session.User.ID, info.UserID)
	assert.Equal(t, "student", info.UserType)

	_, err = repo.UpdateFields(ctx, session.User.ID, map[string]any{"is_active": false})
	require.NoError(t, err)

	_, err = s.VerifyToken(ctx, session.AccessToken)
	require.Error(t, err)
	assert.Equal(t, common.KindUnauthorized, common.KindOf(err))
}
