// Package models contains the persisted and externally visible data shapes of
// the authentication service.
package models

import "time"

// User types accepted at registration.
const (
	UserTypeStudent       = "student"
	UserTypeProfessional  = "professional"
	UserTypeCareerChanger = "career_changer"
)

// ValidUserType reports whether s is one of the accepted user types.
func ValidUserType(s string) bool {
	return s == UserTypeStudent || s == UserTypeProfessional || s == UserTypeCareerChanger
}

// CareerGoals is the nested career-goals sub-document of a profile.
type CareerGoals struct {
	WorkEnvironment    string  `json:"work_environment"`
	IncomeExpectations float64 `json:"income_expectations"`
}

// Profile is the structured profile sub-document stored with every user.
type Profile struct {
	Education           string      `json:"education"`
	ExperienceLevel     string      `json:"experience_level"`
	LearningPreferences []string    `json:"learning_preferences"`
	CareerGoals         CareerGoals `json:"career_goals"`
	TimeCommitment      float64     `json:"time_commitment"`
}

// DefaultProfile returns a profile populated with registration defaults.
func DefaultProfile() Profile {
	return Profile{
		ExperienceLevel:     "basic",
		LearningPreferences: []string{},
		TimeCommitment:      5,
	}
}

// User is the persisted account record. PasswordHash never leaves the
// service; use View or DetailedView for anything caller-facing.
type User struct {
	ID           string
	Email        string
	PasswordHash []byte
	UserType     string
	Profile      Profile
	CreatedAt    time.Time
	LastLogin    *time.Time
	IsActive     bool
}

// UserView is the externally visible projection of a User.
type UserView struct {
	ID        string  `json:"id"`
	Email     string  `json:"email"`
	UserType  string  `json:"user_type"`
	Profile   Profile `json:"profile"`
	CreatedAt *string `json:"created_at,omitempty"`
	LastLogin *string `json:"last_login,omitempty"`
}

// View projects the user without timestamps, as returned by registration,
// login, and profile updates.
func (u *User) View() *UserView {
	return &UserView{
		ID:       u.ID,
		Email:    u.Email,
		UserType: u.UserType,
		Profile:  u.Profile,
	}
}

// DetailedView projects the user including created_at and last_login as
// ISO-8601 strings. A nil LastLogin stays null in the rendered JSON.
func (u *User) DetailedView() *UserView {
	v := u.View()
	if !u.CreatedAt.IsZero() {
		s := u.CreatedAt.UTC().Format(time.RFC3339)
		v.CreatedAt = &s
	}
	if u.LastLogin != nil {
		s := u.LastLogin.UTC().Format(time.RFC3339)
		v.LastLogin = &s
	}
	return v
}
