package models

type UserRole string
type Role = UserRole // Alias for compatibility

const (
	RoleStudent UserRole = "student"
	RoleTeacher UserRole = "teacher"
	RoleProctor UserRole = "proctor"
	RoleAdmin   UserRole = "admin"
)

// Learner is the identity record the engine needs from the user directory.
// The engine does not own user data and never persists it.
type Learner struct {
	ID          string   `json:"id"`
	DisplayName string   `json:"display_name"`
	Role        UserRole `json:"role"`
	IsActive    bool     `json:"is_active"`
}

// CanBeAssessed reports whether the learner may start an assessment session.
func (l *Learner) CanBeAssessed() bool {
	return l != nil && l.IsActive
}
