package domain

import "time"

// User is an account that can sign in and receive a credential token.
type User struct {
	ID           string
	RollNo       string
	Email        string
	PasswordHash string
	FirstName    string
	LastName     string
	Role         Role
	Branch       string
	Course       string
	Year         *int
	Section      string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// RoleForRollNo derives the role encoded in a roll number: the literal
// "admin", ten characters starting with 'A' for faculty, or ten characters
// starting with a digit for students.
func RoleForRollNo(rollNo string) (Role, bool) {
	if rollNo == "admin" {
		return RoleAdmin, true
	}
	if len(rollNo) != 10 {
		return RoleUnknown, false
	}
	switch c := rollNo[0]; {
	case c == 'A':
		return RoleFaculty, true
	case c >= '0' && c <= '9':
		return RoleStudent, true
	default:
		return RoleUnknown, false
	}
}
