package models

import (
	"errors"
	"strings"
	"time"
)

// Authorization roles. Distinct from TransactionClass.
const (
	RoleUser     = "user"
	RoleAgent    = "agent"
	RoleApprover = "approver"
	RoleOperator = "operator"
	RoleAdmin    = "admin"
)

func ValidRole(r string) bool {
	switch r {
	case RoleUser, RoleAgent, RoleApprover, RoleOperator, RoleAdmin:
		return true
	}
	return false
}

// IsStaff reports whether the role may see other users' transactions.
func IsStaff(role string) bool {
	return role == RoleApprover || role == RoleOperator || role == RoleAdmin
}

// ClassForRole maps an authorization role to the actor category recorded on transactions.
func ClassForRole(role string) TransactionClass {
	switch role {
	case RoleUser:
		return ClassUser
	case RoleAgent:
		return ClassAgent
	}
	return ClassAdmin
}

type User struct {
	ID           string    `json:"id"`
	Username     string    `json:"username"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	Role         string    `json:"role"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

func (u *User) Validate() error {
	if len(strings.TrimSpace(u.Username)) < 3 {
		return errors.New("username too short")
	}
	if !strings.Contains(u.Email, "@") {
		return errors.New("invalid email")
	}
	if u.Role == "" {
		u.Role = RoleUser
	}
	if !ValidRole(u.Role) {
		return errors.New("invalid role")
	}
	return nil
}
