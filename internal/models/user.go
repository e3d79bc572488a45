package models

import "time"

// UserRole represents the available roles for the RBAC system.
type UserRole string

const (
	RoleSuperAdmin     UserRole = "SuperAdmin"
	RoleFinance        UserRole = "Finance"
	RoleReviewer       UserRole = "Reviewer"
	RoleStudentSupport UserRole = "StudentSupport"
	RoleIT             UserRole = "IT"
	RoleStudent        UserRole = "student"
)

// AdminRoles lists the roles an administrator account may hold.
func AdminRoles() []UserRole {
	return []UserRole{RoleSuperAdmin, RoleFinance, RoleReviewer, RoleStudentSupport, RoleIT}
}

// IsAdmin reports whether the role belongs to an administrator account.
func (r UserRole) IsAdmin() bool {
	for _, role := range AdminRoles() {
		if r == role {
			return true
		}
	}
	return false
}

// ParseRoles converts configured role names, dropping blanks.
func ParseRoles(names []string) []UserRole {
	roles := make([]UserRole, 0, len(names))
	for _, name := range names {
		if name != "" {
			roles = append(roles, UserRole(name))
		}
	}
	return roles
}

// AdminUser is a back-office account stored in admin_users.
type AdminUser struct {
	ID           int64     `db:"id" json:"id"`
	Username     string    `db:"username" json:"username"`
	PasswordHash string    `db:"password_hash" json:"-"`
	Role         UserRole  `db:"role" json:"role"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
}
