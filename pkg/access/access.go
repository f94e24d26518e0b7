// Package access models who is posting a chat command and which roles they hold.
package access

import "strings"

// Role is a group identifier a user can belong to.
type Role string

const (
	RoleUser Role = "base.group_user"
	RolePM   Role = "project_ai_tasks.group_ai_pm"
	RoleDev  Role = "project_ai_tasks.group_ai_dev"
)

// Author is the capability surface command handlers see for the caller.
type Author interface {
	ID() int64
	HasRole(role Role) bool
	IsSuperuser() bool
}

// User is a directory entry and the default Author implementation.
type User struct {
	UserID    int64
	Login     string
	Name      string
	Roles     []Role
	Superuser bool
}

func (u *User) ID() int64 { return u.UserID }

func (u *User) HasRole(role Role) bool {
	for _, r := range u.Roles {
		if r == role {
			return true
		}
	}
	return false
}

func (u *User) IsSuperuser() bool { return u.Superuser }

// HasAnyRole reports whether a is a superuser or holds at least one of roles.
func HasAnyRole(a Author, roles []Role) bool {
	if a == nil {
		return false
	}
	if a.IsSuperuser() {
		return true
	}
	for _, r := range roles {
		if a.HasRole(r) {
			return true
		}
	}
	return false
}

// ParseRole accepts the short names used on the command line.
func ParseRole(name string) (Role, bool) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "user", string(RoleUser):
		return RoleUser, true
	case "pm", string(RolePM):
		return RolePM, true
	case "dev", string(RoleDev):
		return RoleDev, true
	}
	return "", false
}

// JoinRoles and SplitRoles convert to and from the stored comma list.
func JoinRoles(roles []Role) string {
	parts := make([]string, 0, len(roles))
	for _, r := range roles {
		parts = append(parts, string(r))
	}
	return strings.Join(parts, ",")
}

func SplitRoles(s string) []Role {
	var roles []Role
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			roles = append(roles, Role(part))
		}
	}
	return roles
}
