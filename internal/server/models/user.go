package models

import "time"

// Role is the access level attached to a user and embedded in access tokens.
type Role string

const (
	RoleAdmin Role = "ADMIN"
	RoleUser  Role = "USER"
)

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	return r == RoleAdmin || r == RoleUser
}

// User is the persisted user record. PasswordHash never leaves the service
// layer; every outward projection goes through View.
type User struct {
	ID              string
	Email           string
	Name            string
	PasswordHash    string
	Role            Role
	IsActive        bool
	ProfileImageID  string
	ProfileImageURL string
	LastLogin       *time.Time
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// UserView is the sanitized projection of a User returned by every read and
// write operation. It deliberately has no password field of any kind.
type UserView struct {
	ID              string     `json:"id"`
	Email           string     `json:"email"`
	Name            string     `json:"name"`
	Role            Role       `json:"role"`
	IsActive        bool       `json:"isActive"`
	ProfileImageID  string     `json:"profileImageId,omitempty"`
	ProfileImageURL string     `json:"profileImageUrl,omitempty"`
	LastLogin       *time.Time `json:"lastLogin,omitempty"`
	CreatedAt       time.Time  `json:"createdAt"`
	UpdatedAt       time.Time  `json:"updatedAt"`
}

// View projects the user into its outward representation.
func (u *User) View() *UserView {
	return &UserView{
		ID:              u.ID,
		Email:           u.Email,
		Name:            u.Name,
		Role:            u.Role,
		IsActive:        u.IsActive,
		ProfileImageID:  u.ProfileImageID,
		ProfileImageURL: u.ProfileImageURL,
		LastLogin:       u.LastLogin,
		CreatedAt:       u.CreatedAt,
		UpdatedAt:       u.UpdatedAt,
	}
}

// UserUpdate is the self-service update shape. It has no role or activity
// fields, so a non-privileged caller cannot escalate by construction.
type UserUpdate struct {
	Email *string
	Name  *string
}

// AdminUserUpdate extends the self-service shape with the fields only an
// administrator may touch.
type AdminUserUpdate struct {
	UserUpdate
	Role     *Role
	IsActive *bool
}
