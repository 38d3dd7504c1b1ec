package models

import (
	"strconv"
	"time"
)

// User is an account holding credentials, audit stamps, and role membership.
// Password is an opaque hash: hashing and verification live in an external
// credential collaborator, never here.
type User struct {
	ID        uint   `gorm:"primaryKey" json:"id"`
	FirstName string `gorm:"type:varchar(64);not null" json:"first_name"`
	LastName  string `gorm:"type:varchar(64);not null" json:"last_name"`
	Username  string `gorm:"type:varchar(64);uniqueIndex;not null" json:"username"`
	Password  string `gorm:"type:varchar(256)" json:"-"`
	Active    bool   `json:"active"`
	Email     string `gorm:"type:varchar(320);uniqueIndex;not null" json:"email"`

	LastLogin      *time.Time `gorm:"column:last_login" json:"last_login"`
	LoginCount     int        `json:"login_count"`
	FailLoginCount int        `json:"fail_login_count"`

	Roles  []Role  `gorm:"many2many:ab_user_role;constraint:OnDelete:CASCADE" json:"roles,omitempty"`
	Groups []Group `gorm:"many2many:ab_user_group;constraint:OnDelete:CASCADE" json:"groups,omitempty"`

	CreatedOn time.Time `gorm:"column:created_on" json:"created_on"`
	ChangedOn time.Time `gorm:"column:changed_on" json:"changed_on"`

	// Self-referential audit links. Kept as bare nullable foreign keys with a
	// derived lookup by id; a bidirectional relationship would introduce
	// reference cycles in the ownership model.
	CreatedByID *uint `gorm:"column:created_by_fk" json:"created_by_fk"`
	ChangedByID *uint `gorm:"column:changed_by_fk" json:"changed_by_fk"`
}

// TableName pins the table to the framework-compatible schema.
func (User) TableName() string {
	return "ab_user"
}

// GetID returns the identifier in its canonical text form, the stable
// subject identifier handed to the framework's credential layer.
func (u User) GetID() string {
	return strconv.FormatUint(uint64(u.ID), 10)
}

// FullName joins first and last name with a single space.
func (u User) FullName() string {
	return u.FirstName + " " + u.LastName
}

// IsAuthenticated is always true for a persisted user. Anonymous principals
// are represented outside this entity, never as a row.
func (u User) IsAuthenticated() bool {
	return true
}

// IsActive mirrors the active column.
func (u User) IsActive() bool {
	return u.Active
}

// IsAnonymous is always false for a persisted user.
func (u User) IsAnonymous() bool {
	return false
}

func (u User) String() string {
	return u.FullName()
}
