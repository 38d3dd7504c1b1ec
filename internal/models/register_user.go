package models

import "time"

// RegisterUser stages a pending self-registration. It has no foreign keys
// into the RBAC graph: promotion reads this row, inserts a User, and deletes
// it; an expiry job removes rows that were never confirmed.
type RegisterUser struct {
	ID               uint      `gorm:"primaryKey" json:"id"`
	FirstName        string    `gorm:"type:varchar(64);not null" json:"first_name"`
	LastName         string    `gorm:"type:varchar(64);not null" json:"last_name"`
	Username         string    `gorm:"type:varchar(64);uniqueIndex;not null" json:"username"`
	Password         string    `gorm:"type:varchar(256)" json:"-"`
	Email            string    `gorm:"type:varchar(64);not null" json:"email"`
	RegistrationDate time.Time `gorm:"column:registration_date" json:"registration_date"`
	RegistrationHash string    `gorm:"type:varchar(256)" json:"-"`
}

// TableName pins the table to the framework-compatible schema.
func (RegisterUser) TableName() string {
	return "ab_register_user"
}
