package models

// Role is a named collection of grantable units.
type Role struct {
	ID   uint   `gorm:"primaryKey" json:"id"`
	Name string `gorm:"type:varchar(64);uniqueIndex;not null" json:"name"`

	PermissionViews []PermissionView `gorm:"many2many:ab_permission_view_role;constraint:OnDelete:CASCADE" json:"permission_views,omitempty"`
}

// TableName pins the table to the framework-compatible schema.
func (Role) TableName() string {
	return "ab_role"
}

func (r Role) String() string {
	return r.Name
}
