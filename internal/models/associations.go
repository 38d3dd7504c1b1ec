package models

// Join-table models. Each association row carries its own surrogate id and a
// unique index over its foreign-key pair, matching the fixed ab_* schema.
// They are registered with gorm via SetupJoinTable so the many-to-many
// relations above use these shapes instead of composite-key defaults.

// PermissionViewRole links a role to a grantable unit.
type PermissionViewRole struct {
	ID               uint `gorm:"primaryKey" json:"id"`
	PermissionViewID uint `gorm:"uniqueIndex:uq_permission_view_role;index;not null" json:"permission_view_id"`
	RoleID           uint `gorm:"uniqueIndex:uq_permission_view_role;index;not null" json:"role_id"`
}

func (PermissionViewRole) TableName() string {
	return "ab_permission_view_role"
}

// UserRole links a user to a directly assigned role.
type UserRole struct {
	ID     uint `gorm:"primaryKey" json:"id"`
	UserID uint `gorm:"uniqueIndex:uq_user_role;index;not null" json:"user_id"`
	RoleID uint `gorm:"uniqueIndex:uq_user_role;index;not null" json:"role_id"`
}

func (UserRole) TableName() string {
	return "ab_user_role"
}

// UserGroup links a user to a group it belongs to.
type UserGroup struct {
	ID      uint `gorm:"primaryKey" json:"id"`
	UserID  uint `gorm:"uniqueIndex:uq_user_group;index;not null" json:"user_id"`
	GroupID uint `gorm:"uniqueIndex:uq_user_group;index;not null" json:"group_id"`
}

func (UserGroup) TableName() string {
	return "ab_user_group"
}

// GroupRole links a group to a role granted to all of its members.
type GroupRole struct {
	ID      uint `gorm:"primaryKey" json:"id"`
	GroupID uint `gorm:"uniqueIndex:uq_group_role;index;not null" json:"group_id"`
	RoleID  uint `gorm:"uniqueIndex:uq_group_role;index;not null" json:"role_id"`
}

func (GroupRole) TableName() string {
	return "ab_group_role"
}
