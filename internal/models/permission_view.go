package models

import "strings"

// PermissionView pairs one Permission with one ViewMenu. It is the atomic
// grantable unit: roles hold sets of these, never bare permissions.
type PermissionView struct {
	ID           uint       `gorm:"primaryKey" json:"id"`
	PermissionID uint       `gorm:"uniqueIndex:uq_permission_view;index;not null" json:"permission_id"`
	Permission   Permission `gorm:"foreignKey:PermissionID" json:"permission"`
	ViewMenuID   uint       `gorm:"uniqueIndex:uq_permission_view;index;not null" json:"view_menu_id"`
	ViewMenu     ViewMenu   `gorm:"foreignKey:ViewMenuID" json:"view_menu"`
}

// TableName pins the table to the framework-compatible schema.
func (PermissionView) TableName() string {
	return "ab_permission_view"
}

// String renders the audit/log display form, e.g. "can edit on UserView".
// Display only: identity comparison always goes through the id column.
func (pv PermissionView) String() string {
	return strings.ReplaceAll(pv.Permission.Name, "_", " ") + " on " + pv.ViewMenu.Name
}
