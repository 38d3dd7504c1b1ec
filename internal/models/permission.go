package models

// Permission is a named capability such as "can_edit". Permissions are
// immutable after creation except for renames performed by the admin layer.
type Permission struct {
	ID   uint   `gorm:"primaryKey" json:"id"`
	Name string `gorm:"type:varchar(100);uniqueIndex;not null" json:"name"`
}

// TableName pins the table to the framework-compatible schema.
func (Permission) TableName() string {
	return "ab_permission"
}

func (p Permission) String() string {
	return p.Name
}
