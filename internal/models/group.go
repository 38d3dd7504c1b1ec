package models

// Group is a named collection of users and roles. Roles held by a group are
// granted transitively to its member users. Groups never contain groups, so
// resolution needs no cycle detection.
type Group struct {
	ID          uint   `gorm:"primaryKey" json:"id"`
	Name        string `gorm:"type:varchar(100);uniqueIndex;not null" json:"name"`
	Label       string `gorm:"type:varchar(150)" json:"label"`
	Description string `gorm:"type:varchar(512)" json:"description"`

	Users []User `gorm:"many2many:ab_user_group;constraint:OnDelete:CASCADE" json:"users,omitempty"`
	Roles []Role `gorm:"many2many:ab_group_role;constraint:OnDelete:CASCADE" json:"roles,omitempty"`
}

// TableName pins the table to the framework-compatible schema.
func (Group) TableName() string {
	return "ab_group"
}

func (g Group) String() string {
	return g.Name
}
