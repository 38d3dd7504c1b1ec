package models

// ViewMenu is a named protected resource: a UI view or a menu entry.
type ViewMenu struct {
	ID   uint   `gorm:"primaryKey" json:"id"`
	Name string `gorm:"type:varchar(250);uniqueIndex;not null" json:"name"`
}

// TableName pins the table to the framework-compatible schema.
func (ViewMenu) TableName() string {
	return "ab_view_menu"
}

// Equal compares view menus by name. Two records fetched independently must
// compare equal when they name the same resource, regardless of identifier.
func (v ViewMenu) Equal(other ViewMenu) bool {
	return v.Name == other.Name
}

func (v ViewMenu) String() string {
	return v.Name
}
