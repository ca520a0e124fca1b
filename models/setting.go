package models

// Setting is one property of a settings node such as /admin/config/email.
type Setting struct {
	Path  string `json:"path" db:"path" gorm:"type:text;primaryKey"`
	Key   string `json:"key" db:"name" gorm:"column:name;type:text;primaryKey"`
	Value string `json:"value" db:"value" gorm:"type:text"`
}
