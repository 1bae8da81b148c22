package model

import "time"

// GoneSetting is a key/value row stored next to url_patterns
type GoneSetting struct {
	Name      string    `gorm:"primaryKey;type:varchar(64)" json:"name"`
	Value     string    `gorm:"type:varchar(255);not null" json:"value"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

// TableName specifies the table name for GoneSetting model
func (GoneSetting) TableName() string {
	return "gone_settings"
}

// Setting names
const (
	SettingConvert404To410 = "convert_404_to_410"
)
