package model

import "time"

// MaxPatternLength is the width of the url_pattern column
const MaxPatternLength = 255

// GonePattern is a path rule answered with 410 Gone.
// Rows are never updated in place. The column uses a binary collation so
// uniqueness and lookups are case-sensitive.
type GonePattern struct {
	ID         int       `gorm:"primaryKey;autoIncrement" json:"id"`
	URLPattern string    `gorm:"column:url_pattern;type:varchar(255) CHARACTER SET utf8mb4 COLLATE utf8mb4_bin;uniqueIndex:uk_url_pattern;not null" json:"url_pattern"`
	IsRegex    bool      `gorm:"column:is_regex;default:false;not null" json:"is_regex"`
	CreatedAt  time.Time `gorm:"autoCreateTime;index:idx_created_at" json:"created_at"`
}

// TableName specifies the table name for GonePattern model
func (GonePattern) TableName() string {
	return "url_patterns"
}
