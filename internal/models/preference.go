package models

import (
	"time"

	"gorm.io/datatypes"
)

// Preference persists a UI setting such as the theme under a fixed key.
type Preference struct {
	ID uint64 `gorm:"primaryKey;autoIncrement"`

	Key   string         `gorm:"type:varchar(120);not null;uniqueIndex"`
	Value datatypes.JSON `gorm:"not null"`

	CreatedAt time.Time `gorm:"autoCreateTime"`
	UpdatedAt time.Time `gorm:"autoUpdateTime;index"`
}

func (Preference) TableName() string {
	return "ui_preferences"
}
