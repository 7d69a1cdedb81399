package db

import (
	"time"

	"gorm.io/datatypes"
)

// Question belongs to one game. Options holds a JSON array of option
// strings; it stays empty when UsePlayersAsOptions is set and the option
// list is synthesized from the live roster at projection time.
type Question struct {
	ID                  string         `gorm:"primaryKey;size:36"`
	GameID              string         `gorm:"size:12;not null;index"`
	Text                string         `gorm:"type:text;not null"`
	Options             datatypes.JSON `gorm:"not null"`
	CorrectAnswer       *int
	UsePlayersAsOptions bool      `gorm:"not null;default:false"`
	TimeLimit           int       `gorm:"not null;default:30"`
	CreatedAt           time.Time `gorm:"not null"`
}
