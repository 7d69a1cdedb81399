package db

import "time"

// Player is a participant in one game. The (game_id, name) unique index
// backs the rejoin-by-name semantics: a second join with the same name
// adopts this row instead of creating a duplicate.
type Player struct {
	ID        string    `gorm:"primaryKey;size:36"`
	GameID    string    `gorm:"size:12;not null;index;uniqueIndex:idx_players_game_name"`
	Name      string    `gorm:"size:64;not null;uniqueIndex:idx_players_game_name"`
	Avatar    string    `gorm:"size:64"`
	Score     int       `gorm:"not null;default:0"`
	Connected bool      `gorm:"not null;default:true"`
	CreatedAt time.Time `gorm:"not null"`
}
