package db

import "time"

// Game statuses and modes as stored in the games table.
const (
	StatusWaiting  = "waiting"
	StatusLobby    = "lobby"
	StatusPlaying  = "playing"
	StatusFinished = "finished"

	ModeQuiz   = "quiz"
	ModeVoting = "voting"
)

// Game is a single game room. The primary key doubles as the
// human-enterable join code.
type Game struct {
	ID                   string    `gorm:"primaryKey;size:12"`
	Name                 string    `gorm:"size:255;not null"`
	Mode                 string    `gorm:"size:50;not null"`
	Status               string    `gorm:"size:50;not null;default:waiting"`
	CurrentQuestionIndex int       `gorm:"not null;default:0"`
	ShowResults          bool      `gorm:"not null;default:false"`
	AdminID              *string   `gorm:"size:36;index"`
	CreatedAt            time.Time `gorm:"not null"`
}
