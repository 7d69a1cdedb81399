package db

import "time"

// Vote records one answer by one player. OptionIndex is set for quiz and
// plain voting questions; TargetPlayerID is set when the vote targets a
// player. The (player_id, question_id) unique index backs the
// at-most-one-vote invariant.
type Vote struct {
	ID             uint   `gorm:"primaryKey"`
	GameID         string `gorm:"size:12;not null;index"`
	PlayerID       string `gorm:"size:36;not null;index;uniqueIndex:idx_votes_player_question"`
	QuestionID     string `gorm:"size:36;not null;uniqueIndex:idx_votes_player_question"`
	OptionIndex    *int
	TargetPlayerID *string   `gorm:"size:36"`
	CreatedAt      time.Time `gorm:"not null"`
}
