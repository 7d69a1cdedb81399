package server

import "time"

// GameState is the full authoritative snapshot broadcast to every
// connection in a room after each mutation. Clients treat it as a
// replacement, never a delta.
type GameState struct {
	Game        *GameDetail   `json:"game"`
	Players     []PlayerState `json:"players"`
	Votes       []VoteState   `json:"votes"`
	ShowResults bool          `json:"showResults"`
}

type GameDetail struct {
	ID                   string          `json:"id"`
	Name                 string          `json:"name"`
	Mode                 string          `json:"mode"`
	Status               string          `json:"status"`
	CurrentQuestionIndex int             `json:"currentQuestionIndex"`
	Questions            []QuestionState `json:"questions"`
}

type QuestionState struct {
	ID                  string   `json:"id"`
	Text                string   `json:"text"`
	Options             []string `json:"options"`
	CorrectAnswer       *int     `json:"correctAnswer,omitempty"`
	TimeLimit           int      `json:"timeLimit"`
	UsePlayersAsOptions bool     `json:"usePlayersAsOptions"`
}

type PlayerState struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Avatar    string `json:"avatar"`
	Score     int    `json:"score"`
	Connected bool   `json:"connected"`
}

type VoteState struct {
	ID             uint      `json:"id"`
	GameID         string    `json:"gameId"`
	PlayerID       string    `json:"playerId"`
	QuestionID     string    `json:"questionId"`
	OptionIndex    *int      `json:"optionIndex"`
	TargetPlayerID *string   `json:"targetPlayerId"`
	CreatedAt      time.Time `json:"createdAt"`
}

// GameSummary is the admin dashboard listing row.
type GameSummary struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Mode      string    `json:"mode"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"createdAt"`
}
