package server

import "github.com/leocostarj22/happiness/internal/db"

// Store is the fact-store surface the event handlers and the projector
// depend on. internal/db.Store implements it on Postgres; tests use an
// in-memory fake. The store is the single source of truth for game
// facts; the server keeps no caches beyond the room registry and the
// session tracker.
type Store interface {
	CreateGame(game *db.Game) error
	GetGame(id string) (*db.Game, error)
	GamesByAdmin(adminID string) ([]db.Game, error)
	UpdateGameStatus(id, status string) error
	SetShowResults(id string, show bool) error
	AdvanceQuestion(id string) error
	SetCurrentQuestion(id string, index int) error
	FinishGame(id string) error
	ResetGameState(id string) error
	DeleteGame(id string) error

	CreateQuestion(question *db.Question) error
	GetQuestion(id string) (*db.Question, error)
	DeleteQuestion(id string) error
	QuestionsByGame(gameID string) ([]db.Question, error)
	CountQuestions(gameID string) (int, error)
	DeleteQuestionsByGame(gameID string) error

	CreatePlayer(player *db.Player) error
	GetPlayer(id string) (*db.Player, error)
	FindPlayerByName(gameID, name string) (*db.Player, error)
	PlayersByGame(gameID string) ([]db.Player, error)
	SetPlayerConnected(id string, connected bool) error
	SetPlayerScore(id string, score int) error
	AddPlayerScore(id string, delta int) error
	DeletePlayer(id string) error
	DeletePlayersByGame(gameID string) error

	CreateVote(vote *db.Vote) error
	HasVote(playerID, questionID string) (bool, error)
	VotesByGame(gameID string) ([]db.Vote, error)
	DeleteVotesByGame(gameID string) error

	CreateAdmin(admin *db.Admin) error
	AdminByEmail(email string) (*db.Admin, error)
}
