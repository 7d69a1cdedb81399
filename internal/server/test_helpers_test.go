package server

import (
	"encoding/json"
	"sort"
	"sync"
	"testing"

	"github.com/leocostarj22/happiness/internal/config"
	"github.com/leocostarj22/happiness/internal/db"
)

// memStore is an in-memory fact store with the same uniqueness and
// ordering semantics as the Postgres-backed one.
type memStore struct {
	mu         sync.Mutex
	games      map[string]*db.Game
	players    []*db.Player
	questions  []*db.Question
	votes      []*db.Vote
	admins     map[string]*db.Admin
	nextVoteID uint
}

func newMemStore() *memStore {
	return &memStore{
		games:  make(map[string]*db.Game),
		admins: make(map[string]*db.Admin),
	}
}

func (m *memStore) CreateGame(game *db.Game) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.games[game.ID]; ok {
		return db.ErrDuplicate
	}
	copied := *game
	m.games[game.ID] = &copied
	return nil
}

func (m *memStore) GetGame(id string) (*db.Game, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	game, ok := m.games[id]
	if !ok {
		return nil, db.ErrNotFound
	}
	copied := *game
	return &copied, nil
}

func (m *memStore) GamesByAdmin(adminID string) ([]db.Game, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var games []db.Game
	for _, game := range m.games {
		if game.AdminID != nil && *game.AdminID == adminID {
			games = append(games, *game)
		}
	}
	sort.Slice(games, func(i, j int) bool {
		return games[i].CreatedAt.After(games[j].CreatedAt)
	})
	return games, nil
}

func (m *memStore) UpdateGameStatus(id, status string) error {
	return m.mutateGame(id, func(game *db.Game) {
		game.Status = status
	})
}

func (m *memStore) SetShowResults(id string, show bool) error {
	return m.mutateGame(id, func(game *db.Game) {
		game.ShowResults = show
	})
}

func (m *memStore) AdvanceQuestion(id string) error {
	return m.mutateGame(id, func(game *db.Game) {
		game.CurrentQuestionIndex++
		game.ShowResults = false
	})
}

func (m *memStore) SetCurrentQuestion(id string, index int) error {
	return m.mutateGame(id, func(game *db.Game) {
		game.CurrentQuestionIndex = index
	})
}

func (m *memStore) FinishGame(id string) error {
	return m.mutateGame(id, func(game *db.Game) {
		game.Status = db.StatusFinished
		game.ShowResults = false
	})
}

func (m *memStore) ResetGameState(id string) error {
	return m.mutateGame(id, func(game *db.Game) {
		game.Status = db.StatusWaiting
		game.CurrentQuestionIndex = 0
		game.ShowResults = false
	})
}

func (m *memStore) DeleteGame(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.games[id]; !ok {
		return db.ErrNotFound
	}
	delete(m.games, id)
	return nil
}

func (m *memStore) mutateGame(id string, mutate func(*db.Game)) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	game, ok := m.games[id]
	if !ok {
		return db.ErrNotFound
	}
	mutate(game)
	return nil
}

func (m *memStore) CreateQuestion(question *db.Question) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	copied := *question
	m.questions = append(m.questions, &copied)
	return nil
}

func (m *memStore) GetQuestion(id string) (*db.Question, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, question := range m.questions {
		if question.ID == id {
			copied := *question
			return &copied, nil
		}
	}
	return nil, db.ErrNotFound
}

func (m *memStore) DeleteQuestion(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, question := range m.questions {
		if question.ID == id {
			m.questions = append(m.questions[:i], m.questions[i+1:]...)
			return nil
		}
	}
	return db.ErrNotFound
}

func (m *memStore) QuestionsByGame(gameID string) ([]db.Question, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var questions []db.Question
	for _, question := range m.questions {
		if question.GameID == gameID {
			questions = append(questions, *question)
		}
	}
	return questions, nil
}

func (m *memStore) CountQuestions(gameID string) (int, error) {
	questions, _ := m.QuestionsByGame(gameID)
	return len(questions), nil
}

func (m *memStore) DeleteQuestionsByGame(gameID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	kept := m.questions[:0]
	for _, question := range m.questions {
		if question.GameID != gameID {
			kept = append(kept, question)
		}
	}
	m.questions = kept
	return nil
}

func (m *memStore) CreatePlayer(player *db.Player) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.players {
		if existing.GameID == player.GameID && existing.Name == player.Name {
			return db.ErrDuplicate
		}
	}
	copied := *player
	m.players = append(m.players, &copied)
	return nil
}

func (m *memStore) GetPlayer(id string) (*db.Player, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, player := range m.players {
		if player.ID == id {
			copied := *player
			return &copied, nil
		}
	}
	return nil, db.ErrNotFound
}

func (m *memStore) FindPlayerByName(gameID, name string) (*db.Player, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, player := range m.players {
		if player.GameID == gameID && player.Name == name {
			copied := *player
			return &copied, nil
		}
	}
	return nil, db.ErrNotFound
}

func (m *memStore) PlayersByGame(gameID string) ([]db.Player, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var players []db.Player
	for _, player := range m.players {
		if player.GameID == gameID {
			players = append(players, *player)
		}
	}
	return players, nil
}

func (m *memStore) SetPlayerConnected(id string, connected bool) error {
	return m.mutatePlayer(id, func(player *db.Player) {
		player.Connected = connected
	})
}

func (m *memStore) SetPlayerScore(id string, score int) error {
	return m.mutatePlayer(id, func(player *db.Player) {
		player.Score = score
	})
}

func (m *memStore) AddPlayerScore(id string, delta int) error {
	return m.mutatePlayer(id, func(player *db.Player) {
		player.Score += delta
	})
}

func (m *memStore) mutatePlayer(id string, mutate func(*db.Player)) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, player := range m.players {
		if player.ID == id {
			mutate(player)
			return nil
		}
	}
	return db.ErrNotFound
}

func (m *memStore) DeletePlayer(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, player := range m.players {
		if player.ID == id {
			m.players = append(m.players[:i], m.players[i+1:]...)
			return nil
		}
	}
	return db.ErrNotFound
}

func (m *memStore) DeletePlayersByGame(gameID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	kept := m.players[:0]
	for _, player := range m.players {
		if player.GameID != gameID {
			kept = append(kept, player)
		}
	}
	m.players = kept
	return nil
}

func (m *memStore) CreateVote(vote *db.Vote) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.votes {
		if existing.PlayerID == vote.PlayerID && existing.QuestionID == vote.QuestionID {
			return db.ErrDuplicate
		}
	}
	m.nextVoteID++
	copied := *vote
	copied.ID = m.nextVoteID
	vote.ID = m.nextVoteID
	m.votes = append(m.votes, &copied)
	return nil
}

func (m *memStore) HasVote(playerID, questionID string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, vote := range m.votes {
		if vote.PlayerID == playerID && vote.QuestionID == questionID {
			return true, nil
		}
	}
	return false, nil
}

func (m *memStore) VotesByGame(gameID string) ([]db.Vote, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var votes []db.Vote
	for _, vote := range m.votes {
		if vote.GameID == gameID {
			votes = append(votes, *vote)
		}
	}
	return votes, nil
}

func (m *memStore) DeleteVotesByGame(gameID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	kept := m.votes[:0]
	for _, vote := range m.votes {
		if vote.GameID != gameID {
			kept = append(kept, vote)
		}
	}
	m.votes = kept
	return nil
}

func (m *memStore) CreateAdmin(admin *db.Admin) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.admins[admin.Email]; ok {
		return db.ErrDuplicate
	}
	copied := *admin
	m.admins[admin.Email] = &copied
	return nil
}

func (m *memStore) AdminByEmail(email string) (*db.Admin, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	admin, ok := m.admins[email]
	if !ok {
		return nil, db.ErrNotFound
	}
	copied := *admin
	return &copied, nil
}

func newTestServer() (*Server, *memStore) {
	store := newMemStore()
	return New(store, config.Default()), store
}

func newTestClient() *client {
	return &client{send: make(chan []byte, sendBufferSize)}
}

// testMessage mirrors serverMessage with a raw payload so tests can
// decode it into the concrete type they expect.
type testMessage struct {
	Type    string          `json:"type"`
	ID      string          `json:"id"`
	Payload json.RawMessage `json:"payload"`
}

func nextMessage(t *testing.T, c *client) testMessage {
	t.Helper()
	select {
	case data := <-c.send:
		var msg testMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			t.Fatalf("decode queued message: %v", err)
		}
		return msg
	default:
		t.Fatal("expected a queued message, found none")
		return testMessage{}
	}
}

func expectMessageType(t *testing.T, c *client, want string) testMessage {
	t.Helper()
	msg := nextMessage(t, c)
	if msg.Type != want {
		t.Fatalf("expected message type %q, got %q", want, msg.Type)
	}
	return msg
}

func decodeState(t *testing.T, msg testMessage) GameState {
	t.Helper()
	var state GameState
	if err := json.Unmarshal(msg.Payload, &state); err != nil {
		t.Fatalf("decode game state: %v", err)
	}
	return state
}

func decodeAck(t *testing.T, msg testMessage) ackResult {
	t.Helper()
	if msg.Type != "ack" {
		t.Fatalf("expected ack message, got %q", msg.Type)
	}
	var result ackResult
	if err := json.Unmarshal(msg.Payload, &result); err != nil {
		t.Fatalf("decode ack: %v", err)
	}
	return result
}

func drainMessages(c *client) {
	for {
		select {
		case <-c.send:
		default:
			return
		}
	}
}

// lastStateUpdate drains the queue and returns the final broadcast
// snapshot, which is the state clients end up rendering.
func lastStateUpdate(t *testing.T, c *client) GameState {
	t.Helper()
	var last *testMessage
	for {
		select {
		case data := <-c.send:
			var msg testMessage
			if err := json.Unmarshal(data, &msg); err != nil {
				t.Fatalf("decode queued message: %v", err)
			}
			if msg.Type == "gameStateUpdate" {
				copied := msg
				last = &copied
			}
		default:
			if last == nil {
				t.Fatal("expected a gameStateUpdate message")
			}
			return decodeState(t, *last)
		}
	}
}
