package db

import "gorm.io/gorm"

// Store is the gorm-backed fact store. It exposes row-level CRUD only;
// compound lifecycle updates (advance, finish, reset) are single
// statements so each one is atomic on its own, but multi-table
// sequences are not wrapped in a transaction.
type Store struct {
	conn *gorm.DB
}

func NewStore(conn *gorm.DB) *Store {
	return &Store{conn: conn}
}

func (s *Store) CreateGame(game *Game) error {
	return translateError(s.conn.Create(game).Error)
}

func (s *Store) GetGame(id string) (*Game, error) {
	var game Game
	if err := s.conn.Where("id = ?", id).First(&game).Error; err != nil {
		return nil, translateError(err)
	}
	return &game, nil
}

func (s *Store) GamesByAdmin(adminID string) ([]Game, error) {
	var games []Game
	err := s.conn.Where("admin_id = ?", adminID).
		Order("created_at desc").Find(&games).Error
	return games, translateError(err)
}

func (s *Store) UpdateGameStatus(id, status string) error {
	return s.updateGame(id, map[string]any{"status": status})
}

func (s *Store) SetShowResults(id string, show bool) error {
	return s.updateGame(id, map[string]any{"show_results": show})
}

// AdvanceQuestion moves the game to the next question in one statement
// so concurrent advances cannot lose an increment.
func (s *Store) AdvanceQuestion(id string) error {
	return s.updateGame(id, map[string]any{
		"current_question_index": gorm.Expr("current_question_index + 1"),
		"show_results":           false,
	})
}

func (s *Store) SetCurrentQuestion(id string, index int) error {
	return s.updateGame(id, map[string]any{"current_question_index": index})
}

func (s *Store) FinishGame(id string) error {
	return s.updateGame(id, map[string]any{
		"status":       StatusFinished,
		"show_results": false,
	})
}

func (s *Store) ResetGameState(id string) error {
	return s.updateGame(id, map[string]any{
		"status":                 StatusWaiting,
		"current_question_index": 0,
		"show_results":           false,
	})
}

func (s *Store) DeleteGame(id string) error {
	result := s.conn.Where("id = ?", id).Delete(&Game{})
	if result.Error != nil {
		return translateError(result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *Store) updateGame(id string, fields map[string]any) error {
	result := s.conn.Model(&Game{}).Where("id = ?", id).Updates(fields)
	if result.Error != nil {
		return translateError(result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *Store) CreateQuestion(question *Question) error {
	return translateError(s.conn.Create(question).Error)
}

func (s *Store) GetQuestion(id string) (*Question, error) {
	var question Question
	if err := s.conn.Where("id = ?", id).First(&question).Error; err != nil {
		return nil, translateError(err)
	}
	return &question, nil
}

func (s *Store) DeleteQuestion(id string) error {
	result := s.conn.Where("id = ?", id).Delete(&Question{})
	if result.Error != nil {
		return translateError(result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// QuestionsByGame returns the game's questions in creation order.
func (s *Store) QuestionsByGame(gameID string) ([]Question, error) {
	var questions []Question
	err := s.conn.Where("game_id = ?", gameID).
		Order("created_at asc, id asc").Find(&questions).Error
	return questions, translateError(err)
}

func (s *Store) CountQuestions(gameID string) (int, error) {
	var count int64
	err := s.conn.Model(&Question{}).Where("game_id = ?", gameID).Count(&count).Error
	return int(count), translateError(err)
}

func (s *Store) DeleteQuestionsByGame(gameID string) error {
	return translateError(s.conn.Where("game_id = ?", gameID).Delete(&Question{}).Error)
}

func (s *Store) CreatePlayer(player *Player) error {
	return translateError(s.conn.Create(player).Error)
}

func (s *Store) GetPlayer(id string) (*Player, error) {
	var player Player
	if err := s.conn.Where("id = ?", id).First(&player).Error; err != nil {
		return nil, translateError(err)
	}
	return &player, nil
}

func (s *Store) FindPlayerByName(gameID, name string) (*Player, error) {
	var player Player
	err := s.conn.Where("game_id = ? AND name = ?", gameID, name).First(&player).Error
	if err != nil {
		return nil, translateError(err)
	}
	return &player, nil
}

// PlayersByGame returns the game's players in join order.
func (s *Store) PlayersByGame(gameID string) ([]Player, error) {
	var players []Player
	err := s.conn.Where("game_id = ?", gameID).
		Order("created_at asc, id asc").Find(&players).Error
	return players, translateError(err)
}

func (s *Store) SetPlayerConnected(id string, connected bool) error {
	return translateError(s.conn.Model(&Player{}).
		Where("id = ?", id).Update("connected", connected).Error)
}

func (s *Store) SetPlayerScore(id string, score int) error {
	return translateError(s.conn.Model(&Player{}).
		Where("id = ?", id).Update("score", score).Error)
}

func (s *Store) AddPlayerScore(id string, delta int) error {
	return translateError(s.conn.Model(&Player{}).
		Where("id = ?", id).Update("score", gorm.Expr("score + ?", delta)).Error)
}

func (s *Store) DeletePlayer(id string) error {
	result := s.conn.Where("id = ?", id).Delete(&Player{})
	if result.Error != nil {
		return translateError(result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *Store) DeletePlayersByGame(gameID string) error {
	return translateError(s.conn.Where("game_id = ?", gameID).Delete(&Player{}).Error)
}

func (s *Store) CreateVote(vote *Vote) error {
	return translateError(s.conn.Create(vote).Error)
}

func (s *Store) HasVote(playerID, questionID string) (bool, error) {
	var count int64
	err := s.conn.Model(&Vote{}).
		Where("player_id = ? AND question_id = ?", playerID, questionID).
		Count(&count).Error
	if err != nil {
		return false, translateError(err)
	}
	return count > 0, nil
}

func (s *Store) VotesByGame(gameID string) ([]Vote, error) {
	var votes []Vote
	err := s.conn.Where("game_id = ?", gameID).Order("id asc").Find(&votes).Error
	return votes, translateError(err)
}

func (s *Store) DeleteVotesByGame(gameID string) error {
	return translateError(s.conn.Where("game_id = ?", gameID).Delete(&Vote{}).Error)
}

func (s *Store) CreateAdmin(admin *Admin) error {
	return translateError(s.conn.Create(admin).Error)
}

func (s *Store) AdminByEmail(email string) (*Admin, error) {
	var admin Admin
	if err := s.conn.Where("email = ?", email).First(&admin).Error; err != nil {
		return nil, translateError(err)
	}
	return &admin, nil
}
