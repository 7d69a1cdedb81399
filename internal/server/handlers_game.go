package server

import (
	"encoding/json"
	"errors"
	"log"
	"strings"
	"time"

	"github.com/leocostarj22/happiness/internal/db"

	"gorm.io/datatypes"
)

const joinCodeAttempts = 5

// broadcastGameState projects the game and pushes the snapshot to every
// connection in its room. A missing game skips the broadcast; a store
// failure is logged and clients recover via requestState.
func (s *Server) broadcastGameState(gameID string) {
	state, err := s.currentState(gameID)
	if err != nil {
		log.Printf("state projection failed game_id=%s error=%v", gameID, err)
		return
	}
	if state == nil {
		return
	}
	s.hub.Broadcast(gameID, serverMessage{Type: "gameStateUpdate", Payload: state})
}

func (s *Server) sendGameState(c *client, state *GameState) {
	s.sendMessage(c, serverMessage{Type: "gameStateUpdate", Payload: state})
}

func (s *Server) handleCreateGame(c *client, payload createGamePayload) {
	name, err := validateGameName(payload.Name)
	if err != nil {
		s.sendError(c, err.Error())
		return
	}
	if err := validateGameMode(payload.Mode); err != nil {
		s.sendError(c, err.Error())
		return
	}

	var adminID *string
	if payload.Token != "" {
		if claims, err := s.verifyAdminToken(payload.Token); err == nil {
			adminID = &claims.Subject
		} else {
			log.Printf("createGame with invalid token, creating anonymous game")
		}
	}

	var game *db.Game
	for attempt := 0; attempt < joinCodeAttempts; attempt++ {
		candidate := &db.Game{
			ID:        newJoinCode(),
			Name:      name,
			Mode:      payload.Mode,
			Status:    db.StatusWaiting,
			AdminID:   adminID,
			CreatedAt: time.Now().UTC(),
		}
		err := s.store.CreateGame(candidate)
		if errors.Is(err, db.ErrDuplicate) {
			continue
		}
		if err != nil {
			log.Printf("game create failed error=%v", err)
			s.sendError(c, "failed to create game")
			return
		}
		game = candidate
		break
	}
	if game == nil {
		s.sendError(c, "failed to create game")
		return
	}

	s.hub.Subscribe(c, game.ID)
	log.Printf("game created game_id=%s mode=%s", game.ID, game.Mode)
	s.sendMessage(c, serverMessage{Type: "gameCreated", Payload: map[string]any{
		"gameId":  game.ID,
		"name":    game.Name,
		"mode":    game.Mode,
		"joinUrl": joinURL(s.cfg.PublicURL, game.ID),
	}})
}

func (s *Server) handleAddQuestion(c *client, payload addQuestionPayload) {
	if _, err := s.store.GetGame(payload.GameID); err != nil {
		s.failEvent(c, "game", payload.GameID, err)
		return
	}
	text, err := validateQuestionText(payload.Question.Text)
	if err != nil {
		s.sendError(c, err.Error())
		return
	}
	options := payload.Question.Options
	if payload.Question.UsePlayersAsOptions || options == nil {
		options = []string{}
	}
	encoded, err := json.Marshal(options)
	if err != nil {
		s.sendError(c, "invalid question options")
		return
	}
	timeLimit := payload.Question.TimeLimit
	if timeLimit <= 0 {
		timeLimit = defaultTimeLimit
	}
	question := &db.Question{
		ID:                  newEntityID(),
		GameID:              payload.GameID,
		Text:                text,
		Options:             datatypes.JSON(encoded),
		CorrectAnswer:       payload.Question.CorrectAnswer,
		UsePlayersAsOptions: payload.Question.UsePlayersAsOptions,
		TimeLimit:           timeLimit,
		CreatedAt:           time.Now().UTC(),
	}
	if err := s.store.CreateQuestion(question); err != nil {
		log.Printf("question create failed game_id=%s error=%v", payload.GameID, err)
		s.sendError(c, "failed to add question")
		return
	}
	s.broadcastGameState(payload.GameID)
}

func (s *Server) handleRemoveQuestion(c *client, payload removeQuestionPayload) {
	if err := s.store.DeleteQuestion(payload.QuestionID); err != nil {
		s.failEvent(c, "question", payload.QuestionID, err)
		return
	}
	s.clampQuestionIndex(payload.GameID)
	s.broadcastGameState(payload.GameID)
}

// clampQuestionIndex pulls current_question_index back inside the
// question list after a removal shrinks it, so the index never points
// past the end of a running game.
func (s *Server) clampQuestionIndex(gameID string) {
	game, err := s.store.GetGame(gameID)
	if err != nil {
		return
	}
	total, err := s.store.CountQuestions(gameID)
	if err != nil {
		return
	}
	last := total - 1
	if last < 0 {
		last = 0
	}
	if game.CurrentQuestionIndex <= last {
		return
	}
	if err := s.store.SetCurrentQuestion(gameID, last); err != nil {
		log.Printf("question index clamp failed game_id=%s error=%v", gameID, err)
	}
}

func (s *Server) handleJoinGame(c *client, payload joinGamePayload) {
	gameID := strings.TrimSpace(payload.GameID)
	name, err := validatePlayerName(payload.PlayerName)
	if err != nil {
		s.sendError(c, err.Error())
		return
	}
	game, err := s.store.GetGame(gameID)
	if err != nil {
		s.failEvent(c, "game", gameID, err)
		return
	}
	if game.Status == db.StatusFinished {
		s.sendError(c, "game already finished")
		return
	}

	if existing, err := s.store.FindPlayerByName(gameID, name); err == nil {
		s.connectPlayer(c, gameID, existing)
		return
	} else if !errors.Is(err, db.ErrNotFound) {
		log.Printf("player lookup failed game_id=%s error=%v", gameID, err)
		s.sendError(c, "failed to join game")
		return
	}

	player := &db.Player{
		ID:        newEntityID(),
		GameID:    gameID,
		Name:      name,
		Avatar:    payload.Avatar,
		Score:     0,
		Connected: true,
		CreatedAt: time.Now().UTC(),
	}
	err = s.store.CreatePlayer(player)
	if errors.Is(err, db.ErrDuplicate) {
		// Lost a concurrent insert race on (game, name): adopt the
		// winner's row instead of surfacing the collision.
		winner, lookupErr := s.store.FindPlayerByName(gameID, name)
		if lookupErr != nil {
			log.Printf("join race re-read failed game_id=%s name=%s error=%v", gameID, name, lookupErr)
			s.sendError(c, "failed to join game")
			return
		}
		s.connectPlayer(c, gameID, winner)
		return
	}
	if err != nil {
		log.Printf("player create failed game_id=%s error=%v", gameID, err)
		s.sendError(c, "failed to join game")
		return
	}
	s.connectPlayer(c, gameID, player)
}

// connectPlayer finishes a join or rejoin: force the connected flag,
// bind the session, subscribe the socket to the room, confirm to the
// joiner, and broadcast the new roster.
func (s *Server) connectPlayer(c *client, gameID string, player *db.Player) {
	if err := s.store.SetPlayerConnected(player.ID, true); err != nil {
		log.Printf("player connect flag failed player_id=%s error=%v", player.ID, err)
	}
	player.Connected = true
	s.sessions.Bind(c, gameID, player.ID)
	s.hub.Subscribe(c, gameID)
	log.Printf("player joined game_id=%s player_id=%s name=%s", gameID, player.ID, player.Name)
	s.sendMessage(c, serverMessage{Type: "playerJoined", Payload: PlayerState{
		ID:        player.ID,
		Name:      player.Name,
		Avatar:    player.Avatar,
		Score:     player.Score,
		Connected: true,
	}})
	s.broadcastGameState(gameID)
}

func (s *Server) handleLeaveGame(c *client, payload leaveGamePayload) {
	if err := s.store.DeletePlayer(payload.PlayerID); err != nil {
		s.failEvent(c, "player", payload.PlayerID, err)
		return
	}
	s.sessions.RemovePlayer(payload.PlayerID)
	log.Printf("player left game_id=%s player_id=%s", payload.GameID, payload.PlayerID)
	s.broadcastGameState(payload.GameID)
}

func (s *Server) handleStartGame(c *client, payload gameRefPayload) {
	if err := s.store.UpdateGameStatus(payload.GameID, db.StatusPlaying); err != nil {
		s.failEvent(c, "game", payload.GameID, err)
		return
	}
	s.broadcastGameState(payload.GameID)
}

func (s *Server) handleOpenLobby(c *client, payload gameRefPayload) {
	if err := s.store.UpdateGameStatus(payload.GameID, db.StatusLobby); err != nil {
		s.failEvent(c, "game", payload.GameID, err)
		return
	}
	s.broadcastGameState(payload.GameID)
}

func (s *Server) handleSubmitVote(c *client, payload submitVotePayload) {
	if payload.PlayerID == "" || payload.QuestionID == "" {
		s.sendError(c, "playerId and questionId are required")
		return
	}
	voted, err := s.store.HasVote(payload.PlayerID, payload.QuestionID)
	if err != nil {
		log.Printf("vote lookup failed player_id=%s error=%v", payload.PlayerID, err)
		return
	}
	if voted {
		// Re-submission is a no-op: the first vote stands.
		return
	}
	game, err := s.store.GetGame(payload.GameID)
	if err != nil {
		s.failEvent(c, "game", payload.GameID, err)
		return
	}
	question, err := s.store.GetQuestion(payload.QuestionID)
	if err != nil {
		s.failEvent(c, "question", payload.QuestionID, err)
		return
	}

	vote := &db.Vote{
		GameID:         payload.GameID,
		PlayerID:       payload.PlayerID,
		QuestionID:     payload.QuestionID,
		OptionIndex:    payload.OptionIndex,
		TargetPlayerID: payload.TargetPlayerID,
		CreatedAt:      time.Now().UTC(),
	}
	err = s.store.CreateVote(vote)
	if errors.Is(err, db.ErrDuplicate) {
		// Concurrent duplicate lost the insert race; first vote stands.
		return
	}
	if err != nil {
		log.Printf("vote create failed game_id=%s player_id=%s error=%v", payload.GameID, payload.PlayerID, err)
		return
	}

	switch {
	case game.Mode == db.ModeQuiz &&
		question.CorrectAnswer != nil && payload.OptionIndex != nil &&
		*question.CorrectAnswer == *payload.OptionIndex:
		if err := s.store.AddPlayerScore(payload.PlayerID, 100); err != nil {
			log.Printf("quiz score update failed player_id=%s error=%v", payload.PlayerID, err)
		}
	case game.Mode == db.ModeVoting &&
		payload.TargetPlayerID != nil && *payload.TargetPlayerID != "":
		if err := s.store.AddPlayerScore(*payload.TargetPlayerID, 1); err != nil {
			log.Printf("voting score update failed player_id=%s error=%v", *payload.TargetPlayerID, err)
		}
	}

	s.broadcastGameState(payload.GameID)

	if voter, err := s.store.GetPlayer(payload.PlayerID); err == nil {
		s.hub.Broadcast(payload.GameID, serverMessage{Type: "voteCast", Payload: map[string]any{
			"playerId": voter.ID,
			"name":     voter.Name,
			"avatar":   voter.Avatar,
		}})
	}
}

func (s *Server) handleShowQuestionResults(c *client, payload gameRefPayload) {
	if err := s.store.SetShowResults(payload.GameID, true); err != nil {
		s.failEvent(c, "game", payload.GameID, err)
		return
	}
	s.broadcastGameState(payload.GameID)
}

func (s *Server) handleNextQuestion(c *client, payload gameRefPayload) {
	game, err := s.store.GetGame(payload.GameID)
	if err != nil {
		s.failEvent(c, "game", payload.GameID, err)
		return
	}
	total, err := s.store.CountQuestions(payload.GameID)
	if err != nil {
		log.Printf("question count failed game_id=%s error=%v", payload.GameID, err)
		return
	}
	if game.CurrentQuestionIndex+1 >= total {
		// Past the last question: finish, index stays put.
		err = s.store.FinishGame(payload.GameID)
	} else {
		err = s.store.AdvanceQuestion(payload.GameID)
	}
	if err != nil {
		log.Printf("question advance failed game_id=%s error=%v", payload.GameID, err)
		return
	}
	s.broadcastGameState(payload.GameID)
}

func (s *Server) handleRequestState(c *client, payload gameRefPayload) {
	gameID := strings.TrimSpace(payload.GameID)
	state, err := s.currentState(gameID)
	if err != nil {
		log.Printf("state projection failed game_id=%s error=%v", gameID, err)
		s.sendError(c, "failed to load game state")
		return
	}
	if state == nil {
		s.sendError(c, "game not found")
		return
	}
	s.hub.Subscribe(c, gameID)
	s.sendGameState(c, state)
}

// handleDisconnect is the implicit event for a dropped socket: the
// player row survives with connected=false, unlike leaveGame which
// deletes it.
func (s *Server) handleDisconnect(c *client) {
	session, ok := s.sessions.Lookup(c)
	if !ok {
		return
	}
	s.sessions.Remove(c)
	if err := s.store.SetPlayerConnected(session.PlayerID, false); err != nil {
		log.Printf("disconnect flag failed player_id=%s error=%v", session.PlayerID, err)
	}
	log.Printf("player disconnected game_id=%s player_id=%s", session.GameID, session.PlayerID)
	s.broadcastGameState(session.GameID)
}

// failEvent reports a per-entity store failure to the one connection
// that caused it; rooms never see another client's errors.
func (s *Server) failEvent(c *client, entity, id string, err error) {
	if errors.Is(err, db.ErrNotFound) {
		s.sendError(c, entity+" not found")
		return
	}
	log.Printf("%s lookup failed id=%s error=%v", entity, id, err)
	s.sendError(c, "internal error")
}
