package server

import (
	"encoding/json"
	"errors"
	"log"

	"github.com/leocostarj22/happiness/internal/db"
)

// projectGameState reads the fact store and builds the canonical state
// for one game: game summary, questions in creation order (with
// roster-derived options resolved), players in join order, and every
// vote. It is a pure read; score reconciliation lives in
// reconcileVotingScores. A nil state with nil error means the game does
// not exist and the caller must not broadcast.
func (s *Server) projectGameState(gameID string) (*GameState, error) {
	game, err := s.store.GetGame(gameID)
	if errors.Is(err, db.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	questions, err := s.store.QuestionsByGame(gameID)
	if err != nil {
		return nil, err
	}
	players, err := s.store.PlayersByGame(gameID)
	if err != nil {
		return nil, err
	}
	votes, err := s.store.VotesByGame(gameID)
	if err != nil {
		return nil, err
	}

	rosterNames := make([]string, 0, len(players))
	playerStates := make([]PlayerState, 0, len(players))
	for _, player := range players {
		rosterNames = append(rosterNames, player.Name)
		playerStates = append(playerStates, PlayerState{
			ID:        player.ID,
			Name:      player.Name,
			Avatar:    player.Avatar,
			Score:     player.Score,
			Connected: player.Connected,
		})
	}

	questionStates := make([]QuestionState, 0, len(questions))
	for _, question := range questions {
		questionStates = append(questionStates, questionState(question, rosterNames))
	}

	voteStates := make([]VoteState, 0, len(votes))
	for _, vote := range votes {
		voteStates = append(voteStates, VoteState{
			ID:             vote.ID,
			GameID:         vote.GameID,
			PlayerID:       vote.PlayerID,
			QuestionID:     vote.QuestionID,
			OptionIndex:    vote.OptionIndex,
			TargetPlayerID: vote.TargetPlayerID,
			CreatedAt:      vote.CreatedAt,
		})
	}

	return &GameState{
		Game: &GameDetail{
			ID:                   game.ID,
			Name:                 game.Name,
			Mode:                 game.Mode,
			Status:               game.Status,
			CurrentQuestionIndex: game.CurrentQuestionIndex,
			Questions:            questionStates,
		},
		Players:     playerStates,
		Votes:       voteStates,
		ShowResults: game.ShowResults,
	}, nil
}

func questionState(question db.Question, rosterNames []string) QuestionState {
	state := QuestionState{
		ID:                  question.ID,
		Text:                question.Text,
		CorrectAnswer:       question.CorrectAnswer,
		TimeLimit:           question.TimeLimit,
		UsePlayersAsOptions: question.UsePlayersAsOptions,
	}
	if state.TimeLimit <= 0 {
		state.TimeLimit = defaultTimeLimit
	}
	if question.UsePlayersAsOptions {
		state.Options = append([]string(nil), rosterNames...)
		return state
	}
	options := []string{}
	if len(question.Options) > 0 {
		if err := json.Unmarshal(question.Options, &options); err != nil {
			log.Printf("question options unreadable question_id=%s error=%v", question.ID, err)
			options = []string{}
		}
	}
	state.Options = options
	return state
}

// reconcileVotingScores recomputes voting-mode scores as the count of
// votes targeting each player and patches the projected state. The
// stored score is only a cache of that count, so any drift (lost update
// under concurrent submits) is repaired here; the write-back is
// best-effort and never blocks the caller. Quiz-mode scores are running
// counters and are deliberately left alone: only the first vote per
// question scores, which cannot be rederived from the final vote set.
func (s *Server) reconcileVotingScores(state *GameState) {
	if state == nil || state.Game == nil || state.Game.Mode != db.ModeVoting {
		return
	}
	tally := make(map[string]int, len(state.Players))
	for _, vote := range state.Votes {
		if vote.TargetPlayerID != nil && *vote.TargetPlayerID != "" {
			tally[*vote.TargetPlayerID]++
		}
	}
	for i := range state.Players {
		want := tally[state.Players[i].ID]
		if state.Players[i].Score == want {
			continue
		}
		state.Players[i].Score = want
		if err := s.store.SetPlayerScore(state.Players[i].ID, want); err != nil {
			log.Printf("score reconcile write failed player_id=%s error=%v", state.Players[i].ID, err)
		}
	}
}

// currentState is the projection used by every broadcast and state
// request path: project, then self-heal voting scores.
func (s *Server) currentState(gameID string) (*GameState, error) {
	state, err := s.projectGameState(gameID)
	if err != nil || state == nil {
		return state, err
	}
	s.reconcileVotingScores(state)
	return state, nil
}
