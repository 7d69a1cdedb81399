package server

import (
	"errors"
	"log"
	"strings"
	"time"

	"github.com/leocostarj22/happiness/internal/db"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

func (s *Server) handleAdminRegister(c *client, ackID string, payload credentialsPayload) {
	payload.Email = strings.ToLower(strings.TrimSpace(payload.Email))
	if err := validateCredentials(payload); err != nil {
		s.sendAck(c, ackID, ackResult{Success: false, Error: err.Error()})
		return
	}
	if _, err := s.store.AdminByEmail(payload.Email); err == nil {
		s.sendAck(c, ackID, ackResult{Success: false, Error: "email already registered"})
		return
	} else if !errors.Is(err, db.ErrNotFound) {
		log.Printf("admin lookup failed email=%s error=%v", payload.Email, err)
		s.sendAck(c, ackID, ackResult{Success: false, Error: "registration failed, try again"})
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(payload.Password), s.cfg.BcryptCost)
	if err != nil {
		log.Printf("password hash failed error=%v", err)
		s.sendAck(c, ackID, ackResult{Success: false, Error: "registration failed, try again"})
		return
	}
	admin := &db.Admin{
		ID:           uuid.NewString(),
		Email:        payload.Email,
		PasswordHash: string(hash),
		CreatedAt:    time.Now().UTC(),
	}
	if err := s.store.CreateAdmin(admin); err != nil {
		if errors.Is(err, db.ErrDuplicate) {
			s.sendAck(c, ackID, ackResult{Success: false, Error: "email already registered"})
			return
		}
		log.Printf("admin create failed email=%s error=%v", payload.Email, err)
		s.sendAck(c, ackID, ackResult{Success: false, Error: "registration failed, try again"})
		return
	}

	token, err := s.issueAdminToken(admin.ID, admin.Email)
	if err != nil {
		log.Printf("token issue failed admin_id=%s error=%v", admin.ID, err)
		s.sendAck(c, ackID, ackResult{Success: false, Error: "registration failed, try again"})
		return
	}
	log.Printf("admin registered admin_id=%s", admin.ID)
	s.sendAck(c, ackID, ackResult{
		Success: true,
		Token:   token,
		Admin:   &adminIdentity{ID: admin.ID, Email: admin.Email},
	})
}

func (s *Server) handleAdminLogin(c *client, ackID string, payload credentialsPayload) {
	payload.Email = strings.ToLower(strings.TrimSpace(payload.Email))
	if err := validateCredentials(payload); err != nil {
		s.sendAck(c, ackID, ackResult{Success: false, Error: err.Error()})
		return
	}
	admin, err := s.store.AdminByEmail(payload.Email)
	if err != nil {
		if !errors.Is(err, db.ErrNotFound) {
			log.Printf("admin lookup failed email=%s error=%v", payload.Email, err)
		}
		s.sendAck(c, ackID, ackResult{Success: false, Error: "invalid credentials"})
		return
	}
	if bcrypt.CompareHashAndPassword([]byte(admin.PasswordHash), []byte(payload.Password)) != nil {
		s.sendAck(c, ackID, ackResult{Success: false, Error: "invalid credentials"})
		return
	}
	token, err := s.issueAdminToken(admin.ID, admin.Email)
	if err != nil {
		log.Printf("token issue failed admin_id=%s error=%v", admin.ID, err)
		s.sendAck(c, ackID, ackResult{Success: false, Error: "login failed, try again"})
		return
	}
	s.sendAck(c, ackID, ackResult{
		Success: true,
		Token:   token,
		Admin:   &adminIdentity{ID: admin.ID, Email: admin.Email},
	})
}

func (s *Server) handleGetAdminGames(c *client, ackID string, payload tokenPayload) {
	claims, err := s.verifyAdminToken(payload.Token)
	if err != nil {
		s.sendAck(c, ackID, ackResult{Success: false, Error: "invalid token"})
		return
	}
	games, err := s.store.GamesByAdmin(claims.Subject)
	if err != nil {
		log.Printf("admin games lookup failed admin_id=%s error=%v", claims.Subject, err)
		s.sendAck(c, ackID, ackResult{Success: false, Error: "failed to load games"})
		return
	}
	summaries := make([]GameSummary, 0, len(games))
	for _, game := range games {
		summaries = append(summaries, GameSummary{
			ID:        game.ID,
			Name:      game.Name,
			Mode:      game.Mode,
			Status:    game.Status,
			CreatedAt: game.CreatedAt,
		})
	}
	s.sendAck(c, ackID, ackResult{Success: true, Games: summaries})
}

// authorizeOwner resolves the token and checks that its subject owns
// the game. Authorization failures and missing games are reported
// identically so probing codes leaks nothing.
func (s *Server) authorizeOwner(token, gameID string) (*db.Game, error) {
	claims, err := s.verifyAdminToken(token)
	if err != nil {
		return nil, err
	}
	game, err := s.store.GetGame(gameID)
	if err != nil {
		return nil, err
	}
	if game.AdminID == nil || *game.AdminID != claims.Subject {
		return nil, errInvalidToken
	}
	return game, nil
}

func (s *Server) handleResetGame(c *client, ackID string, payload adminGamePayload) {
	if _, err := s.authorizeOwner(payload.Token, payload.GameID); err != nil {
		s.sendAck(c, ackID, ackResult{Success: false, Error: "not authorized or game not found"})
		return
	}
	if err := s.store.DeleteVotesByGame(payload.GameID); err != nil {
		log.Printf("reset votes failed game_id=%s error=%v", payload.GameID, err)
		s.sendAck(c, ackID, ackResult{Success: false, Error: "reset failed"})
		return
	}
	if err := s.store.DeletePlayersByGame(payload.GameID); err != nil {
		log.Printf("reset players failed game_id=%s error=%v", payload.GameID, err)
		s.sendAck(c, ackID, ackResult{Success: false, Error: "reset failed"})
		return
	}
	if err := s.store.ResetGameState(payload.GameID); err != nil {
		log.Printf("reset game failed game_id=%s error=%v", payload.GameID, err)
		s.sendAck(c, ackID, ackResult{Success: false, Error: "reset failed"})
		return
	}
	log.Printf("game reset game_id=%s", payload.GameID)
	s.broadcastGameState(payload.GameID)
	s.sendAck(c, ackID, ackResult{Success: true})
}

func (s *Server) handleDeleteGame(c *client, ackID string, payload adminGamePayload) {
	if _, err := s.authorizeOwner(payload.Token, payload.GameID); err != nil {
		s.sendAck(c, ackID, ackResult{Success: false, Error: "not authorized or game not found"})
		return
	}
	// Child rows first. The sequence is not atomic as a unit; a crash
	// partway leaves the game row intact for a retry.
	if err := s.store.DeleteVotesByGame(payload.GameID); err != nil {
		log.Printf("delete votes failed game_id=%s error=%v", payload.GameID, err)
		s.sendAck(c, ackID, ackResult{Success: false, Error: "delete failed"})
		return
	}
	if err := s.store.DeleteQuestionsByGame(payload.GameID); err != nil {
		log.Printf("delete questions failed game_id=%s error=%v", payload.GameID, err)
		s.sendAck(c, ackID, ackResult{Success: false, Error: "delete failed"})
		return
	}
	if err := s.store.DeletePlayersByGame(payload.GameID); err != nil {
		log.Printf("delete players failed game_id=%s error=%v", payload.GameID, err)
		s.sendAck(c, ackID, ackResult{Success: false, Error: "delete failed"})
		return
	}
	if err := s.store.DeleteGame(payload.GameID); err != nil {
		log.Printf("delete game failed game_id=%s error=%v", payload.GameID, err)
		s.sendAck(c, ackID, ackResult{Success: false, Error: "delete failed"})
		return
	}
	s.hub.DropRoom(payload.GameID)
	log.Printf("game deleted game_id=%s", payload.GameID)
	s.sendAck(c, ackID, ackResult{Success: true})
}
