package server

import (
	"encoding/json"
	"log"
)

// eventKind is the closed set of client-originated events. Dispatch is
// a switch over these tags with a typed payload per kind; unknown tags
// get an error event instead of silent dispatch on raw maps.
type eventKind string

const (
	eventCreateGame          eventKind = "createGame"
	eventAddQuestion         eventKind = "addQuestion"
	eventRemoveQuestion      eventKind = "removeQuestion"
	eventJoinGame            eventKind = "joinGame"
	eventLeaveGame           eventKind = "leaveGame"
	eventStartGame           eventKind = "startGame"
	eventOpenLobby           eventKind = "openLobby"
	eventSubmitVote          eventKind = "submitVote"
	eventShowQuestionResults eventKind = "showQuestionResults"
	eventNextQuestion        eventKind = "nextQuestion"
	eventRequestState        eventKind = "requestState"
	eventAdminRegister       eventKind = "adminRegister"
	eventAdminLogin          eventKind = "adminLogin"
	eventGetAdminGames       eventKind = "getAdminGames"
	eventResetGame           eventKind = "resetGame"
	eventDeleteGame          eventKind = "deleteGame"
)

// eventEnvelope is the wire frame for client events. ID, when present,
// requests an acknowledgement carrying the same ID.
type eventEnvelope struct {
	Type    eventKind       `json:"type"`
	ID      string          `json:"id,omitempty"`
	Payload json.RawMessage `json:"payload"`
}

// serverMessage is the wire frame for server-to-client traffic.
type serverMessage struct {
	Type    string `json:"type"`
	ID      string `json:"id,omitempty"`
	Payload any    `json:"payload"`
}

type createGamePayload struct {
	Name  string `json:"name"`
	Mode  string `json:"mode"`
	Token string `json:"token,omitempty"`
}

type questionInput struct {
	Text                string   `json:"text"`
	Options             []string `json:"options"`
	CorrectAnswer       *int     `json:"correctAnswer"`
	TimeLimit           int      `json:"timeLimit"`
	UsePlayersAsOptions bool     `json:"usePlayersAsOptions"`
}

type addQuestionPayload struct {
	GameID   string        `json:"gameId"`
	Question questionInput `json:"question"`
}

type removeQuestionPayload struct {
	GameID     string `json:"gameId"`
	QuestionID string `json:"questionId"`
}

type joinGamePayload struct {
	GameID     string `json:"gameId"`
	PlayerName string `json:"playerName"`
	Avatar     string `json:"avatar"`
}

type leaveGamePayload struct {
	GameID   string `json:"gameId"`
	PlayerID string `json:"playerId"`
}

type gameRefPayload struct {
	GameID string `json:"gameId"`
}

type submitVotePayload struct {
	GameID         string  `json:"gameId"`
	PlayerID       string  `json:"playerId"`
	QuestionID     string  `json:"questionId"`
	OptionIndex    *int    `json:"optionIndex"`
	TargetPlayerID *string `json:"targetPlayerId"`
}

type credentialsPayload struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6"`
}

type tokenPayload struct {
	Token string `json:"token"`
}

type adminGamePayload struct {
	GameID string `json:"gameId"`
	Token  string `json:"token"`
}

// dispatchEvent decodes one inbound frame and routes it to its handler.
// Handler failures are logged and answered on the single originating
// connection; they never take down the room or the process.
func (s *Server) dispatchEvent(c *client, data []byte) {
	var env eventEnvelope
	if err := json.Unmarshal(data, &env); err != nil {
		s.sendError(c, "invalid message")
		return
	}
	switch env.Type {
	case eventCreateGame:
		dispatch(s, c, env, s.handleCreateGame)
	case eventAddQuestion:
		dispatch(s, c, env, s.handleAddQuestion)
	case eventRemoveQuestion:
		dispatch(s, c, env, s.handleRemoveQuestion)
	case eventJoinGame:
		dispatch(s, c, env, s.handleJoinGame)
	case eventLeaveGame:
		dispatch(s, c, env, s.handleLeaveGame)
	case eventStartGame:
		dispatch(s, c, env, s.handleStartGame)
	case eventOpenLobby:
		dispatch(s, c, env, s.handleOpenLobby)
	case eventSubmitVote:
		dispatch(s, c, env, s.handleSubmitVote)
	case eventShowQuestionResults:
		dispatch(s, c, env, s.handleShowQuestionResults)
	case eventNextQuestion:
		dispatch(s, c, env, s.handleNextQuestion)
	case eventRequestState:
		dispatch(s, c, env, s.handleRequestState)
	case eventAdminRegister:
		dispatchAck(s, c, env, s.handleAdminRegister)
	case eventAdminLogin:
		dispatchAck(s, c, env, s.handleAdminLogin)
	case eventGetAdminGames:
		dispatchAck(s, c, env, s.handleGetAdminGames)
	case eventResetGame:
		dispatchAck(s, c, env, s.handleResetGame)
	case eventDeleteGame:
		dispatchAck(s, c, env, s.handleDeleteGame)
	default:
		s.sendError(c, "unknown event type: "+string(env.Type))
	}
}

func dispatch[P any](s *Server, c *client, env eventEnvelope, handler func(*client, P)) {
	var payload P
	if len(env.Payload) > 0 {
		if err := json.Unmarshal(env.Payload, &payload); err != nil {
			s.sendError(c, "malformed payload for "+string(env.Type))
			return
		}
	}
	handler(c, payload)
}

func dispatchAck[P any](s *Server, c *client, env eventEnvelope, handler func(*client, string, P)) {
	var payload P
	if len(env.Payload) > 0 {
		if err := json.Unmarshal(env.Payload, &payload); err != nil {
			s.sendAck(c, env.ID, ackResult{Success: false, Error: "malformed payload"})
			return
		}
	}
	handler(c, env.ID, payload)
}

// ackResult is the request/response envelope for ack-style events.
// Extra fields ride alongside success/error per event kind.
type ackResult struct {
	Success bool           `json:"success"`
	Error   string         `json:"error,omitempty"`
	Token   string         `json:"token,omitempty"`
	Admin   *adminIdentity `json:"admin,omitempty"`
	Games   []GameSummary  `json:"games,omitempty"`
}

type adminIdentity struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}

func (s *Server) sendMessage(c *client, msg serverMessage) {
	data, err := json.Marshal(msg)
	if err != nil {
		log.Printf("message marshal failed type=%s error=%v", msg.Type, err)
		return
	}
	c.enqueue(data)
}

func (s *Server) sendError(c *client, message string) {
	s.sendMessage(c, serverMessage{Type: "error", Payload: message})
}

func (s *Server) sendAck(c *client, id string, result ackResult) {
	s.sendMessage(c, serverMessage{Type: "ack", ID: id, Payload: result})
}
