package server

import "sync"

// playerSession ties a live connection to the player it represents.
type playerSession struct {
	GameID   string
	PlayerID string
}

// sessionTracker maps connections to player identities for disconnect
// cleanup and reconnection matching. Only player connections are
// tracked; admin and dashboard connections never appear here. The map
// is purely in-memory and rebuilt as connections are re-established.
type sessionTracker struct {
	mu       sync.Mutex
	byClient map[*client]playerSession
}

func newSessionTracker() *sessionTracker {
	return &sessionTracker{
		byClient: make(map[*client]playerSession),
	}
}

func (t *sessionTracker) Bind(c *client, gameID, playerID string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.byClient[c] = playerSession{GameID: gameID, PlayerID: playerID}
}

func (t *sessionTracker) Lookup(c *client) (playerSession, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	session, ok := t.byClient[c]
	return session, ok
}

func (t *sessionTracker) Remove(c *client) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.byClient, c)
}

// RemovePlayer drops every session bound to the given player, used when
// the player row is hard-deleted on leaveGame.
func (t *sessionTracker) RemovePlayer(playerID string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	for c, session := range t.byClient {
		if session.PlayerID == playerID {
			delete(t.byClient, c)
		}
	}
}
