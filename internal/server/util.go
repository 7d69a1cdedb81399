package server

import (
	"crypto/rand"
	"strings"
)

// newJoinCode returns a short uppercase code players can type or scan.
// Ambiguous characters (0/O, 1/I) are left out.
func newJoinCode() string {
	const alphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"
	buf := make([]byte, 6)
	if _, err := rand.Read(buf); err != nil {
		return "AAAAAA"
	}
	for i := range buf {
		buf[i] = alphabet[int(buf[i])%len(alphabet)]
	}
	return string(buf)
}

// newEntityID returns a short random identifier for players and questions.
func newEntityID() string {
	const alphabet = "abcdefghijklmnopqrstuvwxyz0123456789"
	buf := make([]byte, 9)
	if _, err := rand.Read(buf); err != nil {
		return "fallback0"
	}
	for i := range buf {
		buf[i] = alphabet[int(buf[i])%len(alphabet)]
	}
	return string(buf)
}

// joinURL is the QR-scannable address for a game code.
func joinURL(publicURL, code string) string {
	return strings.TrimRight(publicURL, "/") + "/join/" + code
}
