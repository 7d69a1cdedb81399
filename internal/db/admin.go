package db

import "time"

// Admin is a registered game owner. PasswordHash is a bcrypt verifier;
// the plaintext never touches storage.
type Admin struct {
	ID           string    `gorm:"primaryKey;size:36"`
	Email        string    `gorm:"size:255;uniqueIndex;not null"`
	PasswordHash string    `gorm:"size:255;not null"`
	CreatedAt    time.Time `gorm:"not null"`
}
