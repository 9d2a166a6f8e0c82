package storage

import (
	"time"

	"github.com/google/uuid"
)

// Game represents one authoritative chess game.
type Game struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey"`
	FEN         string
	Status      string
	Active      bool `gorm:"index"`
	CompletedAt *time.Time
	LastSeen    time.Time
	CreatedAt   time.Time
	UpdatedAt   time.Time
	Moves       []Move
}

// Move stores a single accepted move in a game.
type Move struct {
	ID        uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	GameID    uuid.UUID `gorm:"type:uuid;index;uniqueIndex:idx_game_number"`
	Number    int       `gorm:"uniqueIndex:idx_game_number"`
	UCI       string
	Color     string
	CreatedAt time.Time
}
