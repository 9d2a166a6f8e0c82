package storage

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Store wraps a gorm DB instance and provides helper methods for persisting games.
// A nil *Store is valid and persists nothing.
type Store struct {
	db *gorm.DB
}

// NewStore creates a new store helper from a gorm DB.
func NewStore(db *gorm.DB) *Store {
	if db == nil {
		return nil
	}
	return &Store{db: db}
}

// ErrNotFound is returned when a record is not found.
var ErrNotFound = gorm.ErrRecordNotFound

// CreateGame inserts a new active game row.
func (s *Store) CreateGame(ctx context.Context, id uuid.UUID, lastSeen time.Time) error {
	if s == nil {
		return nil
	}
	game := Game{ID: id, Active: true, LastSeen: lastSeen}
	return s.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(&game).Error
}

// RecordMove inserts a move row and touches the game.
func (s *Store) RecordMove(ctx context.Context, gameID uuid.UUID, number int, uci, color string) error {
	if s == nil {
		return nil
	}
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		move := Move{GameID: gameID, Number: number, UCI: uci, Color: color}
		if err := tx.Create(&move).Error; err != nil {
			return err
		}
		return tx.Model(&Game{}).Where("id = ?", gameID).Update("last_seen", time.Now()).Error
	})
}

// PersistedGame is a game together with its moves in play order.
type PersistedGame struct {
	Game  Game
	Moves []string
}

// LoadActive fetches the most recently seen active game.
func (s *Store) LoadActive(ctx context.Context) (*PersistedGame, error) {
	if s == nil {
		return nil, ErrNotFound
	}
	var game Game
	if err := s.db.WithContext(ctx).
		Where("active = ?", true).
		Order("last_seen DESC").
		First(&game).Error; err != nil {
		return nil, err
	}
	var moves []Move
	if err := s.db.WithContext(ctx).
		Where("game_id = ?", game.ID).
		Order("number ASC").
		Find(&moves).Error; err != nil {
		return nil, err
	}
	out := &PersistedGame{Game: game, Moves: make([]string, 0, len(moves))}
	for _, m := range moves {
		out.Moves = append(out.Moves, m.UCI)
	}
	return out, nil
}

// CompleteGame marks a game as finished with the provided status.
func (s *Store) CompleteGame(ctx context.Context, id uuid.UUID, status, fen string, completedAt time.Time) error {
	if s == nil {
		return nil
	}
	return s.db.WithContext(ctx).Model(&Game{}).Where("id = ?", id).Updates(map[string]any{
		"status":       status,
		"fen":          fen,
		"active":       false,
		"completed_at": completedAt,
	}).Error
}

// Abandon marks a game inactive, e.g. when it is reset.
func (s *Store) Abandon(ctx context.Context, id uuid.UUID, when time.Time) error {
	if s == nil {
		return nil
	}
	return s.CompleteGame(ctx, id, "Abandoned", "", when)
}

// IsNotFound reports whether err means no row matched.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}
