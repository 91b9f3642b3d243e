// Package directory publishes session summaries to an external
// metadata store so the web lobby can discover rooms. The room core
// never depends on it for correctness: writes are best-effort and a
// missing store degrades to in-process discovery only.
package directory

import (
	"context"
	"time"

	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/playnowemulator/room-server/internal/session"
)

type Store interface {
	Upsert(ctx context.Context, s session.Summary) error
	Remove(ctx context.Context, roomID string) error
}

// Noop is used when no database is configured.
type Noop struct{}

func (Noop) Upsert(context.Context, session.Summary) error { return nil }
func (Noop) Remove(context.Context, string) error          { return nil }

type sessionRecord struct {
	RoomID         string `gorm:"primaryKey;column:room_id"`
	SessionName    string
	GameID         string
	GameTitle      string
	GamePlatform   string
	HostName       string
	CurrentPlayers int
	MaxPlayers     int
	Status         string
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

func (sessionRecord) TableName() string { return "game_sessions" }

type Postgres struct {
	db  *gorm.DB
	log *zap.Logger
}

func NewPostgres(dsn string, log *zap.Logger) (*Postgres, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		return nil, err
	}
	if err := db.AutoMigrate(&sessionRecord{}); err != nil {
		return nil, err
	}
	log.Info("session directory connected")
	return &Postgres{db: db, log: log}, nil
}

func (p *Postgres) Upsert(ctx context.Context, s session.Summary) error {
	rec := sessionRecord{
		RoomID:         s.RoomID,
		SessionName:    s.SessionName,
		GameID:         s.GameID,
		GameTitle:      s.GameTitle,
		GamePlatform:   s.GamePlatform,
		HostName:       s.HostName,
		CurrentPlayers: s.CurrentPlayers,
		MaxPlayers:     s.MaxPlayers,
		Status:         string(s.Status),
		CreatedAt:      s.CreatedAt,
	}
	return p.db.WithContext(ctx).
		Clauses(clause.OnConflict{UpdateAll: true}).
		Create(&rec).Error
}

func (p *Postgres) Remove(ctx context.Context, roomID string) error {
	return p.db.WithContext(ctx).
		Delete(&sessionRecord{}, "room_id = ?", roomID).Error
}
