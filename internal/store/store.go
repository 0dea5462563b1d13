package store

import (
	"context"
	"errors"
	"time"

	"github.com/DoyleJ11/chessmate-smoke/internal/driver"
	"go.uber.org/multierr"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var ErrNoDSN = errors.New("no database dsn")

// Run is one smoke run as persisted.
type Run struct {
	ID         uint   `gorm:"primaryKey"`
	PlayerID   string `gorm:"index;not null"`
	Endpoint   string `gorm:"not null"`
	Completed  bool   `gorm:"not null"`
	Result     string
	Reason     string
	FinalState string `gorm:"not null"`
	OpponentID string
	StartedAt  time.Time `gorm:"not null"`
	FinishedAt time.Time `gorm:"not null"`
	Transcript string    `gorm:"type:text"`
}

func (Run) TableName() string { return "smoke_runs" }

// FromOutcome flattens a driver outcome into a row.
func FromOutcome(o driver.Outcome) Run {
	r := Run{
		PlayerID:   o.Session.PlayerID,
		Endpoint:   o.Endpoint,
		Completed:  o.Completed,
		Result:     o.Result,
		Reason:     o.Reason,
		FinalState: o.Session.Label(),
		OpponentID: o.Session.OpponentID,
		StartedAt:  o.Started,
		FinishedAt: o.Finished,
	}
	if o.Transcript != nil {
		r.Transcript = o.Transcript.String()
		if r.PlayerID == "" {
			r.PlayerID = o.Transcript.Player()
		}
	}
	return r
}

type Store struct {
	db  *gorm.DB
	log *zap.Logger
}

// Open connects to Postgres and migrates the schema.
func Open(dsn string, log *zap.Logger) (*Store, error) {
	if dsn == "" {
		return nil, ErrNoDSN
	}
	if log == nil {
		log = zap.NewNop()
	}
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, err
	}
	s := New(db, log)
	if err := db.AutoMigrate(&Run{}); err != nil {
		return nil, multierr.Append(err, s.Close())
	}
	return s, nil
}

// New wraps an existing gorm handle without migrating.
func New(db *gorm.DB, log *zap.Logger) *Store {
	if log == nil {
		log = zap.NewNop()
	}
	return &Store{db: db, log: log}
}

// Save records every outcome with a single batch insert and fills in their ids.
func (s *Store) Save(ctx context.Context, outcomes ...driver.Outcome) ([]Run, error) {
	runs := make([]Run, 0, len(outcomes))
	for _, o := range outcomes {
		runs = append(runs, FromOutcome(o))
	}
	if len(runs) == 0 {
		return nil, nil
	}
	if err := s.db.WithContext(ctx).Create(&runs).Error; err != nil {
		return nil, err
	}
	s.log.Debug("runs saved", zap.Int("count", len(runs)))
	return runs, nil
}

// Recent returns the latest runs for a player, newest first.
func (s *Store) Recent(ctx context.Context, playerID string, limit int) ([]Run, error) {
	var runs []Run
	err := s.db.WithContext(ctx).
		Where("player_id = ?", playerID).
		Order("started_at DESC").
		Limit(limit).
		Find(&runs).Error
	return runs, err
}

func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
