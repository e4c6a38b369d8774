package store

import (
	"context"

	"gorm.io/gorm"
)

type Store interface {
	History() History
	InitialMigration(ctx context.Context) error
	Close() error
}

type DataStore struct {
	db      *gorm.DB
	history History
}

func NewStore(db *gorm.DB) Store {
	return &DataStore{
		db:      db,
		history: NewHistoryStore(db),
	}
}

func (s *DataStore) History() History {
	return s.history
}

func (s *DataStore) InitialMigration(ctx context.Context) error {
	return s.history.InitialMigration(ctx)
}

func (s *DataStore) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
