package store

import (
	"context"
	"errors"

	"github.com/salesdeck/insight-console/internal/store/model"
	"gorm.io/gorm"
)

type History interface {
	Create(ctx context.Context, record model.History) (*model.History, error)
	List(ctx context.Context, filter *HistoryQueryFilter, opts *HistoryQueryOptions) (model.HistoryList, error)
	Count(ctx context.Context, filter *HistoryQueryFilter) (int64, error)
	InitialMigration(ctx context.Context) error
}

type HistoryStore struct {
	db *gorm.DB
}

var _ History = (*HistoryStore)(nil)

func NewHistoryStore(db *gorm.DB) History {
	return &HistoryStore{db: db}
}

func (h *HistoryStore) InitialMigration(ctx context.Context) error {
	return h.db.WithContext(ctx).AutoMigrate(&model.History{})
}

func (h *HistoryStore) Create(ctx context.Context, record model.History) (*model.History, error) {
	result := h.db.WithContext(ctx).Create(&record)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrDuplicatedKey) {
			return nil, ErrDuplicateKey
		}
		return nil, result.Error
	}
	return &record, nil
}

// List returns the records matching filter, most recent first.
func (h *HistoryStore) List(ctx context.Context, filter *HistoryQueryFilter, opts *HistoryQueryOptions) (model.HistoryList, error) {
	var records model.HistoryList
	tx := h.db.WithContext(ctx).Model(&model.History{}).Order("occurred_at DESC").Order("id DESC")

	if filter != nil {
		for _, fn := range filter.QueryFn {
			tx = fn(tx)
		}
	}
	if opts != nil {
		for _, fn := range opts.QueryFn {
			tx = fn(tx)
		}
	}

	if err := tx.Find(&records).Error; err != nil {
		return nil, err
	}
	return records, nil
}

func (h *HistoryStore) Count(ctx context.Context, filter *HistoryQueryFilter) (int64, error) {
	var count int64
	tx := h.db.WithContext(ctx).Model(&model.History{})
	if filter != nil {
		for _, fn := range filter.QueryFn {
			tx = fn(tx)
		}
	}
	if err := tx.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}
