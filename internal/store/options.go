package store

import (
	"time"

	"gorm.io/gorm"
)

type BaseQuerier struct {
	QueryFn []func(tx *gorm.DB) *gorm.DB
}

type HistoryQueryFilter BaseQuerier

func NewHistoryQueryFilter() *HistoryQueryFilter {
	return &HistoryQueryFilter{QueryFn: make([]func(tx *gorm.DB) *gorm.DB, 0)}
}

func (qf *HistoryQueryFilter) ByView(view string) *HistoryQueryFilter {
	qf.QueryFn = append(qf.QueryFn, func(tx *gorm.DB) *gorm.DB {
		return tx.Where("view_name = ?", view)
	})
	return qf
}

func (qf *HistoryQueryFilter) ByType(types ...string) *HistoryQueryFilter {
	qf.QueryFn = append(qf.QueryFn, func(tx *gorm.DB) *gorm.DB {
		return tx.Where("kind IN ?", types)
	})
	return qf
}

func (qf *HistoryQueryFilter) Since(t time.Time) *HistoryQueryFilter {
	qf.QueryFn = append(qf.QueryFn, func(tx *gorm.DB) *gorm.DB {
		return tx.Where("occurred_at >= ?", t)
	})
	return qf
}

type HistoryQueryOptions BaseQuerier

func NewHistoryQueryOptions() *HistoryQueryOptions {
	return &HistoryQueryOptions{QueryFn: make([]func(tx *gorm.DB) *gorm.DB, 0)}
}

// WithLimit caps the number of returned records. Zero or less means no limit.
func (o *HistoryQueryOptions) WithLimit(limit int) *HistoryQueryOptions {
	o.QueryFn = append(o.QueryFn, func(tx *gorm.DB) *gorm.DB {
		if limit <= 0 {
			return tx
		}
		return tx.Limit(limit)
	})
	return o
}
