package model

import (
	"time"
)

// History is one recorded notification outcome of a view. The json tags
// follow the notification payload so events decode straight into it.
type History struct {
	ID        uint      `json:"-" gorm:"primaryKey"`
	EventID   string    `json:"-" gorm:"uniqueIndex;not null"`
	View      string    `json:"view" gorm:"column:view_name;index;not null"`
	Type      string    `json:"type" gorm:"column:kind;index;not null"`
	Severity  string    `json:"severity"`
	JobID     string    `json:"job_id,omitempty"`
	ResultID  string    `json:"result_id,omitempty"`
	Title     string    `json:"title"`
	Message   string    `json:"message"`
	Count     int       `json:"count,omitempty"`
	Time      time.Time `json:"time" gorm:"column:occurred_at;index"`
	CreatedAt time.Time `json:"-"`
}

func (History) TableName() string {
	return "history"
}

type HistoryList []History
