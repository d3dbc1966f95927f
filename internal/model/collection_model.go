package model

import "time"

// Collection is the registry row for one per-session vector collection.
// The row doubles as the existence marker the gateway probes, so creating
// it must be idempotent (ON CONFLICT DO NOTHING).
type Collection struct {
	Name      string    `gorm:"primaryKey;size:255"`
	Dimension int       `gorm:"not null"`
	CreatedAt time.Time `gorm:"autoCreateTime"`
}

func (Collection) TableName() string {
	return "collections"
}
