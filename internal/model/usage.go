package model

import (
	"time"
)

// UsageRecord 用量记录，由会议和转写流程写入
type UsageRecord struct {
	ID         int64     `gorm:"primaryKey" json:"id"`
	UserID     int64     `gorm:"not null;index:idx_usage_user_time,priority:1" json:"user_id"`
	Metric     string    `gorm:"size:50;not null" json:"metric"`
	Amount     int64     `gorm:"not null;default:0" json:"amount"`
	RecordedAt time.Time `gorm:"not null;index:idx_usage_user_time,priority:2" json:"recorded_at"`
}

func (UsageRecord) TableName() string {
	return "usage_records"
}
