package model

import (
	"time"
)

// 额度名称，同时作为 LimitSet 的 key
const (
	LimitMeetings             = "meetings"
	LimitTranscriptionMinutes = "transcription_minutes"
	LimitAISummaries          = "ai_summaries"
)

// LimitNames 所有额度名称，顺序固定
var LimitNames = []string{
	LimitMeetings,
	LimitTranscriptionMinutes,
	LimitAISummaries,
}

// Unlimited 表示该项额度不限
const Unlimited int64 = -1

type Plan struct {
	ID                      int64     `gorm:"primaryKey" json:"id"`
	Name                    string    `gorm:"size:50;uniqueIndex;not null" json:"name"`
	Description             string    `gorm:"type:text" json:"description"`
	PriceCents              int64     `gorm:"not null;default:0" json:"price_cents"`
	Currency                string    `gorm:"size:3;not null;default:USD" json:"currency"`
	Interval                string    `gorm:"size:10;not null;default:month" json:"interval"` // month, year
	MaxMeetings             int64     `gorm:"not null;default:0" json:"max_meetings"`
	MaxTranscriptionMinutes int64     `gorm:"not null;default:0" json:"max_transcription_minutes"`
	MaxAISummaries          int64     `gorm:"column:max_ai_summaries;not null;default:0" json:"max_ai_summaries"`
	IsActive                bool      `gorm:"not null" json:"is_active"`
	CreatedAt               time.Time `json:"created_at"`
	UpdatedAt               time.Time `json:"updated_at"`
}

func (Plan) TableName() string {
	return "plans"
}

// Limits 以额度名称为 key 返回该套餐的上限
func (p *Plan) Limits() map[string]int64 {
	return map[string]int64{
		LimitMeetings:             p.MaxMeetings,
		LimitTranscriptionMinutes: p.MaxTranscriptionMinutes,
		LimitAISummaries:          p.MaxAISummaries,
	}
}
