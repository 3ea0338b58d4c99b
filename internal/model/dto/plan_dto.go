package dto

// CreatePlanRequest 创建套餐请求
type CreatePlanRequest struct {
	Name                    string `json:"name" binding:"required,max=50"`
	Description             string `json:"description"`
	PriceCents              int64  `json:"price_cents" binding:"gte=0"`
	Currency                string `json:"currency" binding:"omitempty,len=3"`
	Interval                string `json:"interval" binding:"omitempty,oneof=month year"`
	MaxMeetings             int64  `json:"max_meetings" binding:"gte=-1"`
	MaxTranscriptionMinutes int64  `json:"max_transcription_minutes" binding:"gte=-1"`
	MaxAISummaries          int64  `json:"max_ai_summaries" binding:"gte=-1"`
	IsActive                *bool  `json:"is_active"`
}
