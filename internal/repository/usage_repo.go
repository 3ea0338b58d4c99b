package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/qs3c/notemeet_server/internal/model"
)

type UsageRepository struct {
	db *gorm.DB
}

func NewUsageRepository(db *gorm.DB) *UsageRepository {
	return &UsageRepository{db: db}
}

func (r *UsageRepository) Create(ctx context.Context, rec *model.UsageRecord) error {
	return r.db.WithContext(ctx).Create(rec).Error
}

type metricTotal struct {
	Metric string
	Total  int64
}

// SumByMetric 统计 [from, to) 区间内用户各项用量
func (r *UsageRepository) SumByMetric(ctx context.Context, userID int64, from, to time.Time) (map[string]int64, error) {
	var rows []metricTotal
	err := r.db.WithContext(ctx).Model(&model.UsageRecord{}).
		Select("metric, SUM(amount) AS total").
		Where("user_id = ? AND recorded_at >= ? AND recorded_at < ?", userID, from, to).
		Group("metric").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	totals := make(map[string]int64, len(rows))
	for _, row := range rows {
		totals[row.Metric] = row.Total
	}
	return totals, nil
}
