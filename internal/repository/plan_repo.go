package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/qs3c/notemeet_server/internal/model"
)

type PlanRepository struct {
	db *gorm.DB
}

func NewPlanRepository(db *gorm.DB) *PlanRepository {
	return &PlanRepository{db: db}
}

func (r *PlanRepository) Create(ctx context.Context, plan *model.Plan) error {
	return r.db.WithContext(ctx).Create(plan).Error
}

// List 返回全部套餐，不过滤不分页
func (r *PlanRepository) List(ctx context.Context) ([]model.Plan, error) {
	plans := make([]model.Plan, 0)
	err := r.db.WithContext(ctx).Order("id ASC").Find(&plans).Error
	return plans, err
}

func (r *PlanRepository) GetByID(ctx context.Context, id int64) (*model.Plan, error) {
	var plan model.Plan
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&plan).Error
	if err != nil {
		return nil, err
	}
	return &plan, nil
}

func (r *PlanRepository) ExistsByName(ctx context.Context, name string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&model.Plan{}).Where("name = ?", name).Count(&count).Error
	return count > 0, err
}
