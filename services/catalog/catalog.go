// Package catalog manages formations and their modules.
package catalog

import (
	"code212/models/formation"
	"code212/services/apperror"
	"code212/utils/logger"
	"context"
	"fmt"
	"strings"

	"gorm.io/gorm"
)

type Service struct {
	db  *gorm.DB
	log *logger.Logger
}

func New(db *gorm.DB, log *logger.Logger) *Service {
	return &Service{db: db, log: log.With("service", "catalog")}
}

type FormationInput struct {
	Title       string
	Description string
	Level       string
	Category    string
	Duration    int
	Objectives  []string
}

// FormationPatch carries optional updates; nil fields are left untouched.
type FormationPatch struct {
	Title       *string
	Description *string
	Level       *string
	Category    *string
	Duration    *int
	Objectives  *[]string
}

type ListFilter struct {
	Page          int
	Limit         int
	Category      string
	Level         string
	Search        string
	PublishedOnly bool
}

func (f *ListFilter) normalize() {
	if f.Page < 1 {
		f.Page = 1
	}
	if f.Limit < 1 {
		f.Limit = 10
	}
	if f.Limit > 100 {
		f.Limit = 100
	}
}

func activeModules(db *gorm.DB) *gorm.DB {
	return db.Where("is_deleted = ?", false).Order("order_index ASC, id ASC")
}

func (s *Service) CreateFormation(ctx context.Context, in FormationInput) (formation.Formation, error) {
	f := formation.Formation{
		Title:       strings.TrimSpace(in.Title),
		Description: in.Description,
		Level:       in.Level,
		Category:    in.Category,
		Duration:    in.Duration,
		Status:      formation.StatusDraft,
		Objectives:  in.Objectives,
	}
	if f.Title == "" {
		return formation.Formation{}, fmt.Errorf("formation title is required: %w", apperror.ErrInvalid)
	}
	if err := s.db.WithContext(ctx).Create(&f).Error; err != nil {
		return formation.Formation{}, fmt.Errorf("create formation: %w", err)
	}
	s.log.Info("formation created", "formation_id", f.ID, "title", f.Title)
	return f, nil
}

func (s *Service) UpdateFormation(ctx context.Context, id uint, p FormationPatch) (formation.Formation, error) {
	f, err := s.GetFormation(ctx, id, false)
	if err != nil {
		return formation.Formation{}, err
	}

	updates := map[string]interface{}{}
	if p.Title != nil {
		title := strings.TrimSpace(*p.Title)
		if title == "" {
			return formation.Formation{}, fmt.Errorf("formation title is required: %w", apperror.ErrInvalid)
		}
		updates["title"] = title
	}
	if p.Description != nil {
		updates["description"] = *p.Description
	}
	if p.Level != nil {
		updates["level"] = *p.Level
	}
	if p.Category != nil {
		updates["category"] = *p.Category
	}
	if p.Duration != nil {
		updates["duration"] = *p.Duration
	}
	if p.Objectives != nil {
		f.Objectives = *p.Objectives
		updates["objectives"] = f.Objectives
	}
	if len(updates) == 0 {
		return f, nil
	}

	if err := s.db.WithContext(ctx).Model(&formation.Formation{}).Where("id = ?", id).Updates(updates).Error; err != nil {
		return formation.Formation{}, fmt.Errorf("update formation %d: %w", id, err)
	}
	return s.GetFormation(ctx, id, false)
}

// PublishFormation makes a formation visible to learners.
func (s *Service) PublishFormation(ctx context.Context, id uint) (formation.Formation, error) {
	if _, err := s.GetFormation(ctx, id, false); err != nil {
		return formation.Formation{}, err
	}
	if err := s.db.WithContext(ctx).Model(&formation.Formation{}).Where("id = ?", id).
		Update("status", formation.StatusPublished).Error; err != nil {
		return formation.Formation{}, fmt.Errorf("publish formation %d: %w", id, err)
	}
	s.log.Info("formation published", "formation_id", id)
	return s.GetFormation(ctx, id, false)
}

// GetFormation loads a formation with its active modules in order. Draft
// formations are reported as not found when publishedOnly is set.
func (s *Service) GetFormation(ctx context.Context, id uint, publishedOnly bool) (formation.Formation, error) {
	q := s.db.WithContext(ctx).Preload("Modules", activeModules).Where("is_deleted = ?", false)
	if publishedOnly {
		q = q.Where("status = ?", formation.StatusPublished)
	}
	var f formation.Formation
	if err := q.First(&f, id).Error; err != nil {
		return formation.Formation{}, apperror.FromDB(err, "formation", id)
	}
	return f, nil
}

func (s *Service) ListFormations(ctx context.Context, filter ListFilter) ([]formation.Formation, int64, error) {
	filter.normalize()

	q := s.db.WithContext(ctx).Model(&formation.Formation{}).Where("is_deleted = ?", false)
	if filter.PublishedOnly {
		q = q.Where("status = ?", formation.StatusPublished)
	}
	if filter.Category != "" {
		q = q.Where("category = ?", filter.Category)
	}
	if filter.Level != "" {
		q = q.Where("level = ?", filter.Level)
	}
	if filter.Search != "" {
		q = q.Where("LOWER(title) LIKE ?", "%"+strings.ToLower(filter.Search)+"%")
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("count formations: %w", err)
	}

	var formations []formation.Formation
	if err := q.Preload("Modules", activeModules).
		Offset((filter.Page - 1) * filter.Limit).Limit(filter.Limit).
		Order("created_at desc").Find(&formations).Error; err != nil {
		return nil, 0, fmt.Errorf("list formations: %w", err)
	}
	return formations, total, nil
}
