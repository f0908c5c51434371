package catalog

import (
	"code212/models/formation"
	"code212/services/apperror"
	"context"
	"database/sql"
	"fmt"
	"strings"

	"gorm.io/gorm"
)

type ModuleInput struct {
	Title       string
	Description string
	Order       *int // appended after the last module when nil
	Duration    int
}

type ModulePatch struct {
	Title       *string
	Description *string
	Order       *int
	Duration    *int
}

func (s *Service) CreateModule(ctx context.Context, formationID uint, in ModuleInput) (formation.Module, error) {
	if _, err := s.GetFormation(ctx, formationID, false); err != nil {
		return formation.Module{}, err
	}
	title := strings.TrimSpace(in.Title)
	if title == "" {
		return formation.Module{}, fmt.Errorf("module title is required: %w", apperror.ErrInvalid)
	}

	mod := formation.Module{
		FormationID: formationID,
		Title:       title,
		Description: in.Description,
		Duration:    in.Duration,
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if in.Order != nil {
			mod.OrderIndex = *in.Order
		} else {
			var maxOrder sql.NullInt64
			if err := tx.Model(&formation.Module{}).
				Where("formation_id = ? AND is_deleted = ?", formationID, false).
				Select("MAX(order_index)").Scan(&maxOrder).Error; err != nil {
				return err
			}
			mod.OrderIndex = 1
			if maxOrder.Valid {
				mod.OrderIndex = int(maxOrder.Int64) + 1
			}
		}
		return tx.Create(&mod).Error
	})
	if err != nil {
		return formation.Module{}, fmt.Errorf("create module: %w", err)
	}
	s.log.Info("module created", "formation_id", formationID, "module_id", mod.ID, "order", mod.OrderIndex)
	return mod, nil
}

func (s *Service) GetModule(ctx context.Context, id uint) (formation.Module, error) {
	var mod formation.Module
	if err := s.db.WithContext(ctx).Where("is_deleted = ?", false).First(&mod, id).Error; err != nil {
		return formation.Module{}, apperror.FromDB(err, "module", id)
	}
	return mod, nil
}

func (s *Service) UpdateModule(ctx context.Context, id uint, p ModulePatch) (formation.Module, error) {
	if _, err := s.GetModule(ctx, id); err != nil {
		return formation.Module{}, err
	}

	updates := map[string]interface{}{}
	if p.Title != nil {
		title := strings.TrimSpace(*p.Title)
		if title == "" {
			return formation.Module{}, fmt.Errorf("module title is required: %w", apperror.ErrInvalid)
		}
		updates["title"] = title
	}
	if p.Description != nil {
		updates["description"] = *p.Description
	}
	if p.Order != nil {
		updates["order_index"] = *p.Order
	}
	if p.Duration != nil {
		updates["duration"] = *p.Duration
	}
	if len(updates) > 0 {
		if err := s.db.WithContext(ctx).Model(&formation.Module{}).Where("id = ?", id).Updates(updates).Error; err != nil {
			return formation.Module{}, fmt.Errorf("update module %d: %w", id, err)
		}
	}
	return s.GetModule(ctx, id)
}

// DeleteModule flags the module as deleted and drops every completion of it,
// so progress is computed over the remaining modules only.
func (s *Service) DeleteModule(ctx context.Context, id uint) error {
	if _, err := s.GetModule(ctx, id); err != nil {
		return err
	}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&formation.Module{}).Where("id = ?", id).Update("is_deleted", true).Error; err != nil {
			return err
		}
		return tx.Where("module_id = ?", id).Delete(&formation.ModuleCompletion{}).Error
	})
	if err != nil {
		return fmt.Errorf("delete module %d: %w", id, err)
	}
	s.log.Info("module deleted", "module_id", id)
	return nil
}
