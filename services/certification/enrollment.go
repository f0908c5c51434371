package certification

import (
	"code212/models/formation"
	"code212/services/apperror"
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
)

func hasApprovedRegistration(db *gorm.DB, userID, formationID uint) (bool, error) {
	var count int64
	err := db.Model(&formation.FormationRegistration{}).
		Where("user_id = ? AND formation_id = ? AND status = ?", userID, formationID, formation.RegistrationApproved).
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("check registration: %w", err)
	}
	return count > 0, nil
}

// Register enrolls a learner in a published formation. The registration stays
// pending until an administrator approves it.
func (s *Service) Register(ctx context.Context, userID, formationID uint) (formation.FormationRegistration, error) {
	db := s.db.WithContext(ctx)

	var f formation.Formation
	if err := db.Where("is_deleted = ? AND status = ?", false, formation.StatusPublished).
		First(&f, formationID).Error; err != nil {
		return formation.FormationRegistration{}, apperror.FromDB(err, "formation", formationID)
	}

	reg := formation.FormationRegistration{
		UserID:       userID,
		FormationID:  formationID,
		Status:       formation.RegistrationPending,
		RegisteredAt: s.now(),
	}
	if err := db.Create(&reg).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return formation.FormationRegistration{}, fmt.Errorf("already registered to formation %d: %w", formationID, apperror.ErrConflict)
		}
		return formation.FormationRegistration{}, fmt.Errorf("create registration: %w", err)
	}
	s.log.Info("learner registered", "user_id", userID, "formation_id", formationID, "registration_id", reg.ID)
	return reg, nil
}

// Approve marks a registration approved and materializes its certificate row.
// Approving an approved registration is a no-op.
func (s *Service) Approve(ctx context.Context, registrationID uint) (formation.FormationRegistration, error) {
	db := s.db.WithContext(ctx)

	var reg formation.FormationRegistration
	if err := db.First(&reg, registrationID).Error; err != nil {
		return formation.FormationRegistration{}, apperror.FromDB(err, "registration", registrationID)
	}

	if !reg.IsApproved() {
		approvedAt := s.now()
		if err := db.Model(&reg).Updates(map[string]interface{}{
			"status":      formation.RegistrationApproved,
			"approved_at": approvedAt,
		}).Error; err != nil {
			return formation.FormationRegistration{}, fmt.Errorf("approve registration %d: %w", registrationID, err)
		}
		reg.Status = formation.RegistrationApproved
		reg.ApprovedAt = &approvedAt
		s.log.Info("registration approved", "registration_id", reg.ID, "user_id", reg.UserID, "formation_id", reg.FormationID)
	}

	if _, err := s.EnsureCertificate(ctx, reg.UserID, reg.FormationID); err != nil {
		return formation.FormationRegistration{}, err
	}
	return reg, nil
}

type RegistrationFilter struct {
	FormationID uint
	UserID      uint
	Status      string
	Page        int
	Limit       int
}

func (s *Service) ListRegistrations(ctx context.Context, filter RegistrationFilter) ([]formation.FormationRegistration, int64, error) {
	page, limit := normalizePage(filter.Page, filter.Limit)

	q := s.db.WithContext(ctx).Model(&formation.FormationRegistration{})
	if filter.FormationID != 0 {
		q = q.Where("formation_id = ?", filter.FormationID)
	}
	if filter.UserID != 0 {
		q = q.Where("user_id = ?", filter.UserID)
	}
	if filter.Status != "" {
		q = q.Where("status = ?", filter.Status)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("count registrations: %w", err)
	}
	var regs []formation.FormationRegistration
	if err := q.Preload("User").Preload("Formation").
		Offset((page - 1) * limit).Limit(limit).
		Order("registered_at desc, id desc").Find(&regs).Error; err != nil {
		return nil, 0, fmt.Errorf("list registrations: %w", err)
	}
	return regs, total, nil
}

func normalizePage(page, limit int) (int, int) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 10
	}
	if limit > 100 {
		limit = 100
	}
	return page, limit
}
