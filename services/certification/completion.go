package certification

import (
	"code212/models/formation"
	"code212/services/apperror"
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
)

// ToggleCompletion flips the learner's completion of a module and returns the
// new state. Only learners with an approved enrollment in the module's
// formation may toggle.
func (s *Service) ToggleCompletion(ctx context.Context, userID, moduleID uint) (bool, error) {
	db := s.db.WithContext(ctx)

	var mod formation.Module
	if err := db.Where("is_deleted = ?", false).First(&mod, moduleID).Error; err != nil {
		return false, apperror.FromDB(err, "module", moduleID)
	}

	approved, err := hasApprovedRegistration(db, userID, mod.FormationID)
	if err != nil {
		return false, err
	}
	if !approved {
		return false, fmt.Errorf("formation %d: %w", mod.FormationID, apperror.ErrNotEnrolled)
	}

	res := db.Where("user_id = ? AND module_id = ?", userID, moduleID).Delete(&formation.ModuleCompletion{})
	if res.Error != nil {
		return false, fmt.Errorf("remove completion: %w", res.Error)
	}
	if res.RowsAffected > 0 {
		s.log.Debug("module completion removed", "user_id", userID, "module_id", moduleID)
		return false, nil
	}

	completion := formation.ModuleCompletion{UserID: userID, ModuleID: moduleID, CompletedAt: s.now()}
	if err := db.Create(&completion).Error; err != nil {
		// A concurrent toggle already inserted the row.
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return true, nil
		}
		return false, fmt.Errorf("record completion: %w", err)
	}
	s.log.Debug("module completed", "user_id", userID, "module_id", moduleID)
	return true, nil
}
