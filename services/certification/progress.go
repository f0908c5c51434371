package certification

import (
	"code212/models/formation"
	"code212/services/apperror"
	"context"
	"fmt"
	"math"

	"gorm.io/gorm"
)

type Progress struct {
	CompletedCount int  `json:"completed_count"`
	TotalCount     int  `json:"total_count"`
	Percentage     int  `json:"percentage"`
	Complete       bool `json:"complete"`
}

// ComputeProgress rounds half away from zero, so 2 of 3 gives 67. A formation
// without modules is at 0 and never complete.
func ComputeProgress(completed, total int) Progress {
	p := Progress{CompletedCount: completed, TotalCount: total}
	if total <= 0 {
		return p
	}
	p.Percentage = int(math.Round(100 * float64(completed) / float64(total)))
	p.Complete = completed == total
	return p
}

// CanGenerate reports whether a certificate may be issued.
func CanGenerate(approved bool, completed, total int) bool {
	return approved && total > 0 && completed == total
}

type Eligibility struct {
	Approved    bool     `json:"approved"`
	Progress    Progress `json:"progress"`
	CanGenerate bool     `json:"can_generate"`
}

// Progress returns the learner's completion of a formation's active modules.
func (s *Service) Progress(ctx context.Context, userID, formationID uint) (Progress, error) {
	db := s.db.WithContext(ctx)
	if err := requireFormation(db, formationID); err != nil {
		return Progress{}, err
	}
	return countProgress(db, userID, formationID)
}

func requireFormation(db *gorm.DB, formationID uint) error {
	var f formation.Formation
	err := db.Select("id").Where("is_deleted = ?", false).First(&f, formationID).Error
	return apperror.FromDB(err, "formation", formationID)
}

func countProgress(db *gorm.DB, userID, formationID uint) (Progress, error) {
	var total int64
	if err := db.Model(&formation.Module{}).
		Where("formation_id = ? AND is_deleted = ?", formationID, false).
		Count(&total).Error; err != nil {
		return Progress{}, fmt.Errorf("count modules: %w", err)
	}

	var completed int64
	if err := db.Model(&formation.ModuleCompletion{}).
		Joins("JOIN modules ON modules.id = module_completions.module_id").
		Where("module_completions.user_id = ? AND modules.formation_id = ?", userID, formationID).
		Where("modules.is_deleted = ? AND modules.deleted_at IS NULL", false).
		Count(&completed).Error; err != nil {
		return Progress{}, fmt.Errorf("count completions: %w", err)
	}
	return ComputeProgress(int(completed), int(total)), nil
}

// Eligibility loads the facts CanGenerate needs.
func (s *Service) Eligibility(ctx context.Context, userID, formationID uint) (Eligibility, error) {
	db := s.db.WithContext(ctx)
	if err := requireFormation(db, formationID); err != nil {
		return Eligibility{}, err
	}
	return eligibility(db, userID, formationID)
}

func eligibility(db *gorm.DB, userID, formationID uint) (Eligibility, error) {
	approved, err := hasApprovedRegistration(db, userID, formationID)
	if err != nil {
		return Eligibility{}, err
	}
	p, err := countProgress(db, userID, formationID)
	if err != nil {
		return Eligibility{}, err
	}
	return Eligibility{
		Approved:    approved,
		Progress:    p,
		CanGenerate: CanGenerate(approved, p.CompletedCount, p.TotalCount),
	}, nil
}

type ModuleStatus struct {
	formation.Module
	Completed bool `json:"completed"`
}

// Overview is a learner's view of one formation.
type Overview struct {
	Formation     formation.Formation              `json:"formation"`
	Modules       []ModuleStatus                   `json:"modules"`
	Registration  *formation.FormationRegistration `json:"registration"`
	Progress      Progress                         `json:"progress"`
	CanGenerate   bool                             `json:"can_generate"`
	CertificateID *uint                            `json:"certificate_id"`
}

// Overview decorates f, loaded with its modules, with the learner's state.
func (s *Service) Overview(ctx context.Context, userID uint, f formation.Formation) (Overview, error) {
	db := s.db.WithContext(ctx)

	moduleIDs := make([]uint, 0, len(f.Modules))
	for _, m := range f.Modules {
		moduleIDs = append(moduleIDs, m.ID)
	}
	done := map[uint]bool{}
	if len(moduleIDs) > 0 {
		var completions []formation.ModuleCompletion
		if err := db.Where("user_id = ? AND module_id IN ?", userID, moduleIDs).Find(&completions).Error; err != nil {
			return Overview{}, fmt.Errorf("load completions: %w", err)
		}
		for _, c := range completions {
			done[c.ModuleID] = true
		}
	}

	out := Overview{Formation: f, Modules: make([]ModuleStatus, 0, len(f.Modules))}
	for _, m := range f.Modules {
		out.Modules = append(out.Modules, ModuleStatus{Module: m, Completed: done[m.ID]})
	}
	out.Formation.Modules = nil

	var reg formation.FormationRegistration
	err := db.Where("user_id = ? AND formation_id = ?", userID, f.ID).Limit(1).Find(&reg).Error
	if err != nil {
		return Overview{}, fmt.Errorf("load registration: %w", err)
	}
	if reg.ID != 0 {
		out.Registration = &reg
	}

	out.Progress = ComputeProgress(len(done), len(f.Modules))
	out.CanGenerate = CanGenerate(reg.IsApproved(), len(done), len(f.Modules))

	var cert formation.Certificate
	if err := db.Select("id").Where("user_id = ? AND formation_id = ?", userID, f.ID).Limit(1).Find(&cert).Error; err != nil {
		return Overview{}, fmt.Errorf("load certificate: %w", err)
	}
	if cert.ID != 0 {
		out.CertificateID = &cert.ID
	}
	return out, nil
}
