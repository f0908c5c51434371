package formation

import (
	"time"

	"gorm.io/gorm"
)

// Certificate is created once per (learner, formation) and generated at most once.
// StudentName and FormationTitle are snapshots taken at generation time.
type Certificate struct {
	gorm.Model
	UserID           uint       `json:"user_id" gorm:"not null;uniqueIndex:idx_certificate_user_formation"`
	FormationID      uint       `json:"formation_id" gorm:"not null;index;uniqueIndex:idx_certificate_user_formation"`
	Code             string     `json:"code" gorm:"uniqueIndex;not null"`
	VerificationCode *string    `json:"verification_code,omitempty" gorm:"uniqueIndex"`
	IsGenerated      bool       `json:"is_generated" gorm:"index;default:false"`
	IssuedDate       *time.Time `json:"issued_date"`
	PDFPath          *string    `json:"pdf_path"`
	PreviewImage     *string    `json:"preview_image"`
	RegisteredDate   time.Time  `json:"registered_date"`
	StudentName      string     `json:"student_name"`
	FormationTitle   string     `json:"formation_title"`
}
