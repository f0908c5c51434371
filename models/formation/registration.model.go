package formation

import (
	"code212/models"
	"time"

	"gorm.io/gorm"
)

const (
	RegistrationPending  = "pending"
	RegistrationApproved = "approved"
)

// FormationRegistration links a learner to a formation.
type FormationRegistration struct {
	gorm.Model
	UserID       uint         `json:"user_id" gorm:"not null;uniqueIndex:idx_registration_user_formation"`
	FormationID  uint         `json:"formation_id" gorm:"not null;uniqueIndex:idx_registration_user_formation"`
	Status       string       `json:"status" gorm:"index;default:'pending'"`
	RegisteredAt time.Time    `json:"registered_at"`
	ApprovedAt   *time.Time   `json:"approved_at"`
	User         *models.User `json:"user,omitempty" gorm:"foreignKey:UserID"`
	Formation    *Formation   `json:"formation,omitempty" gorm:"foreignKey:FormationID"`
}

func (r FormationRegistration) IsApproved() bool {
	return r.Status == RegistrationApproved
}
