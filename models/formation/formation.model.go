package formation

import (
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const (
	StatusDraft     = "draft"
	StatusPublished = "published"
)

// Formation is a course offered by the lab, made of ordered modules.
type Formation struct {
	gorm.Model
	Title       string                      `json:"title" gorm:"not null"`
	Description string                      `json:"description"`
	Level       string                      `json:"level"`
	Category    string                      `json:"category" gorm:"index"`
	Duration    int                         `json:"duration" gorm:"default:0"` // hours
	Status      string                      `json:"status" gorm:"index;default:'draft'"`
	Objectives  datatypes.JSONSlice[string] `json:"objectives"`
	Modules     []Module                    `json:"modules,omitempty" gorm:"foreignKey:FormationID"`
	IsDeleted   bool                        `json:"-" gorm:"default:false"`
}
