package formation

import "gorm.io/gorm"

// Module is one unit of a formation. OrderIndex need not be contiguous.
type Module struct {
	gorm.Model
	FormationID uint   `json:"formation_id" gorm:"index;not null"`
	Title       string `json:"title" gorm:"not null"`
	Description string `json:"description"`
	OrderIndex  int    `json:"order" gorm:"default:0"`
	Duration    int    `json:"duration" gorm:"default:0"` // hours
	IsDeleted   bool   `json:"-" gorm:"default:false"`
}
