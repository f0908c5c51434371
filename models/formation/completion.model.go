package formation

import "time"

// ModuleCompletion marks a module as done by a learner. The row existing is the
// completed state, so it is hard deleted when toggled off.
type ModuleCompletion struct {
	ID          uint      `json:"id" gorm:"primaryKey"`
	UserID      uint      `json:"user_id" gorm:"not null;uniqueIndex:idx_completion_user_module"`
	ModuleID    uint      `json:"module_id" gorm:"not null;uniqueIndex:idx_completion_user_module;index"`
	CompletedAt time.Time `json:"completed_at"`
}
