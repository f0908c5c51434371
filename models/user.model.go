package models

import (
	"time"

	"gorm.io/gorm"
)

const (
	RoleStudent = "STUDENT"
	RoleAdmin   = "ADMIN"
)

type User struct {
	gorm.Model
	Name                string     `json:"name" gorm:"default:''"`
	Email               string     `json:"email" gorm:"unique;not null"`
	Role                string     `json:"role" gorm:"default:'STUDENT'"` // STUDENT or ADMIN
	Password            string     `json:"-" gorm:"not null"`
	Institution         string     `json:"institution" gorm:"default:''"`
	LastLogin           *time.Time `json:"last_login"`
	FailedLoginAttempts int        `json:"-" gorm:"default:0"`
	LastFailedLogin     *time.Time `json:"-"`
	IsBlocked           bool       `json:"-" gorm:"default:false"`
	BlockedUntil        *time.Time `json:"-"`
	IsDeleted           bool       `json:"-" gorm:"default:false"`
}
