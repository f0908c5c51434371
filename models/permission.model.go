package models

import (
	"gorm.io/gorm"
)

const (
	PermissionManageFormations   = "manage-formations"
	PermissionManageCertificates = "manage-certificates"
	PermissionManageUsers        = "manage-users"
)

type Permission struct {
	gorm.Model
	UserID     uint `gorm:"not null;index"`
	User       User `gorm:"foreignKey:UserID"`
	Role       string
	Permission string `gorm:"type:varchar(255)"` // e.g., "manage-certificates"
	IsDeleted  bool   `gorm:"default:false"`
}

// AdminPermissions are granted to every ADMIN account at signup.
var AdminPermissions = []string{PermissionManageFormations, PermissionManageCertificates, PermissionManageUsers}
