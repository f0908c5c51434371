package userController

import (
	"code212/middleware"
	"code212/models"
	"code212/utils/logger"
	userValidator "code212/validators/user"
	"errors"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

// Controller serves the user routes.
type Controller struct {
	DB  *gorm.DB
	Log *logger.Logger
}

func NewController(db *gorm.DB, log *logger.Logger) *Controller {
	return &Controller{DB: db, Log: log.With("controller", "user")}
}

// UserList lists accounts for administrators
func (ctl *Controller) UserList(c *fiber.Ctx) error {
	reqData, ok := c.Locals("validateUserList").(*userValidator.ListQuery)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request data!", nil)
	}
	page, limit := reqData.Page, reqData.Limit
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 10
	}

	query := ctl.DB.WithContext(c.UserContext()).
		Model(&models.User{}).
		Where("is_deleted = ?", false)
	if reqData.Role != "" {
		query = query.Where("role = ?", reqData.Role)
	}
	if reqData.Search != "" {
		like := "%" + reqData.Search + "%"
		query = query.Where("name LIKE ? OR email LIKE ? OR institution LIKE ?", like, like, like)
	}
	if reqData.Blocked != nil {
		query = query.Where("is_blocked = ?", *reqData.Blocked)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		ctl.Log.Error("count users failed", "error", err)
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to fetch user list!", nil)
	}

	var users []models.User
	if err := query.Order("id desc").Offset((page - 1) * limit).Limit(limit).Find(&users).Error; err != nil {
		ctl.Log.Error("list users failed", "error", err)
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to fetch user list!", nil)
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "User List.", fiber.Map{
		"users": users,
		"pagination": fiber.Map{
			"total": total,
			"page":  page,
			"limit": limit,
		},
	})
}

// PermissionsByUserID returns the active permissions of an account
func (ctl *Controller) PermissionsByUserID(c *fiber.Ctx) error {
	id := c.Locals("id").(uint)
	db := ctl.DB.WithContext(c.UserContext())

	if err := db.Where("is_deleted = ?", false).First(&models.User{}, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return middleware.JsonResponse(c, fiber.StatusNotFound, false, "User not found!", nil)
		}
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to fetch permissions!", nil)
	}

	var permissions []string
	if err := db.Model(&models.Permission{}).
		Where("user_id = ? AND is_deleted = ?", id, false).
		Order("permission asc").
		Pluck("permission", &permissions).Error; err != nil {
		ctl.Log.Error("list permissions failed", "user_id", id, "error", err)
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to fetch permissions!", nil)
	}
	return middleware.JsonResponse(c, fiber.StatusOK, true, "Permissions fetched successfully.", fiber.Map{
		"user_id":     id,
		"permissions": permissions,
	})
}

// Unblock clears a login lockout before it expires
func (ctl *Controller) Unblock(c *fiber.Ctx) error {
	id := c.Locals("id").(uint)

	res := ctl.DB.WithContext(c.UserContext()).
		Model(&models.User{}).
		Where("id = ? AND is_deleted = ?", id, false).
		Updates(map[string]interface{}{
			"is_blocked":            false,
			"blocked_until":         nil,
			"failed_login_attempts": 0,
		})
	if res.Error != nil {
		ctl.Log.Error("unblock user failed", "user_id", id, "error", res.Error)
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to unblock user!", nil)
	}
	if res.RowsAffected == 0 {
		return middleware.JsonResponse(c, fiber.StatusNotFound, false, "User not found!", nil)
	}

	ctl.Log.Info("user unblocked", "user_id", id, "by", c.Locals("userId"))
	return middleware.JsonResponse(c, fiber.StatusOK, true, "User unblocked.", nil)
}

// UpdateProfile lets a learner fix the name printed on future certificates
func (ctl *Controller) UpdateProfile(c *fiber.Ctx) error {
	userId, ok := c.Locals("userId").(uint)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "Unauthorized!", nil)
	}
	reqData, ok := c.Locals("validatedProfile").(*userValidator.UpdateProfileRequest)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request body!", nil)
	}

	updates := map[string]interface{}{}
	if reqData.Name != nil {
		updates["name"] = *reqData.Name
	}
	if reqData.Institution != nil {
		updates["institution"] = *reqData.Institution
	}

	db := ctl.DB.WithContext(c.UserContext())
	if err := db.Model(&models.User{}).Where("id = ? AND is_deleted = ?", userId, false).Updates(updates).Error; err != nil {
		ctl.Log.Error("update profile failed", "user_id", userId, "error", err)
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to update profile!", nil)
	}

	var user models.User
	if err := db.First(&user, userId).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusNotFound, false, "User not found!", nil)
	}
	return middleware.JsonResponse(c, fiber.StatusOK, true, "Profile updated successfully.", user)
}
