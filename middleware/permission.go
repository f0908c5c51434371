package middleware

import (
	"code212/database"
	"code212/models"
	"errors"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

// RequireRole rejects tokens whose role claim differs from role
func RequireRole(role string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if r, _ := c.Locals("role").(string); r != role {
			return JsonResponse(c, fiber.StatusForbidden, false, "You do not have permission to access this resource!", nil)
		}
		return c.Next()
	}
}

// CheckPermissionMiddleware returns a middleware that checks if the user has the required permission
func CheckPermissionMiddleware(requiredPermission string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID, ok := c.Locals("userId").(uint)
		if !ok {
			return JsonResponse(c, fiber.StatusUnauthorized, false, "Unauthorized: User ID not found", nil)
		}

		var permission models.Permission
		err := database.Database.Db.WithContext(c.UserContext()).
			Where("user_id = ? AND permission = ? AND is_deleted = false", userID, requiredPermission).
			First(&permission).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return JsonResponse(c, fiber.StatusForbidden, false, "You do not have permission to access this resource!", nil)
			}
			return JsonResponse(c, fiber.StatusInternalServerError, false, "Server error while checking permissions!", nil)
		}

		return c.Next()
	}
}
