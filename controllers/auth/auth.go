package authController

import (
	"code212/config"
	"code212/middleware"
	"code212/models"
	"code212/utils/logger"
	authValidator "code212/validators/auth"
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// Controller serves the auth routes.
type Controller struct {
	DB  *gorm.DB
	Log *logger.Logger
}

func NewController(db *gorm.DB, log *logger.Logger) *Controller {
	return &Controller{DB: db, Log: log.With("controller", "auth")}
}

const (
	maxFailedLogins = 3
	blockDuration   = time.Minute
	failureWindow   = 15 * time.Minute
)

// Signup creates a STUDENT account. An ADMIN account can only be created while
// no administrator exists yet.
func (ctl *Controller) Signup(c *fiber.Ctx) error {
	reqData, ok := c.Locals("validatedUser").(*authValidator.SignupRequest)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request body!", nil)
	}

	db := ctl.DB.WithContext(c.UserContext())

	// Check if email already exists
	if err := db.Where("email = ?", reqData.Email).First(&models.User{}).Error; err == nil {
		return middleware.JsonResponse(c, fiber.StatusConflict, false, "Email is already registered!", nil)
	}

	role := models.RoleStudent
	if reqData.Role == models.RoleAdmin {
		var admins int64
		if err := db.Model(&models.User{}).Where("role = ?", models.RoleAdmin).Count(&admins).Error; err != nil {
			ctl.Log.Error("count admins failed", "error", err)
			return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to process your request!", nil)
		}
		if admins > 0 {
			return middleware.JsonResponse(c, fiber.StatusForbidden, false, "Administrator accounts are created by an administrator!", nil)
		}
		role = models.RoleAdmin
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(reqData.Password), config.AppConfig.SaltRound)
	if err != nil {
		ctl.Log.Error("hashing password failed", "error", err)
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to process your request!", nil)
	}

	newUser := models.User{
		Name:        reqData.Name,
		Email:       reqData.Email,
		Institution: reqData.Institution,
		Role:        role,
		Password:    string(hashedPassword),
	}

	err = db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&newUser).Error; err != nil {
			return err
		}
		return SeedPermissions(tx, newUser.Role, newUser.ID)
	})
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return middleware.JsonResponse(c, fiber.StatusConflict, false, "Email is already registered!", nil)
	}
	if err != nil {
		ctl.Log.Error("saving user failed", "email", newUser.Email, "error", err)
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to Signup user!", nil)
	}

	ctl.Log.Info("user registered", "user_id", newUser.ID, "role", newUser.Role)
	return middleware.JsonResponse(c, fiber.StatusCreated, true, "User registered successfully.", newUser)
}

// SeedPermissions seeds default permissions for a given role and user ID
func SeedPermissions(db *gorm.DB, role string, userID uint) error {
	if role != models.RoleAdmin {
		return nil
	}

	var permissionRecords []models.Permission
	for _, p := range models.AdminPermissions {
		permissionRecords = append(permissionRecords, models.Permission{
			UserID:     userID,
			Role:       role,
			Permission: p,
		})
	}
	return db.Create(&permissionRecords).Error
}

func (ctl *Controller) Login(c *fiber.Ctx) error {
	reqData, ok := c.Locals("validatedUser").(*authValidator.LoginRequest)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Failed to parse request body!", nil)
	}

	db := ctl.DB.WithContext(c.UserContext())

	var user models.User
	if err := db.Where("email = ? AND is_deleted = ?", reqData.Email, false).First(&user).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "Invalid credentials!", nil)
	}

	now := time.Now()

	// Check if the user is blocked
	if user.IsBlocked && user.BlockedUntil != nil && user.BlockedUntil.After(now) {
		return middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "Your account is temporarily blocked. Try again later.", nil)
	}

	if user.LastFailedLogin != nil && now.Sub(*user.LastFailedLogin) > failureWindow {
		user.FailedLoginAttempts = 0
		user.LastFailedLogin = nil
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(reqData.Password)); err != nil {
		user.FailedLoginAttempts++
		user.LastFailedLogin = &now

		if user.FailedLoginAttempts >= maxFailedLogins {
			user.IsBlocked = true
			unblockTime := now.Add(blockDuration)
			user.BlockedUntil = &unblockTime
			user.FailedLoginAttempts = 0
			ctl.Log.Warn("account blocked after failed logins", "user_id", user.ID)
		}
		if err := db.Save(&user).Error; err != nil {
			ctl.Log.Error("saving failed login failed", "user_id", user.ID, "error", err)
		}
		return middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "Wrong Password", nil)
	}

	user.LastLogin = &now
	user.FailedLoginAttempts = 0
	user.IsBlocked = false
	user.BlockedUntil = nil
	if err := db.Save(&user).Error; err != nil {
		ctl.Log.Error("saving last login failed", "user_id", user.ID, "error", err)
	}

	token, err := middleware.GenerateJWT(user.ID, user.Name, user.Role, user.Email)
	if err != nil {
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to generate token", nil)
	}

	tracking := models.LoginTracking{
		UserID:    user.ID,
		IPAddress: c.IP(),
		Device:    c.Get(fiber.HeaderUserAgent),
		Timestamp: now,
	}
	if err := db.Create(&tracking).Error; err != nil {
		ctl.Log.Error("saving login tracking failed", "user_id", user.ID, "error", err)
	}

	ctl.Log.Info("user logged in", "user_id", user.ID, "ip", tracking.IPAddress)
	return middleware.JsonResponse(c, fiber.StatusOK, true, "Login successful.", fiber.Map{
		"user":  user,
		"token": token,
	})
}

// Profile returns the authenticated user
func (ctl *Controller) Profile(c *fiber.Ctx) error {
	userId, ok := c.Locals("userId").(uint)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "Unauthorized!", nil)
	}

	var user models.User
	if err := ctl.DB.WithContext(c.UserContext()).
		Where("is_deleted = ?", false).First(&user, userId).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusNotFound, false, "User not found!", nil)
	}
	return middleware.JsonResponse(c, fiber.StatusOK, true, "Profile fetched successfully.", user)
}

// LoginHistoryList pages through the caller's sign-ins, newest first
func (ctl *Controller) LoginHistoryList(c *fiber.Ctx) error {
	userId, ok := c.Locals("userId").(uint)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "Unauthorized!", nil)
	}
	reqData, ok := c.Locals("validatedLoginHistory").(*authValidator.HistoryQuery)
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
		Model(&models.LoginTracking{}).
		Where("user_id = ? AND is_deleted = ?", userId, false)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		ctl.Log.Error("count login history failed", "user_id", userId, "error", err)
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to fetch login history!", nil)
	}
	var history []models.LoginTracking
	if err := query.Order("timestamp desc").Offset((page - 1) * limit).Limit(limit).Find(&history).Error; err != nil {
		ctl.Log.Error("list login history failed", "user_id", userId, "error", err)
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to fetch login history!", nil)
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Login History List.", fiber.Map{
		"loginTracking": history,
		"pagination": fiber.Map{
			"total": total,
			"page":  page,
			"limit": limit,
		},
	})
}
