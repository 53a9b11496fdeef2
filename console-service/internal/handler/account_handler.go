package handler

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/eaglebank/console/console-service/internal/service"
	"github.com/eaglebank/console/shared/cqrs"
	"github.com/eaglebank/console/shared/errs"
	"github.com/eaglebank/console/shared/events"
	"github.com/eaglebank/console/shared/metrics"
	"github.com/eaglebank/console/shared/middleware"
	"github.com/eaglebank/console/shared/models"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// AccountHandler renders console account operations as {code, msg, data} envelopes.
type AccountHandler struct {
	accounts service.AccountService
	logger   *zap.Logger
}

type VerifyPasswordRequest struct {
	Password string `json:"password" validate:"required"`
}

type UpdateProfileRequest struct {
	Name     string `json:"name" validate:"required"`
	UserName string `json:"userName" validate:"required"`
}

type ChangePasswordRequest struct {
	Password    string `json:"password" validate:"required"`
	NewPassword string `json:"newPassword" validate:"required"`
}

type AdminUpdateAccountRequest struct {
	UserID   string `json:"userId"`
	Name     string `json:"name" validate:"required"`
	UserName string `json:"userName" validate:"required"`
	Password string `json:"password"`
}

func NewAccountHandler(accounts service.AccountService, logger *zap.Logger) *AccountHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AccountHandler{accounts: accounts, logger: logger}
}

// Register mounts the account routes on rg.
func (h *AccountHandler) Register(rg *gin.RouterGroup) {
	rg.GET("", h.ListAccounts)
	rg.GET("/profile", h.GetProfile)
	rg.PUT("/profile", h.UpdateProfile)
	rg.POST("/password/verify", h.VerifyPassword)
	rg.PUT("/password", h.ChangePassword)
	rg.PUT("/admin", h.AdminUpdateAccount)
}

func (h *AccountHandler) GetProfile(c *gin.Context) {
	const op = "get_profile"
	view, err := h.accounts.GetProfile(requestContext(c), cqrs.GetProfileQuery{
		Principal: middleware.GetPrincipal(c),
		UserID:    strings.TrimSpace(c.Query("userId")),
	})
	if err != nil {
		h.respondError(c, op, err, "")
		return
	}
	h.respondOK(c, op, "Account info retrieved", view)
}

func (h *AccountHandler) VerifyPassword(c *gin.Context) {
	const op = "verify_password"
	var req VerifyPasswordRequest
	if !h.bind(c, op, &req) {
		return
	}
	err := h.accounts.VerifyPassword(requestContext(c), cqrs.VerifyPasswordQuery{
		Principal: middleware.GetPrincipal(c),
		Password:  req.Password,
	})
	if err != nil {
		h.respondError(c, op, err, "")
		return
	}
	h.respondOK(c, op, "Password correct", nil)
}

func (h *AccountHandler) UpdateProfile(c *gin.Context) {
	const op = "update_profile"
	var req UpdateProfileRequest
	if !h.bind(c, op, &req) {
		return
	}
	err := h.accounts.UpdateProfile(requestContext(c), cqrs.UpdateProfileCommand{
		Principal: middleware.GetPrincipal(c),
		Name:      req.Name,
		UserName:  req.UserName,
	})
	if err != nil {
		h.respondError(c, op, err, "Update failed")
		return
	}
	h.respondOK(c, op, "Updated successfully", nil)
}

func (h *AccountHandler) ChangePassword(c *gin.Context) {
	const op = "change_password"
	var req ChangePasswordRequest
	if !h.bind(c, op, &req) {
		return
	}
	err := h.accounts.ChangePassword(requestContext(c), cqrs.ChangePasswordCommand{
		Principal:   middleware.GetPrincipal(c),
		Password:    req.Password,
		NewPassword: req.NewPassword,
	})
	if err != nil {
		h.respondError(c, op, err, "Password change failed")
		return
	}
	h.respondOK(c, op, "Password changed successfully", nil)
}

func (h *AccountHandler) AdminUpdateAccount(c *gin.Context) {
	const op = "admin_update_account"
	var req AdminUpdateAccountRequest
	if !h.bind(c, op, &req) {
		return
	}
	err := h.accounts.AdminUpdateAccount(requestContext(c), cqrs.AdminUpdateAccountCommand{
		Principal: middleware.GetPrincipal(c),
		UserID:    req.UserID,
		Name:      req.Name,
		UserName:  req.UserName,
		Password:  req.Password,
	})
	if err != nil {
		h.respondError(c, op, err, "Save failed")
		return
	}
	h.respondOK(c, op, "Saved successfully", nil)
}

func (h *AccountHandler) ListAccounts(c *gin.Context) {
	const op = "list_accounts"
	accounts, err := h.accounts.ListAccounts(requestContext(c), cqrs.ListAccountsQuery{
		Principal: middleware.GetPrincipal(c),
	})
	if err != nil {
		h.respondError(c, op, err, "")
		return
	}
	h.respondOK(c, op, "", accounts)
}

// bind decodes, trims and validates the JSON body into req. It renders the
// failure envelope itself and reports whether the handler should continue.
func (h *AccountHandler) bind(c *gin.Context, op string, req any) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		metrics.ObserveOperation(op, models.CodeFailure)
		middleware.RespondWithError(c, models.CodeFailure, "Invalid request body")
		return false
	}
	middleware.TrimStrings(req)
	if validationErrors := middleware.ValidateRequest(req); validationErrors != nil {
		metrics.ObserveOperation(op, models.CodeFailure)
		middleware.RespondWithValidationError(c, validationErrors)
		return false
	}
	return true
}

func (h *AccountHandler) respondOK(c *gin.Context, op, msg string, data any) {
	metrics.ObserveOperation(op, models.CodeOK)
	middleware.RespondOK(c, msg, data)
}

// respondError maps service errors onto envelope codes. notModifiedMsg is
// the message for an update that touched no rows.
func (h *AccountHandler) respondError(c *gin.Context, op string, err error, notModifiedMsg string) {
	code, msg := models.CodeFailure, ""
	switch {
	case errors.Is(err, errs.ErrAccountNotFound):
		code, msg = models.CodeNotFound, "Account does not exist"
	case errors.Is(err, errs.ErrUserNameTaken):
		msg = "Username already exists, please choose another"
	case errors.Is(err, errs.ErrPasswordMismatch):
		msg = "Password incorrect"
	case errors.Is(err, errs.ErrOldPasswordIncorrect):
		msg = "Old password incorrect"
	case errors.Is(err, errs.ErrForbidden):
		msg = "Permission denied"
	case errors.Is(err, errs.ErrInvalidParams):
		msg = "Invalid parameters"
	case errors.Is(err, errs.ErrNotModified) && notModifiedMsg != "":
		msg = notModifiedMsg
	default:
		h.logger.Error("account operation failed",
			zap.String("operation", op),
			zap.String("requestId", middleware.GetRequestID(c)),
			zap.Error(err))
		msg = "Internal error"
	}
	metrics.ObserveOperation(op, code)
	middleware.RespondWithError(c, code, msg)
}

// requestContext carries the request origin into the services for auditing.
func requestContext(c *gin.Context) context.Context {
	return events.WithOrigin(c.Request.Context(), events.Origin{
		IP:        c.ClientIP(),
		RequestID: middleware.GetRequestID(c),
	})
}

// Health reports liveness.
func Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok", "service": "console-service"})
}
