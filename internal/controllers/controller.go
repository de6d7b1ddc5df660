package controllers

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"waste_tracker/internal/middleware"
	"waste_tracker/internal/services"
)

// Controller holds the services behind every HTTP handler.
type Controller struct {
	accounts *services.AccountService
	refs     *services.ReferenceService
	missions *services.MissionService
	requests *services.RequestService
	now      func() time.Time
}

func New(accounts *services.AccountService, refs *services.ReferenceService, missions *services.MissionService, requests *services.RequestService) *Controller {
	return &Controller{
		accounts: accounts,
		refs:     refs,
		missions: missions,
		requests: requests,
		now:      time.Now,
	}
}

func session(c *gin.Context) services.Session {
	return middleware.Session(c)
}

// paramID parses the :id path parameter, answering 400 when it is malformed.
func paramID(c *gin.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid " + name})
		return uuid.Nil, false
	}
	return id, true
}

// bind decodes the JSON body, answering 400 on failure.
func bind(c *gin.Context, v any) bool {
	if err := c.ShouldBindJSON(v); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input: " + err.Error()})
		return false
	}
	return true
}

// activeOnly reads ?active=true.
func activeOnly(c *gin.Context) bool {
	v, _ := strconv.ParseBool(c.Query("active"))
	return v
}

type activePayload struct {
	IsActive *bool `json:"is_active" binding:"required"`
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, services.ErrValidation), errors.Is(err, services.ErrIntegrity):
		return http.StatusBadRequest
	case errors.Is(err, services.ErrUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(err, services.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, services.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, services.ErrConflict), errors.Is(err, services.ErrInvalidTransition):
		return http.StatusConflict
	}
	return http.StatusInternalServerError
}

// respondError maps a service error onto a status and a {"error": ...} body.
// Unexpected failures are logged and reported generically.
func respondError(c *gin.Context, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		logrus.WithError(err).WithFields(logrus.Fields{
			"method": c.Request.Method,
			"path":   c.FullPath(),
		}).Error("request failed")
		c.JSON(status, gin.H{"error": "Something went wrong, please retry"})
		return
	}
	body := gin.H{"error": err.Error()}
	var ve *services.ValidationError
	if errors.As(err, &ve) {
		body["field"] = ve.Field
	}
	c.JSON(status, body)
}

// respondFunctionError is the {error, details} shape of the privileged account operations.
func respondFunctionError(c *gin.Context, status int, err error) {
	if status == http.StatusInternalServerError {
		logrus.WithError(err).WithField("path", c.FullPath()).Error("account function failed")
	}
	c.JSON(status, gin.H{"error": http.StatusText(status), "details": err.Error()})
}

func parseUUID(field, s string) (uuid.UUID, error) {
	id, err := uuid.Parse(s)
	if err != nil {
		return uuid.Nil, &services.ValidationError{Field: field, Message: "is not a valid id"}
	}
	return id, nil
}
