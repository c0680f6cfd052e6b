package helpers

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/opentracing/opentracing-go"
	"go.uber.org/zap"

	"github.com/material-compliance-hub/material-compliance-hub/internal"
)

func HandleInternalServerError(c *gin.Context, err error) {
	if c == nil {
		panic("HandleInternalServerError: c is nil")
	}
	if err == nil {
		err = errors.New("unknown error")
	}

	var traceID string
	if cspan, ok := c.Get("tracing-context"); ok {
		if span, ok := cspan.(opentracing.Span); ok {
			traceID, _ = internal.ExtractTraceID(span)
		}
	}

	erx := internal.SanitizeString(err.Error())
	zap.S().Errorw(
		"Internal server error",
		"error", erx,
		"trace id", traceID,
	)

	c.JSON(
		http.StatusInternalServerError,
		gin.H{
			"error":   erx,
			"status":  http.StatusInternalServerError,
			"message": "The server had an internal error. Please mention the following trace id while contacting support: " + traceID,
		})
}

func HandleInvalidInputError(c *gin.Context, err error) {
	if c == nil {
		panic("HandleInvalidInputError: c is nil")
	}
	if err == nil {
		err = errors.New("unknown error")
	}
	erx := internal.SanitizeString(err.Error())
	zap.S().Errorw(
		"Invalid input error",
		"error", erx,
	)

	c.JSON(
		http.StatusBadRequest,
		gin.H{
			"error":   erx,
			"status":  http.StatusBadRequest,
			"message": "You have provided a wrong input. Please check your parameters.",
		})
}

func HandleNotFound(c *gin.Context, err error) {
	if c == nil {
		panic("HandleNotFound: c is nil")
	}

	c.JSON(
		http.StatusNotFound,
		gin.H{
			"error":   internal.SanitizeString(err.Error()),
			"status":  http.StatusNotFound,
			"message": "The requested resource was not found.",
		})
}

func HandleConflict(c *gin.Context, err error) {
	if c == nil {
		panic("HandleConflict: c is nil")
	}

	c.JSON(
		http.StatusConflict,
		gin.H{
			"error":   internal.SanitizeString(err.Error()),
			"status":  http.StatusConflict,
			"message": "The request conflicts with the current state of the record.",
		})
}

// adminUser may access every plant's data, for administrative operations like
// workflow repair and forced CQS syncs
var adminUser string

// SetAdminUser registers the privileged account name. Called once at startup.
func SetAdminUser(name string) {
	adminUser = name
}

// CheckIfUserIsAllowed checks if the user is allowed to access the data for the given plant
func CheckIfUserIsAllowed(c *gin.Context, plantCode string) error {

	user := c.MustGet(gin.AuthUserKey)
	if user != plantCode && (adminUser == "" || user != adminUser) {
		c.AbortWithStatus(http.StatusUnauthorized)
		zap.S().Infof("User %s unauthorized to access %s", user, internal.SanitizeString(plantCode))
		return fmt.Errorf("user %s unauthorized to access %s", user, internal.SanitizeString(plantCode))
	}
	return nil
}
