package controllers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/kendall-kelly/tableside-api/logger"
	"github.com/kendall-kelly/tableside-api/services"
)

func respond(c *gin.Context, status int, data interface{}) {
	c.JSON(status, gin.H{
		"success": true,
		"data":    data,
	})
}

func respondError(c *gin.Context, status int, code, message string) {
	c.JSON(status, gin.H{
		"success": false,
		"error": gin.H{
			"code":    code,
			"message": message,
		},
	})
}

// respondServiceError maps a service error kind onto its HTTP status
func respondServiceError(c *gin.Context, err error) {
	var se *services.ServiceError
	if !errors.As(err, &se) {
		logger.FromContext(c).Error("Unhandled error", zap.Error(err))
		respondError(c, http.StatusInternalServerError, "INTERNAL_ERROR", "Something went wrong")
		return
	}

	status := http.StatusInternalServerError
	switch se.Kind {
	case services.KindNotFound:
		status = http.StatusNotFound
	case services.KindValidation:
		status = http.StatusUnprocessableEntity
	case services.KindConcurrencyConflict:
		status = http.StatusConflict
	case services.KindTransactionFailure:
		logger.FromContext(c).Error("Request failed", zap.String("code", se.Code), zap.Error(se.Unwrap()))
	}
	respondError(c, status, se.Code, se.Message)
}

func bindError(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, gin.H{
		"success": false,
		"error": gin.H{
			"code":    "VALIDATION_ERROR",
			"message": "Invalid request data",
			"details": err.Error(),
		},
	})
}

// idParam parses a positive numeric path parameter, writing a 400 when it is not one
func idParam(c *gin.Context, name string) (uint, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || id == 0 {
		respondError(c, http.StatusBadRequest, "INVALID_ID", "Invalid "+name)
		return 0, false
	}
	return uint(id), true
}
