package controllers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/kendall-kelly/tableside-api/logger"
	"github.com/kendall-kelly/tableside-api/middleware"
	"github.com/kendall-kelly/tableside-api/services"
)

// StaffResponse describes the signed-in staff member
type StaffResponse struct {
	UserID  string                 `json:"user_id"`
	Scopes  []string               `json:"scopes"`
	Profile *services.StaffProfile `json:"profile,omitempty"`
}

// GetStaffProfile handles GET /api/v1/staff/me
func GetStaffProfile(c *gin.Context) {
	userID, err := middleware.GetUserID(c)
	if err != nil {
		respondError(c, http.StatusUnauthorized, "UNAUTHORIZED", "Staff authentication is not enabled")
		return
	}

	resp := StaffResponse{UserID: userID, Scopes: []string{}}
	if claims, err := middleware.GetClaims(c); err == nil {
		if custom, ok := claims.CustomClaims.(*middleware.CustomClaims); ok {
			resp.Scopes = strings.Fields(custom.Scope)
		}
	}

	if staff := services.GetServices().Staff; staff != nil {
		token := strings.TrimPrefix(c.GetHeader("Authorization"), "Bearer ")
		profile, err := staff.StaffProfile(c.Request.Context(), token)
		if err != nil {
			// the token already validated; the profile is optional
			logger.FromContext(c).Warn("Failed to load staff profile", zap.String("user_id", userID), zap.Error(err))
		} else {
			resp.Profile = profile
		}
	}

	respond(c, http.StatusOK, resp)
}
