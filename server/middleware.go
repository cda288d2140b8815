package server

import (
	"errors"
	"net/http"

	"gorm.io/gorm"

	"github.com/gin-gonic/gin"
	errs "github.com/koinoniahq/koinonia/errors"
	"github.com/koinoniahq/koinonia/models"
	"github.com/koinoniahq/koinonia/server/response"
	"github.com/koinoniahq/koinonia/services/jwt"
)

// Authorize validates the bearer token and loads the caller into the
// request context. Token issuance belongs to the identity service; this
// layer only verifies.
func (s *Server) Authorize() gin.HandlerFunc {
	return func(c *gin.Context) {
		accessToken := getTokenFromHeader(c)
		if accessToken == "" {
			respondAndAbort(c, "", http.StatusUnauthorized, nil, errs.New("Unauthorized", http.StatusUnauthorized))
			return
		}

		user, err := s.authenticateToken(accessToken)
		if err != nil {
			switch {
			case errors.Is(err, errs.InActiveUserError):
				respondAndAbort(c, "inactive user", http.StatusUnauthorized, nil, errs.New(err.Error(), http.StatusUnauthorized))
			case errors.Is(err, gorm.ErrRecordNotFound):
				respondAndAbort(c, "user not found", http.StatusUnauthorized, nil, errs.New(err.Error(), http.StatusUnauthorized))
			default:
				respondAndAbort(c, "", http.StatusUnauthorized, nil, errs.New("Unauthorized", http.StatusUnauthorized))
			}
			return
		}

		c.Set("user", user)
		c.Set("userID", user.ID)
		c.Set("access_token", accessToken)
		c.Next()
	}
}

// authenticateToken is shared by the REST middleware and the websocket
// handshake: same gate, two transports.
func (s *Server) authenticateToken(accessToken string) (*models.User, error) {
	if s.AuthRepository.IsTokenInBlacklist(accessToken) {
		return nil, errs.New("Unauthorized", http.StatusUnauthorized)
	}

	accessClaims, err := jwt.ValidateAndGetClaims(accessToken, s.Config.JWTSecret)
	if err != nil {
		return nil, err
	}

	userIDValue, ok := accessClaims["id"].(float64)
	if !ok {
		return nil, errs.New("invalid userID format", http.StatusBadRequest)
	}

	return s.AuthRepository.FindUserByID(uint(userIDValue))
}

// respondAndAbort calls response.JSON and aborts the Context
func respondAndAbort(c *gin.Context, message string, status int, data interface{}, e *errs.Error) {
	response.JSON(c, message, status, data, e)
	c.Abort()
}

// getTokenFromHeader returns the token string in the authorization header
func getTokenFromHeader(c *gin.Context) string {
	authHeader := c.Request.Header.Get("Authorization")
	if len(authHeader) > 8 {
		return authHeader[7:]
	}
	return ""
}

// currentUserID pulls the authenticated user's ID set by Authorize.
func currentUserID(c *gin.Context) (uint, bool) {
	v, ok := c.Get("userID")
	if !ok {
		return 0, false
	}
	id, ok := v.(uint)
	return id, ok
}
