package server

import (
	"net/http"

	errs "github.com/SkillSyncApp/SkillSyncServer/errors"
	"github.com/SkillSyncApp/SkillSyncServer/server/response"
	"github.com/SkillSyncApp/SkillSyncServer/services/jwt"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// Authorize validates the bearer token and puts the caller's user id into
// the context under "userID".
func (s *Server) Authorize() gin.HandlerFunc {
	return func(c *gin.Context) {
		accessToken := getTokenFromHeader(c)
		if accessToken == "" {
			respondAndAbort(c, "", http.StatusUnauthorized, nil, errs.New("Unauthorized", http.StatusUnauthorized))
			return
		}

		userID, err := s.verifyToken(accessToken)
		if err != nil {
			respondAndAbort(c, "", http.StatusUnauthorized, nil, errs.New("Unauthorized", http.StatusUnauthorized))
			return
		}

		c.Set("userID", userID)
		c.Set("access_token", accessToken)
		c.Next()
	}
}

// verifyToken is the identity-verifier contract shared by the HTTP layer
// and the websocket handshake.
func (s *Server) verifyToken(accessToken string) (uuid.UUID, error) {
	claims, err := jwt.ValidateAndGetClaims(accessToken, s.Config.JWTSecret)
	if err != nil {
		return uuid.Nil, err
	}

	idValue, ok := claims["id"].(string)
	if !ok {
		return uuid.Nil, jwt.ErrInvalidToken
	}
	userID, err := uuid.Parse(idValue)
	if err != nil {
		return uuid.Nil, jwt.ErrInvalidToken
	}
	return userID, nil
}

// callerID pulls the authenticated user id set by Authorize.
func callerID(c *gin.Context) (uuid.UUID, bool) {
	value, exists := c.Get("userID")
	if !exists {
		return uuid.Nil, false
	}
	userID, ok := value.(uuid.UUID)
	return userID, ok
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
