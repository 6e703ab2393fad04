package server

import (
	"errors"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/oklog/ulid/v2"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/taskdesk-dev/taskdesk/internal/auth"
	"github.com/taskdesk-dev/taskdesk/internal/models"
)

const (
	bearerPrefix    = "Bearer "
	requestIDHeader = "X-Request-ID"
	requestIDKey    = "request_id"
	sessionKey      = "session"
)

var (
	ErrMissingAuthHeader = errors.New("missing authorization header")
	ErrInvalidAuthFormat = errors.New("invalid authorization header format")
	ErrEmptyToken        = errors.New("empty token")
	ErrUserNotFound      = errors.New("user not found")
	ErrInactiveUser      = errors.New("inactive user")
)

func setSession(c *gin.Context, sessionData *auth.SessionData) {
	c.Set(sessionKey, sessionData)
}

// GetSessionData returns the session attached by OptionalAuthMiddleware, if any
func GetSessionData(c *gin.Context) (*auth.SessionData, bool) {
	session, exists := c.Get(sessionKey)
	if !exists {
		return nil, false
	}

	sessionData, ok := session.(*auth.SessionData)
	return sessionData, ok
}

func extractBearerToken(authHeader string) (string, error) {
	if authHeader == "" {
		return "", ErrMissingAuthHeader
	}

	if !strings.HasPrefix(authHeader, bearerPrefix) {
		return "", ErrInvalidAuthFormat
	}

	token := strings.TrimSpace(strings.TrimPrefix(authHeader, bearerPrefix))
	if token == "" {
		return "", ErrEmptyToken
	}

	return token, nil
}

// requestIDMiddleware tags every request with a ULID, reusing a caller supplied id
func requestIDMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(requestIDHeader)
		if id == "" {
			id = ulid.Make().String()
		}
		c.Set(requestIDKey, id)
		c.Header(requestIDHeader, id)
		c.Next()
	}
}

// OptionalAuthMiddleware attaches session data when the request carries a
// valid bearer token for an active user. Anything else proceeds anonymously
// and protected resolvers reject it.
func OptionalAuthMiddleware(db *gorm.DB, issuer *auth.Issuer, log zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, err := extractBearerToken(c.GetHeader("Authorization"))
		if err != nil {
			if !errors.Is(err, ErrMissingAuthHeader) {
				log.Debug().Err(err).Msg("Ignoring malformed authorization header")
			}
			c.Next()
			return
		}

		sessionData, err := authenticate(db, issuer, token)
		if err != nil {
			log.Debug().Err(err).Str("request_id", c.GetString(requestIDKey)).Msg("Proceeding anonymously")
			c.Next()
			return
		}

		setSession(c, sessionData)
		c.Next()
	}
}

func authenticate(db *gorm.DB, issuer *auth.Issuer, token string) (*auth.SessionData, error) {
	claims, err := issuer.ValidateToken(token)
	if err != nil {
		return nil, err
	}

	userID, err := claims.UserID()
	if err != nil {
		return nil, err
	}

	// Verify user exists in database
	var user models.User
	if err := models.FindByID(db, userID, &user); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	if !user.IsActive {
		return nil, ErrInactiveUser
	}

	return &auth.SessionData{
		UserID:   user.ID,
		Username: user.Username,
		Email:    user.Email,
		Role:     user.Role,
	}, nil
}
