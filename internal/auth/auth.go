package auth

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/MicahParks/keyfunc/v2"
	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"

	"github.com/supercur/supercur-api/internal/apierror"
	"github.com/supercur/supercur-api/internal/logger"
)

// Context keys set by the middleware for downstream handlers.
const (
	UserIDKey   = "userID"
	AuthTypeKey = "authType"
	APIKeyKey   = "apiKey"
)

// Auth type values stored under AuthTypeKey.
const (
	AuthTypeSession = "session"
	AuthTypeAPIKey  = "api_key"
)

// SessionClaims is the shape of the dashboard session token issued by
// the OAuth provider.
type SessionClaims struct {
	jwt.RegisteredClaims
	Email string `json:"email,omitempty"`
	Name  string `json:"name,omitempty"`
}

// KeyValidator is the piece of the API key service the middleware needs.
type KeyValidator interface {
	ValidateKeyIdentity(ctx context.Context, candidate string) (userID string, err error)
}

// AuthClient validates dashboard session tokens against the OAuth
// provider's JWKS endpoint.
type AuthClient struct {
	JWKSEndpoint string
	Issuer       string
	Audience     string
	jwks         *keyfunc.JWKS
}

// NewAuthClient reads the provider configuration from the environment
// and starts the JWKS refresh loop. A failed JWKS fetch is logged, not
// fatal; session validation fails closed until the next refresh.
func NewAuthClient() *AuthClient {
	client := &AuthClient{
		JWKSEndpoint: os.Getenv("AUTH_JWKS_ENDPOINT"),
		Issuer:       os.Getenv("AUTH_ISSUER"),
		Audience:     os.Getenv("AUTH_AUDIENCE"),
	}

	if err := client.initializeJWKS(); err != nil {
		logger.Error("Failed to initialize JWKS", zap.Error(err))
	}

	return client
}

func (ac *AuthClient) initializeJWKS() error {
	if ac.JWKSEndpoint == "" {
		return fmt.Errorf("AUTH_JWKS_ENDPOINT not set")
	}

	jwks, err := keyfunc.Get(ac.JWKSEndpoint, keyfunc.Options{
		RefreshInterval:  time.Hour,
		RefreshRateLimit: time.Minute,
		RefreshTimeout:   time.Second * 10,
		RefreshErrorHandler: func(err error) {
			logger.Error("JWKS refresh error", zap.Error(err))
		},
	})
	if err != nil {
		return fmt.Errorf("failed to create JWKS: %w", err)
	}

	ac.jwks = jwks
	logger.Info("JWKS initialized",
		zap.String("jwks_endpoint", ac.JWKSEndpoint),
		zap.String("issuer", ac.Issuer),
	)
	return nil
}

// validateSessionToken parses and verifies a bearer session token,
// returning the subject claims.
func (ac *AuthClient) validateSessionToken(authHeader string) (*SessionClaims, error) {
	tokenString := strings.TrimPrefix(authHeader, "Bearer ")
	if tokenString == "" {
		return nil, fmt.Errorf("empty token")
	}
	if ac.jwks == nil {
		return nil, fmt.Errorf("JWKS not initialized")
	}

	token, err := jwt.ParseWithClaims(tokenString, &SessionClaims{}, ac.jwks.Keyfunc)
	if err != nil {
		return nil, fmt.Errorf("failed to parse token: %w", err)
	}
	if !token.Valid {
		return nil, fmt.Errorf("token is not valid")
	}

	claims, ok := token.Claims.(*SessionClaims)
	if !ok {
		return nil, fmt.Errorf("invalid token claims")
	}
	if claims.Subject == "" {
		return nil, fmt.Errorf("token has no subject")
	}
	if ac.Issuer != "" && claims.Issuer != ac.Issuer {
		return nil, fmt.Errorf("invalid issuer")
	}
	if ac.Audience != "" {
		found := false
		for _, aud := range claims.Audience {
			if aud == ac.Audience {
				found = true
				break
			}
		}
		if !found {
			return nil, fmt.Errorf("invalid audience")
		}
	}

	return claims, nil
}

// EnsureValidSession guards the dashboard routes. It requires a valid
// session token and sets the caller's user ID in the gin context.
func (ac *AuthClient) EnsureValidSession() gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "No authentication provided"})
			c.Abort()
			return
		}

		claims, err := ac.validateSessionToken(authHeader)
		if err != nil {
			logger.Debug("session token validation failed",
				zap.Error(err),
				zap.String("path", c.Request.URL.Path),
			)
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid or expired session"})
			c.Abort()
			return
		}

		c.Set(UserIDKey, claims.Subject)
		c.Set(AuthTypeKey, AuthTypeSession)
		c.Next()
	}
}

// EnsureSessionOrAPIKey accepts either a session token or a bearer API
// key. The "sk_" prefix distinguishes the two; anything else is treated
// as a session token.
func (ac *AuthClient) EnsureSessionOrAPIKey(keys KeyValidator) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "No authentication provided"})
			c.Abort()
			return
		}

		bearer := strings.TrimPrefix(authHeader, "Bearer ")
		if strings.HasPrefix(bearer, "sk_") {
			userID, err := keys.ValidateKeyIdentity(c.Request.Context(), bearer)
			if err != nil {
				respondAuthError(c, err)
				return
			}
			c.Set(UserIDKey, userID)
			c.Set(AuthTypeKey, AuthTypeAPIKey)
			c.Set(APIKeyKey, bearer)
			c.Next()
			return
		}

		claims, err := ac.validateSessionToken(authHeader)
		if err != nil {
			logger.Debug("session token validation failed", zap.Error(err))
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid or expired session"})
			c.Abort()
			return
		}
		c.Set(UserIDKey, claims.Subject)
		c.Set(AuthTypeKey, AuthTypeSession)
		c.Next()
	}
}

// BearerAPIKey extracts the API key for gated routes. The summarize
// endpoint also accepts the legacy X-API-Key header.
func BearerAPIKey(c *gin.Context) string {
	if key := c.GetHeader("X-API-Key"); key != "" {
		return key
	}
	bearer := strings.TrimPrefix(c.GetHeader("Authorization"), "Bearer ")
	if strings.HasPrefix(bearer, "sk_") {
		return bearer
	}
	return ""
}

func respondAuthError(c *gin.Context, err error) {
	apiErr := apierror.FromError(err)
	c.JSON(apiErr.HTTPStatus(), gin.H{"error": apiErr.Message})
	c.Abort()
}
