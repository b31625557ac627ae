package middleware

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"storefront-service/models"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v4"
)

const (
	UserContextKey  = "userID"
	RoleContextKey  = "role"
	ActorContextKey = "actor"
)

// Authenticate resolves the caller's identity. When jwtSecret is set only a signed bearer
// token is accepted and the gateway headers and cookies are ignored, since any client can
// send them. Without a secret the service sits behind the API gateway and trusts its
// identity headers, falling back to gateway cookies.
// Anonymous requests pass through; use RequireAuth or RequireCapability to gate routes.
func Authenticate(jwtSecret string) gin.HandlerFunc {
	secret := []byte(strings.TrimSpace(jwtSecret))
	return func(c *gin.Context) {
		if len(secret) > 0 {
			if token := bearerToken(c); token != "" {
				claims, err := parseToken(token, secret)
				if err != nil {
					c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized: invalid token"})
					return
				}
				setActor(c, actorFromClaims(claims))
			}
			c.Next()
			return
		}

		userID := c.GetHeader("X-User-ID")
		role := c.GetHeader("X-User-Role")
		caps := c.GetHeader("X-User-Capabilities")

		// Fallback to cookies (set by API gateway) if headers missing
		if userID == "" {
			if v, err := c.Cookie("user_id"); err == nil && v != "" {
				userID = v
			}
		}
		if role == "" {
			if v, err := c.Cookie("user_role"); err == nil && v != "" {
				role = v
			}
		}

		if userID != "" {
			setActor(c, models.NewActor(userID, models.ParseRole(role), models.ParseCapabilities(splitList(caps))))
		}
		c.Next()
	}
}

func bearerToken(c *gin.Context) string {
	h := c.GetHeader("Authorization")
	if len(h) > 7 && strings.EqualFold(h[:7], "bearer ") {
		return strings.TrimSpace(h[7:])
	}
	return ""
}

func parseToken(tokenStr string, secret []byte) (jwt.MapClaims, error) {
	token, err := jwt.Parse(tokenStr, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return secret, nil
	})
	if err != nil || token == nil || !token.Valid {
		return nil, errors.New("invalid or expired token")
	}
	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, errors.New("invalid token claims")
	}
	return claims, nil
}

func actorFromClaims(claims jwt.MapClaims) models.Actor {
	userID, _ := claims["sub"].(string)
	if userID == "" {
		userID, _ = claims["user_id"].(string)
	}
	role, _ := claims["role"].(string)

	var grants []string
	switch v := claims["allow_components"].(type) {
	case string:
		grants = splitList(v)
	case []interface{}:
		for _, g := range v {
			if s, ok := g.(string); ok {
				grants = append(grants, s)
			}
		}
	}
	return models.NewActor(userID, models.ParseRole(role), models.ParseCapabilities(grants))
}

func splitList(s string) []string {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	return strings.Split(s, ",")
}

func setActor(c *gin.Context, a models.Actor) {
	if a.UserID == "" {
		return
	}
	c.Set(UserContextKey, a.UserID)
	c.Set(RoleContextKey, string(a.Role))
	c.Set(ActorContextKey, a)
}

// ActorFrom returns the authenticated caller, if any.
func ActorFrom(c *gin.Context) (models.Actor, bool) {
	if v, ok := c.Get(ActorContextKey); ok {
		if a, ok := v.(models.Actor); ok {
			return a, true
		}
	}
	return models.Actor{}, false
}

// GetUserID extracts the user ID from the Gin context.
func GetUserID(c *gin.Context) (string, error) {
	if val, ok := c.Get(UserContextKey); ok {
		if id, ok := val.(string); ok && id != "" {
			return id, nil
		}
	}
	return "", errors.New("user ID not found in context")
}

// RequireAuth rejects anonymous callers.
func RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, ok := ActorFrom(c); !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
			return
		}
		c.Next()
	}
}

// RequireCapability is the authorization gate for back-office routes.
func RequireCapability(capability models.Capability) gin.HandlerFunc {
	return func(c *gin.Context) {
		actor, ok := ActorFrom(c)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
			return
		}
		if !actor.Can(capability) {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "Access denied", "required": capability})
			return
		}
		c.Next()
	}
}
