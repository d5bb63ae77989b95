package middleware

import (
	"backend/internal/model"
	"backend/pkg/response"
	"fmt"
	"net/http"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"gorm.io/gorm"
)

func GetJWTSecret() []byte {
	secret := os.Getenv("JWT_SECRET")
	if secret == "" {
		if os.Getenv("GIN_MODE") == "release" {
			panic("FATAL: JWT_SECRET environment variable is required in production mode")
		}
		secret = "default_super_secret_key" // Development fallback only — DO NOT use in production
	}
	return []byte(secret)
}

// SetTokenCookies sets access_token and refresh_token as HttpOnly cookies
func SetTokenCookies(c *gin.Context, accessToken, refreshToken string) {
	// Production (cross-origin): SameSiteNoneMode + Secure=true
	// Development (same-site):   SameSiteLaxMode  + Secure=false
	sameSite := http.SameSiteLaxMode
	secure := false
	if os.Getenv("GIN_MODE") == "release" || os.Getenv("RENDER") != "" {
		sameSite = http.SameSiteNoneMode
		secure = true
	}

	c.SetSameSite(sameSite)
	// access_token: 24h, path=/, domain="", secure, HttpOnly
	c.SetCookie("access_token", accessToken, 3600*24, "/", "", secure, true)
	// refresh_token: 7 days, path=/, domain="", secure, HttpOnly
	c.SetCookie("refresh_token", refreshToken, 3600*24*7, "/", "", secure, true)
}

// ClearTokenCookies removes access_token and refresh_token cookies
func ClearTokenCookies(c *gin.Context) {
	sameSite := http.SameSiteLaxMode
	secure := false
	if os.Getenv("GIN_MODE") == "release" || os.Getenv("RENDER") != "" {
		sameSite = http.SameSiteNoneMode
		secure = true
	}

	c.SetSameSite(sameSite)
	c.SetCookie("access_token", "", -1, "/", "", secure, true)
	c.SetCookie("refresh_token", "", -1, "/", "", secure, true)
}

// parseToken extracts and validates the JWT from the cookie or Authorization header.
// On success the claims are returned; on failure the request has already been aborted.
func parseToken(c *gin.Context) (jwt.MapClaims, bool) {
	// Try cookie first, fallback to Authorization header
	tokenString, cookieErr := c.Cookie("access_token")
	if cookieErr != nil || tokenString == "" {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, response.Error(http.StatusUnauthorized, "Authorization is missing"))
			return nil, false
		}

		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || parts[0] != "Bearer" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, response.Error(http.StatusUnauthorized, "Invalid authorization format. Expected 'Bearer <token>'"))
			return nil, false
		}
		tokenString = parts[1]
	}

	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return GetJWTSecret(), nil
	})

	if err != nil || !token.Valid {
		c.AbortWithStatusJSON(http.StatusUnauthorized, response.Error(http.StatusUnauthorized, "Invalid token"))
		return nil, false
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		c.AbortWithStatusJSON(http.StatusUnauthorized, response.Error(http.StatusUnauthorized, "Invalid token claims"))
		return nil, false
	}
	return claims, true
}

// RequireRole validates the JWT token and checks if the user's role exists in the allowedRoles list
func RequireRole(allowedRoles ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, ok := parseToken(c)
		if !ok {
			return
		}

		userRole, ok := claims["role"].(string)
		if !ok {
			c.AbortWithStatusJSON(http.StatusForbidden, response.Error(http.StatusForbidden, "Role not found in token"))
			return
		}

		roleAllowed := false
		for _, role := range allowedRoles {
			if userRole == role {
				roleAllowed = true
				break
			}
		}

		if !roleAllowed {
			c.AbortWithStatusJSON(http.StatusForbidden, response.Error(http.StatusForbidden, "Access denied: insufficient permissions"))
			return
		}

		c.Set("userID", claims["sub"])
		c.Set("userRole", userRole)

		c.Next()
	}
}

// --- Capability-based middleware ---

// capCacheEntry stores cached capability codes for a role with TTL
type capCacheEntry struct {
	codes     []string
	expiresAt time.Time
}

var (
	capCache    sync.Map // roleName -> capCacheEntry
	capCacheTTL = 5 * time.Minute
)

// capDB holds the database reference for capability queries — set via InitCapabilityMiddleware
var capDB *gorm.DB

// InitCapabilityMiddleware sets the DB reference for RequireCapability middleware
func InitCapabilityMiddleware(db *gorm.DB) {
	capDB = db
}

// RequireCapability validates the JWT and checks if the user's role holds at least one of
// the required capability codes. The resolved model.CapabilitySet is stored on the request
// context so handlers can pass it down into service calls without a second lookup.
// A role holding bill:manage_all passes every gate; services still enforce per-operation rules.
func RequireCapability(requiredCaps ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, ok := parseToken(c)
		if !ok {
			return
		}

		userRole, ok := claims["role"].(string)
		if !ok {
			c.AbortWithStatusJSON(http.StatusForbidden, response.Error(http.StatusForbidden, "Role not found in token"))
			return
		}

		c.Set("userID", claims["sub"])
		c.Set("userRole", userRole)

		codes, err := getCapabilitiesForRole(userRole)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusInternalServerError, response.Error(http.StatusInternalServerError, "Failed to verify permissions"))
			return
		}

		caps := model.NewCapabilitySet(codes...)
		c.Set("capabilities", caps)

		if caps.Has(model.CapBillManageAll) {
			c.Next()
			return
		}

		for _, required := range requiredCaps {
			if caps.Has(required) {
				c.Next()
				return
			}
		}

		c.AbortWithStatusJSON(http.StatusForbidden, response.Error(http.StatusForbidden, "Access denied: missing capability"))
	}
}

// CapabilitiesFrom returns the CapabilitySet resolved by RequireCapability for this request.
// Routes registered without RequireCapability get an empty set.
func CapabilitiesFrom(c *gin.Context) model.CapabilitySet {
	if v, exists := c.Get("capabilities"); exists {
		if caps, ok := v.(model.CapabilitySet); ok {
			return caps
		}
	}
	return model.CapabilitySet{}
}

// ActorID returns the authenticated user's ID set by the auth middleware
func ActorID(c *gin.Context) string {
	if v, exists := c.Get("userID"); exists {
		if id, ok := v.(string); ok {
			return id
		}
	}
	return ""
}

// getCapabilitiesForRole returns cached or DB-fetched capability codes for a role name
func getCapabilitiesForRole(roleName string) ([]string, error) {
	// Check cache
	if entry, ok := capCache.Load(roleName); ok {
		cached := entry.(capCacheEntry)
		if time.Now().Before(cached.expiresAt) {
			return cached.codes, nil
		}
	}

	if capDB == nil {
		return nil, fmt.Errorf("capability middleware not initialized")
	}

	// Query: role → role_permissions → permissions
	var codes []string
	err := capDB.Raw(`
		SELECT p.code FROM permissions p
		INNER JOIN role_permissions rp ON rp.permission_id = p.id
		INNER JOIN roles r ON r.id = rp.role_id
		WHERE r.name = ?
	`, roleName).Pluck("code", &codes).Error

	if err != nil {
		return nil, err
	}

	// Cache result
	capCache.Store(roleName, capCacheEntry{
		codes:     codes,
		expiresAt: time.Now().Add(capCacheTTL),
	})

	return codes, nil
}

// ClearCapabilityCache removes cached capabilities for a specific role (or all roles if empty)
func ClearCapabilityCache(roleName string) {
	if roleName == "" {
		capCache.Range(func(key, _ interface{}) bool {
			capCache.Delete(key)
			return true
		})
	} else {
		capCache.Delete(roleName)
	}
}
