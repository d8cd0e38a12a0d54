package middleware

import (
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/simp-lee/logger"

	"github.com/simp-lee/hireline/internal/domain"
	"github.com/simp-lee/hireline/internal/pkg"
)

const identityContextKey = "identity"

// TokenVerifier validates an access token and returns who it was issued for.
type TokenVerifier interface {
	Verify(token string) (domain.Identity, error)
}

// BearerAuth rejects requests without a valid "Authorization: Bearer" token.
// Expired and invalid tokens both answer 401 so clients drop their session.
func BearerAuth(v TokenVerifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, ok := bearerToken(c.GetHeader("Authorization"))
		if !ok {
			abortUnauthorized(c, "authentication required")
			return
		}

		id, err := v.Verify(token)
		if err != nil {
			msg := "invalid token"
			if domain.IsSessionExpired(err) {
				msg = "token expired"
			}
			abortUnauthorized(c, msg)
			return
		}

		setIdentity(c, id)
		c.Next()
	}
}

// CookieAuth guards page routes with the auth-token cookie. Requests without
// a valid cookie are redirected to loginPath with the original path in
// "redirect".
func CookieAuth(v TokenVerifier, loginPath string) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, err := c.Cookie(domain.AuthCookieName)
		if err == nil && token != "" {
			if id, verr := v.Verify(token); verr == nil {
				setIdentity(c, id)
				c.Next()
				return
			}
		}

		target := loginPath + "?redirect=" + url.QueryEscape(c.Request.URL.RequestURI())
		c.Redirect(http.StatusFound, target)
		c.Abort()
	}
}

// RequireRole answers 403 unless the authenticated identity has one of roles.
func RequireRole(roles ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := CurrentIdentity(c)
		if !ok {
			abortUnauthorized(c, "authentication required")
			return
		}
		for _, r := range roles {
			if id.Role == r {
				c.Next()
				return
			}
		}
		c.AbortWithStatusJSON(http.StatusForbidden, pkg.Response{Code: http.StatusForbidden, Message: "forbidden"})
	}
}

// CurrentIdentity returns the identity stored by BearerAuth or CookieAuth.
func CurrentIdentity(c *gin.Context) (domain.Identity, bool) {
	v, ok := c.Get(identityContextKey)
	if !ok {
		return domain.Identity{}, false
	}
	id, ok := v.(domain.Identity)
	return id, ok
}

func setIdentity(c *gin.Context, id domain.Identity) {
	c.Set(identityContextKey, id)
	ctx := logger.WithContextAttrs(c.Request.Context(), slog.Uint64("user_id", uint64(id.ID)))
	c.Request = c.Request.WithContext(ctx)
}

func bearerToken(header string) (string, bool) {
	scheme, token, ok := strings.Cut(strings.TrimSpace(header), " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}

func abortUnauthorized(c *gin.Context, msg string) {
	c.Header("WWW-Authenticate", `Bearer realm="api"`)
	c.AbortWithStatusJSON(http.StatusUnauthorized, pkg.Response{Code: http.StatusUnauthorized, Message: msg})
}
