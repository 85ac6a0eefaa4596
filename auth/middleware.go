package auth

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/yx-elite/social-media-content-generator/app/logging"
)

// MiddlewareConfig controls auth enforcement behavior.
type MiddlewareConfig struct {
	// AuthorizedParties, when set, restricts the azp claim to these origins.
	AuthorizedParties []string
}

// Middleware enforces bearer token auth and injects claims into the request context.
func Middleware(verifier *Verifier, cfg MiddlewareConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		if AuthDisabled() {
			claims := &Claims{
				Subject: "local-dev",
				Issuer:  localIssuer,
				Raw:     map[string]any{"sub": "local-dev"},
			}
			ctx := WithClaims(c.Request.Context(), claims)
			c.Request = c.Request.WithContext(ctx)
			c.Next()
			return
		}

		log := logging.FromContext(c.Request.Context())
		if verifier == nil {
			respondUnauthorized(c, "auth verifier not configured")
			return
		}

		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			log.Info().Str("path", c.Request.URL.Path).Msg("auth failure: missing Authorization header")
			respondUnauthorized(c, "missing authorization header")
			return
		}

		token, ok := extractBearerToken(authHeader)
		if !ok {
			log.Info().Str("path", c.Request.URL.Path).Msg("auth failure: malformed Authorization header")
			respondUnauthorized(c, "invalid authorization header")
			return
		}

		claims, err := verifier.Verify(token)
		if err != nil {
			log.Info().Err(err).Str("path", c.Request.URL.Path).Msg("auth failure: token invalid")
			respondUnauthorized(c, "invalid token")
			return
		}

		if !authorizedParty(claims.AuthorizedParty, cfg.AuthorizedParties) {
			log.Info().Str("azp", claims.AuthorizedParty).Msg("auth failure: unexpected authorized party")
			respondUnauthorized(c, "invalid token")
			return
		}

		ctx := WithClaims(c.Request.Context(), claims)
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}

func extractBearerToken(header string) (string, bool) {
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 {
		return "", false
	}
	if !strings.EqualFold(parts[0], "Bearer") {
		return "", false
	}
	token := strings.TrimSpace(parts[1])
	if token == "" {
		return "", false
	}
	return token, true
}

// authorizedParty allows any azp when no parties are configured. A token
// without azp is accepted, matching Clerk's own backend SDKs.
func authorizedParty(azp string, allowed []string) bool {
	if len(allowed) == 0 || azp == "" {
		return true
	}
	for _, p := range allowed {
		if strings.TrimRight(p, "/") == strings.TrimRight(azp, "/") {
			return true
		}
	}
	return false
}

func respondUnauthorized(c *gin.Context, message string) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
		"error": message,
	})
}
