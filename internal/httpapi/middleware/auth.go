package middleware

import (
	"crypto/subtle"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/suPer8Hu/mockai/internal/auth"
	"github.com/suPer8Hu/mockai/internal/common"
)

// ClientKey holds "api-key" or the JWT subject of the authenticated caller.
const ClientKey = "client"

// APIKeyAuth accepts "Authorization: Bearer <apiKey>". When jwtSecret is set,
// a client token signed with it is accepted as well.
func APIKeyAuth(apiKey, jwtSecret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, ok := strings.CutPrefix(c.GetHeader("Authorization"), "Bearer ")
		if !ok || token == "" {
			common.Fail(c, common.AuthError())
			return
		}
		if subtle.ConstantTimeCompare([]byte(token), []byte(apiKey)) == 1 {
			c.Set(ClientKey, "api-key")
			c.Next()
			return
		}
		if jwtSecret != "" {
			if claims, err := auth.ParseJWT(token, jwtSecret); err == nil {
				c.Set(ClientKey, claims.Subject)
				c.Next()
				return
			}
		}
		common.Fail(c, common.AuthError())
	}
}
