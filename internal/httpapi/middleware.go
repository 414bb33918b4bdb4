package httpapi

import (
	"log"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/m-troja/taskstorm/internal/auth"
	"github.com/m-troja/taskstorm/internal/taskerr"
)

const claimsKey = "authClaims"

type errorBody struct {
	ErrorType string `json:"errorType"`
	Message   string `json:"message"`
}

// renderErrors turns errors attached by handlers into {errorType, message}
// responses. Non-domain errors become an opaque 500.
func renderErrors() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()
		if len(c.Errors) == 0 || c.Writer.Written() {
			return
		}
		err := c.Errors.Last().Err
		typ := taskerr.TypeOf(err)
		body := errorBody{ErrorType: string(typ), Message: err.Error()}
		if typ == taskerr.ServerError {
			log.Printf("httpapi: %s %s: %v", c.Request.Method, c.Request.URL.Path, err)
			body.Message = "internal server error"
		}
		c.JSON(taskerr.HTTPStatus(err), body)
	}
}

// authRequired verifies the Bearer access token and stores the claims in
// the request context.
func authRequired(issuer *auth.TokenIssuer) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, errorBody{
				ErrorType: string(taskerr.LoginError),
				Message:   "missing bearer token",
			})
			return
		}
		claims, err := issuer.Verify(token)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, errorBody{
				ErrorType: string(taskerr.LoginError),
				Message:   "invalid access token",
			})
			return
		}
		c.Set(claimsKey, claims)
		c.Next()
	}
}

// requireRole gates a route on a role claim.
func requireRole(role string) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims := claimsFrom(c)
		if claims != nil {
			for _, r := range claims.Roles {
				if r == role {
					c.Next()
					return
				}
			}
		}
		c.AbortWithStatusJSON(http.StatusForbidden, errorBody{
			ErrorType: string(taskerr.LoginError),
			Message:   "insufficient permissions",
		})
	}
}

func claimsFrom(c *gin.Context) *auth.Claims {
	v, ok := c.Get(claimsKey)
	if !ok {
		return nil
	}
	claims, _ := v.(*auth.Claims)
	return claims
}
