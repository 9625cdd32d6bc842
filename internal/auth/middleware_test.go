package auth_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"airg/internal/auth"
)

// newJWTRouter records the X-User-Id header downstream code sees once the
// chain has run, whether or not JWT aborted.
func newJWTRouter(svc *auth.Service, seen *string) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(func(c *gin.Context) {
		c.Next()
		*seen = c.Request.Header.Get(auth.HeaderUserID)
	})
	r.GET("/me", auth.JWT(svc), func(c *gin.Context) {
		if _, ok := auth.ClaimsFrom(c); !ok {
			c.Status(http.StatusInternalServerError)
			return
		}
		c.Status(http.StatusOK)
	})
	return r
}

func TestJWTDropsClientSuppliedUserID(t *testing.T) {
	svc, _ := newService(t)
	sess := register(t, svc, "ada@example.com", "Lab")

	tests := []struct {
		name   string
		token  string
		status int
		want   string
	}{
		{name: "no token", status: http.StatusUnauthorized, want: ""},
		{name: "bad token", token: "Bearer not-a-jwt", status: http.StatusUnauthorized, want: ""},
		{name: "valid token", token: "Bearer " + sess.Token, status: http.StatusOK, want: sess.User.ID},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var seen string
			r := newJWTRouter(svc, &seen)

			req := httptest.NewRequest(http.MethodGet, "/me", nil)
			req.Header.Set(auth.HeaderUserID, "someone-else")
			if tt.token != "" {
				req.Header.Set("Authorization", tt.token)
			}
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)

			require.Equal(t, tt.status, w.Code)
			require.Equal(t, tt.want, seen)
		})
	}
}
