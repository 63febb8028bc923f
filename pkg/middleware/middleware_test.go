package middleware_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"

	"github.com/Astemirdum/book-service/pkg/auth"
	md "github.com/Astemirdum/book-service/pkg/middleware"
)

func TestAdminOnly(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name     string
		userName string
		role     string
		wantCode int
	}{
		{name: "admin", userName: "max", role: auth.RoleAdmin, wantCode: http.StatusOK},
		{name: "reader", userName: "max", role: "READER", wantCode: http.StatusForbidden},
		{name: "no role", userName: "max", wantCode: http.StatusForbidden},
		{name: "anonymous", wantCode: http.StatusUnauthorized},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			e := echo.New()
			e.POST("/books", func(c echo.Context) error {
				name, err := auth.GetUserName(c.Request().Context())
				require.NoError(t, err)
				return c.String(http.StatusOK, name)
			}, md.AuthContext, md.AdminOnly)

			r := httptest.NewRequest(http.MethodPost, "/books", http.NoBody)
			if tt.userName != "" {
				r.Header.Set(auth.XUserNameHeader, tt.userName)
			}
			if tt.role != "" {
				r.Header.Set(auth.XUserRoleHeader, tt.role)
			}
			w := httptest.NewRecorder()
			e.ServeHTTP(w, r)

			require.Equal(t, tt.wantCode, w.Code)
		})
	}
}
