package auth

import (
	"context"

	"github.com/pkg/errors"
)

const (
	XUserNameHeader = "X-User-Name"
	XUserRoleHeader = "X-User-Role"

	RoleAdmin = "ADMIN"
)

type ctxKey int

const (
	userNameKey ctxKey = iota + 1
	userRoleKey
)

var ErrNoUser = errors.New("user is not set")

func SetAuthContext(ctx context.Context, userName, role string) context.Context {
	ctx = context.WithValue(ctx, userNameKey, userName)
	return context.WithValue(ctx, userRoleKey, role)
}

func GetUserName(ctx context.Context) (string, error) {
	name, ok := ctx.Value(userNameKey).(string)
	if !ok || name == "" {
		return "", ErrNoUser
	}
	return name, nil
}

func GetRole(ctx context.Context) string {
	role, _ := ctx.Value(userRoleKey).(string)
	return role
}

func IsAdmin(ctx context.Context) bool {
	return GetRole(ctx) == RoleAdmin
}
