package auth

import (
	"context"

	"github.com/hmansour/medilabel/internal/model"
)

type contextKey struct{}

// Context is the authenticated request state: who is logged in and which
// patient their session has selected, if any.
type Context struct {
	SessionID int64
	User      model.User
	Patient   *model.Patient
}

func WithContext(ctx context.Context, ac Context) context.Context {
	return context.WithValue(ctx, contextKey{}, ac)
}

func FromContext(ctx context.Context) (Context, bool) {
	ac, ok := ctx.Value(contextKey{}).(Context)
	return ac, ok
}

func IsAdmin(ctx context.Context) bool {
	ac, ok := FromContext(ctx)
	if !ok {
		return false
	}
	return ac.User.AccessLevel == model.AccessLevelAdmin
}

// CanManageDrugs reports whether the user may edit the drug catalog.
func CanManageDrugs(ctx context.Context) bool {
	ac, ok := FromContext(ctx)
	if !ok {
		return false
	}
	switch ac.User.AccessLevel {
	case model.AccessLevelAdmin, model.AccessLevelManager:
		return true
	}
	return false
}

// CanManageGroups reports whether the user may edit medication groups.
// Group edits change what every future expansion prints, so only admins.
func CanManageGroups(ctx context.Context) bool {
	return IsAdmin(ctx)
}

// CanManagePatients is true for every authenticated user; patient lookup is
// the core workflow and is never restricted by level.
func CanManagePatients(ctx context.Context) bool {
	_, ok := FromContext(ctx)
	return ok
}
