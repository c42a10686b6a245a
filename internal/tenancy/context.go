package tenancy

import "context"

type ctxKey string

const (
	userKey   ctxKey = "hearth.user_id"
	familyKey ctxKey = "hearth.family_id"
)

// WithUserID stores the user id in context.
func WithUserID(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, userKey, userID)
}

// UserIDFromContext extracts the user id if present.
func UserIDFromContext(ctx context.Context) (string, bool) {
	val := ctx.Value(userKey)
	if val == nil {
		return "", false
	}
	userID, ok := val.(string)
	return userID, ok && userID != ""
}

// WithFamilyID stores the family id in context.
func WithFamilyID(ctx context.Context, familyID string) context.Context {
	return context.WithValue(ctx, familyKey, familyID)
}

// FamilyIDFromContext extracts the family id if present.
func FamilyIDFromContext(ctx context.Context) (string, bool) {
	val := ctx.Value(familyKey)
	if val == nil {
		return "", false
	}
	familyID, ok := val.(string)
	return familyID, ok && familyID != ""
}
