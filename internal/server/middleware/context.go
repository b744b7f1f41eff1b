package middleware

import "context"

type contextKey struct{ name string }

var (
	userIDKey         = contextKey{"user_id"}
	userIDRecorderKey = contextKey{"user_id_recorder"}
)

// userIDRecorder lets middleware mounted above the auth layer observe the
// subject id that auth sets further down the chain. Written and read on the
// request goroutine only.
type userIDRecorder struct {
	id string
}

// withUserIDRecorder installs a recorder in the context and returns it.
func withUserIDRecorder(ctx context.Context) (context.Context, *userIDRecorder) {
	rec := &userIDRecorder{}
	return context.WithValue(ctx, userIDRecorderKey, rec), rec
}

// WithUserID returns a context carrying the verified subject id.
// Handlers read it via GetUserID; it lives only for the request. When the
// context holds a recorder, the id is published there as well.
func WithUserID(ctx context.Context, userID string) context.Context {
	if rec, ok := ctx.Value(userIDRecorderKey).(*userIDRecorder); ok {
		rec.id = userID
	}
	return context.WithValue(ctx, userIDKey, userID)
}

// GetUserID returns the user_id from context and true if set; otherwise "", false.
func GetUserID(ctx context.Context) (string, bool) {
	v, ok := ctx.Value(userIDKey).(string)
	return v, ok
}
