package globals

type ContextKey string

const (
	UserEmailKey ContextKey = "userEmail"
	RequestIDKey ContextKey = "requestId"
)
