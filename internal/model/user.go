package model

// Access levels issued by the backend. The backend is the only authority on
// these; the client never decides a user's level locally.
const (
	AccessLevelUser    = "user"
	AccessLevelManager = "manager"
	AccessLevelAdmin   = "admin"
)

// User is the identity returned by the backend on login.
type User struct {
	ID          int64  `json:"id"`
	Username    string `json:"username"`
	FullName    string `json:"fullName"`
	AccessLevel string `json:"accessLevel"`
}
