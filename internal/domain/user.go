package domain

// User is one participant in a room. SessionID is connection-scoped and
// opaque; a user lives exactly as long as its connection.
type User struct {
	SessionID string `json:"sessionId"`
	Name      string `json:"name"`
}

func NewUser(sessionID, name string) User {
	return User{
		SessionID: sessionID,
		Name:      name,
	}
}
