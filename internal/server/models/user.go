// Package models defines the persistent records managed by the server.
package models

import "time"

// AuthMethod identifies how an account proves its identity. The same email
// may hold one independent account per method.
type AuthMethod string

const (
	MethodCredentials AuthMethod = "CREDENTIALS"
	MethodGoogle      AuthMethod = "GOOGLE"
	MethodApple       AuthMethod = "APPLE"
)

// Valid reports whether m is one of the known authentication methods.
func (m AuthMethod) Valid() bool {
	switch m {
	case MethodCredentials, MethodGoogle, MethodApple:
		return true
	}
	return false
}

type User struct {
	ID           string
	Email        string // stored lowercased
	PasswordHash string // empty for third-party accounts
	Method       AuthMethod
	Nickname     string
	FirstName    string
	LastName     string
	CreatedAt    time.Time
}
