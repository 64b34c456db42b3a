// internal/auth/token.go
package auth

import (
	"fmt"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Identity is the local player as asserted by the server-issued token.
type Identity struct {
	PlayerID string
	Name     string
	Money    float64
}

// FromToken reads the local identity out of a server-issued JWT. The token
// is parsed without signature verification: the server minted it and is the
// party that verifies it on join; the client only needs its own claims.
func FromToken(tokenString string) (Identity, error) {
	token, _, err := jwt.NewParser().ParseUnverified(tokenString, jwt.MapClaims{})
	if err != nil {
		return Identity{}, fmt.Errorf("auth: token parse error: %w", err)
	}
	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return Identity{}, fmt.Errorf("auth: invalid token claims")
	}

	sub, ok := claims["sub"].(string)
	if !ok || sub == "" {
		return Identity{}, fmt.Errorf("auth: missing sub in token")
	}

	id := Identity{PlayerID: sub}
	if name, ok := claims["name"].(string); ok {
		id.Name = name
	}
	if money, ok := claims["money"].(float64); ok {
		id.Money = money
	}
	return id, nil
}

// Guest mints an ephemeral local identity for servers that accept anonymous
// viewers. The id is a fresh UUID; a reconnect gets a new one.
func Guest(name string) Identity {
	id := uuid.NewString()
	if name == "" {
		name = "guest-" + id[:8]
	}
	return Identity{PlayerID: id, Name: name}
}
