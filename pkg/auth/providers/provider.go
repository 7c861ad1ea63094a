package providers

import "context"

type AuthProvider interface {
	VerifyToken(ctx context.Context, idToken string) (*TokenClaims, error)
}

// TokenClaims are the verified identity claims attached to a connection.
// Name is the player's display name and may be empty.
type TokenClaims struct {
	UID  string `json:"uid"`
	Name string `json:"name"`
}
