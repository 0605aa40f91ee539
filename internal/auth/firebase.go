package auth

import (
	"context"

	firebaseauth "firebase.google.com/go/v4/auth"
)

// FirebaseVerifier accepts Firebase ID tokens so operators can keep signing
// in through Firebase Authentication. The role comes from the "role" custom
// claim and defaults to staff.
type FirebaseVerifier struct {
	Client *firebaseauth.Client
}

// Verify implements Verifier.
func (v FirebaseVerifier) Verify(ctx context.Context, token string) (Claims, error) {
	tok, err := v.Client.VerifyIDToken(ctx, token)
	if err != nil {
		return Claims{}, err
	}
	subject := tok.UID
	if email, ok := tok.Claims["email"].(string); ok && email != "" {
		subject = email
	}
	role := RoleStaff
	if r, ok := tok.Claims["role"].(string); ok && (r == RoleAdmin || r == RoleStaff) {
		role = r
	}
	return Claims{Subject: subject, Role: role}, nil
}
