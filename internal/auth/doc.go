// Package auth provides the credential primitives for FitLife.
//
// # Passwords
//
// Passwords are hashed with bcrypt (golang.org/x/crypto/bcrypt). When an
// account does not exist, callers run CompareDummy so that login latency does
// not reveal which emails are registered.
//
// # Tokens
//
// Register and login return an HS256 JWT whose "sub" claim is the user id:
//
//	verifier, err := auth.NewJWTVerifier(secret, 30*24*time.Hour)
//	token, err := verifier.Issue(user.ID)
//	userID, err := verifier.Verify(token)
//
// The secret must be at least MinSecretLength bytes.
//
// # Reset Tokens
//
// GenerateResetToken returns 32 random bytes encoded as base64url. Tokens are
// compared with TokensEqual, which runs in constant time.
//
// # HTTP Middleware
//
// OptionalAuthMiddleware reads "Authorization: Bearer <jwt>". Requests without
// the header continue anonymously; requests with an invalid token get 401.
// Handlers read the caller with FromContext or UserIDFromContext.
package auth
