package auth

import "crypto/subtle"

// AdminCredentials is the trivial credential lookup gating the dashboard.
// Authentication beyond this single configured pair is out of scope.
type AdminCredentials struct {
	Username string
	Password string
}

// Verify reports whether the given pair matches the configured admin.
func (c AdminCredentials) Verify(username, password string) bool {
	userOK := subtle.ConstantTimeCompare([]byte(username), []byte(c.Username)) == 1
	passOK := subtle.ConstantTimeCompare([]byte(password), []byte(c.Password)) == 1
	return userOK && passOK
}
