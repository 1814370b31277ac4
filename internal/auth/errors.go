package auth

import "errors"

// Login failures. Unknown email and wrong password stay distinct here for logging; the
// handler answers both with ErrBadCredentials.
var (
	ErrCredentialsRequired = errors.New("email and password are required to sign in")
	ErrUnknownAdmin        = errors.New("no studio admin with that email")
	ErrWrongPassword       = errors.New("password does not match studio admin")
	ErrBadCredentials      = errors.New("that email and password do not match a studio admin")
	ErrNoAdminSession      = errors.New("studio admin sign-in required")
)
