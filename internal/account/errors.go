package account

import "errors"

var ErrAccountNotFound = errors.New("account not found")
var ErrEmailExists = errors.New("account with this email already exists")
var ErrInvalidCredentials = errors.New("invalid email or password")
var ErrAccountBlocked = errors.New("account is blocked")
var ErrInvalidRole = errors.New("invalid account role")

var ErrNoSecurityQuestion = errors.New("account has no security question configured")
var ErrSecurityAnswerMismatch = errors.New("security answer does not match")
var ErrResetTokenInvalid = errors.New("reset token is invalid or expired")
