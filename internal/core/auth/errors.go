package auth

import "errors"

// ErrInvalidCredentials は VerifyLogin が認証を拒否した場合のエラーです。
var ErrInvalidCredentials = errors.New("auth: invalid email or password")
