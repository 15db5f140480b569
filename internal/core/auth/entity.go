package auth

import "time"

// Token はログイン成功時に発行されるベアラートークンです。
type Token struct {
	Value     string
	ExpiresAt time.Time
}

// LoginInput はログイン時の入力です。
type LoginInput struct {
	Email    string
	Password string
}
