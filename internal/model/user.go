package model

import "time"

// User is a wallet-authenticated account
type User struct {
	ID            string    `json:"id" db:"id"`
	WalletAddress string    `json:"walletAddress" db:"wallet_address"`
	CreatedAt     time.Time `json:"createdAt" db:"created_at"`
}

// NonceResponse is returned by GET /auth/nonce
type NonceResponse struct {
	Nonce string `json:"nonce"`
}

// LoginRequest is the body of POST /auth/login
type LoginRequest struct {
	Message   string `json:"message" binding:"required"`
	Signature string `json:"signature" binding:"required"`
}

// LoginResponse carries the issued bearer token
type LoginResponse struct {
	AccessToken string `json:"access_token"`
}

// Profile is the identity asserted by a bearer token
type Profile struct {
	UserID        string `json:"userId"`
	WalletAddress string `json:"walletAddress"`
}
