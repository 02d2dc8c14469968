package service

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"aira/internal/config"
	"aira/internal/model"
	"aira/internal/repository"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/golang-jwt/jwt/v5"
	"github.com/spruceid/siwe-go"
	"go.uber.org/zap"
)

// ErrUnauthorized covers every login or token failure
var ErrUnauthorized = errors.New("unauthorized")

// UnauthorizedMessage is the client-facing text for a failed login
const UnauthorizedMessage = "Signature verification failed. Please try again."

// Claims is the JWT payload issued on login
type Claims struct {
	WalletAddress string `json:"walletAddress"`
	jwt.RegisteredClaims
}

// AuthService implements Sign-In with Ethereum login and bearer tokens
type AuthService struct {
	users    repository.UserStore
	nonces   repository.NonceStore
	secret   []byte
	tokenTTL time.Duration
	nonceTTL time.Duration
	domain   string
	logger   *zap.Logger
	now      func() time.Time
}

// NewAuthService creates an auth service
func NewAuthService(users repository.UserStore, nonces repository.NonceStore, cfg *config.AuthConfig, logger *zap.Logger) *AuthService {
	if logger == nil {
		logger = zap.NewNop()
	}
	tokenTTL := cfg.TokenTTL
	if tokenTTL <= 0 {
		tokenTTL = time.Hour
	}
	nonceTTL := cfg.NonceTTL
	if nonceTTL <= 0 {
		nonceTTL = 10 * time.Minute
	}
	return &AuthService{
		users:    users,
		nonces:   nonces,
		secret:   []byte(cfg.JWTSecret),
		tokenTTL: tokenTTL,
		nonceTTL: nonceTTL,
		domain:   cfg.SIWEDomain,
		logger:   logger,
		now:      time.Now,
	}
}

// GenerateNonce issues a fresh single-use login nonce
func (s *AuthService) GenerateNonce(ctx context.Context) (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to generate nonce: %w", err)
	}
	nonce := hex.EncodeToString(buf)
	if err := s.nonces.Put(ctx, nonce, s.nonceTTL); err != nil {
		return "", err
	}
	return nonce, nil
}

// Login verifies a signed EIP-4361 message and returns an access token.
// The message's nonce must have been issued by GenerateNonce and is spent
// by a successful verification.
func (s *AuthService) Login(ctx context.Context, message, signature string) (string, error) {
	msg, err := siwe.ParseMessage(message)
	if err != nil {
		s.logger.Warn("login rejected: unparseable message", zap.Error(err))
		return "", ErrUnauthorized
	}

	if sig, err := hexutil.Decode(signature); err != nil || len(sig) != crypto.SignatureLength {
		s.logger.Warn("login rejected: malformed signature", zap.Int("length", len(signature)))
		return "", ErrUnauthorized
	}

	var domain *string
	if s.domain != "" {
		domain = &s.domain
	}
	if _, err := msg.Verify(signature, domain, nil, nil); err != nil {
		s.logger.Warn("login rejected: signature verification failed", zap.Error(err))
		return "", ErrUnauthorized
	}

	live, err := s.nonces.Consume(ctx, msg.GetNonce())
	if err != nil {
		return "", fmt.Errorf("failed to check nonce: %w", err)
	}
	if !live {
		s.logger.Warn("login rejected: unknown or spent nonce", zap.String("address", msg.GetAddress().Hex()))
		return "", ErrUnauthorized
	}

	user, err := s.users.FindOrCreate(ctx, msg.GetAddress().Hex())
	if err != nil {
		return "", fmt.Errorf("failed to load user: %w", err)
	}

	token, err := s.issueToken(user)
	if err != nil {
		return "", err
	}
	s.logger.Info("🔑 Wallet signed in", zap.String("user_id", user.ID), zap.String("address", user.WalletAddress))
	return token, nil
}

func (s *AuthService) issueToken(user *model.User) (string, error) {
	now := s.now()
	claims := Claims{
		WalletAddress: user.WalletAddress,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.tokenTTL)),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return token, nil
}

// ParseToken validates a bearer token and returns the identity it asserts
func (s *AuthService) ParseToken(token string) (*model.Profile, error) {
	claims := &Claims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		return s.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil || !parsed.Valid {
		return nil, ErrUnauthorized
	}
	if claims.Subject == "" {
		return nil, ErrUnauthorized
	}
	return &model.Profile{
		UserID:        claims.Subject,
		WalletAddress: claims.WalletAddress,
	}, nil
}
