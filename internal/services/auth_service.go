package services

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/axellelanca/shorty/internal/apperrors"
	"github.com/axellelanca/shorty/internal/models"
	"github.com/axellelanca/shorty/internal/repository"
	"github.com/google/uuid"
)

// TokenType distinguishes the two JWT uses. Presenting one type where the
// other is expected is an authorization failure.
type TokenType string

const (
	TokenTypeAccess  TokenType = "access"
	TokenTypeRefresh TokenType = "refresh"
)

// Claims is the JWT payload: standard registered claims plus the token
// type, so a refresh token cannot be replayed as an access token.
type Claims struct {
	TokenType TokenType `json:"type"`
	jwt.RegisteredClaims
}

// TokenPair is what a successful login or registration hands back.
type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	TokenType    string `json:"token_type"`
}

// AuthService handles password hashing, token issuance and validation, and
// the lifecycle of persisted refresh tokens. Access tokens are stateless;
// refresh tokens are stored so they can be revoked.
type AuthService struct {
	userRepo  repository.UserRepository
	tokenRepo repository.TokenRepository

	secretKey  []byte
	accessTTL  time.Duration
	refreshTTL time.Duration

	now func() time.Time
}

// NewAuthService creates and returns a new instance of AuthService.
func NewAuthService(userRepo repository.UserRepository, tokenRepo repository.TokenRepository, secretKey string, accessTTL, refreshTTL time.Duration) *AuthService {
	return &AuthService{
		userRepo:   userRepo,
		tokenRepo:  tokenRepo,
		secretKey:  []byte(secretKey),
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
		now:        time.Now,
	}
}

// HashPassword hashes a plaintext password with bcrypt.
func (s *AuthService) HashPassword(plain string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(plain), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(hash), nil
}

// VerifyPassword reports whether plain matches the stored bcrypt hash.
func (s *AuthService) VerifyPassword(hashed, plain string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hashed), []byte(plain)) == nil
}

// EmitToken signs a new token of the given type for subject and returns
// the token string along with its expiration.
func (s *AuthService) EmitToken(subject string, tokenType TokenType) (string, time.Time, error) {
	var ttl time.Duration
	switch tokenType {
	case TokenTypeAccess:
		ttl = s.accessTTL
	case TokenTypeRefresh:
		ttl = s.refreshTTL
	default:
		return "", time.Time{}, fmt.Errorf("unknown token type: %s", tokenType)
	}

	now := s.now()
	expiresAt := now.Add(ttl)
	claims := Claims{
		TokenType: tokenType,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secretKey)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("failed to sign %s token: %w", tokenType, err)
	}
	return signed, expiresAt, nil
}

// Login verifies the credentials and issues a fresh token pair, persisting
// the refresh half. Unknown email fails NotFound; a wrong password fails
// Unauthorized.
func (s *AuthService) Login(email, password string) (*models.User, *TokenPair, error) {
	user, err := s.userRepo.FindByEmail(email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, apperrors.NotFound("user not found with email: %s", email)
		}
		return nil, nil, err
	}

	if !s.VerifyPassword(user.Password, password) {
		return nil, nil, apperrors.Unauthorized("incorrect password for user: %s", email)
	}

	pair, err := s.IssueTokens(user)
	if err != nil {
		return nil, nil, err
	}
	return user, pair, nil
}

// IssueTokens emits an access+refresh pair for an already-authenticated
// user and persists the refresh token row.
func (s *AuthService) IssueTokens(user *models.User) (*TokenPair, error) {
	accessToken, _, err := s.EmitToken(user.Email, TokenTypeAccess)
	if err != nil {
		return nil, err
	}
	refreshToken, refreshExpiresAt, err := s.EmitToken(user.Email, TokenTypeRefresh)
	if err != nil {
		return nil, err
	}

	row := &models.RefreshToken{
		Token:     refreshToken,
		UserID:    user.ID,
		ExpiresAt: refreshExpiresAt,
	}
	if err := s.tokenRepo.Create(row); err != nil {
		return nil, err
	}

	return &TokenPair{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		TokenType:    "Bearer",
	}, nil
}

// ValidateToken checks the signature, expiry and type of a token and
// returns its subject. Any failure is an authorization error.
func (s *AuthService) ValidateToken(tokenString string, want TokenType) (string, error) {
	return s.parseToken(tokenString, want, true)
}

func (s *AuthService) parseToken(tokenString string, want TokenType, validateExpiry bool) (string, error) {
	opts := []jwt.ParserOption{jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()})}
	if !validateExpiry {
		opts = append(opts, jwt.WithoutClaimsValidation())
	}

	var claims Claims
	_, err := jwt.ParseWithClaims(tokenString, &claims, func(t *jwt.Token) (any, error) {
		return s.secretKey, nil
	}, opts...)
	if err != nil {
		return "", apperrors.Unauthorized("invalid jwt token")
	}
	if claims.Subject == "" {
		return "", apperrors.Unauthorized("token subject not provided")
	}
	if claims.TokenType != want {
		return "", apperrors.Unauthorized("incorrect token type: expected %s", want)
	}
	return claims.Subject, nil
}

// ReemitAccessToken exchanges a refresh token for a fresh access token.
// The persisted row is authoritative for liveness: absent fails NotFound,
// revoked or past its stored expiration fails Gone, and a row discovered
// expired is flipped to revoked on the way out. The JWT itself is only
// checked for signature and type here.
func (s *AuthService) ReemitAccessToken(refreshToken string) (string, error) {
	subject, err := s.parseToken(refreshToken, TokenTypeRefresh, false)
	if err != nil {
		return "", err
	}

	row, err := s.tokenRepo.FindByToken(refreshToken)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", apperrors.NotFound("refresh token not found")
		}
		return "", err
	}

	if row.Revoked {
		return "", apperrors.Gone("refresh token has been revoked")
	}
	if !row.ExpiresAt.After(s.now()) {
		// Lazy revocation on first use past expiry.
		if err := s.tokenRepo.RevokeByID(row.ID); err != nil {
			return "", err
		}
		return "", apperrors.Gone("refresh token has expired")
	}

	accessToken, _, err := s.EmitToken(subject, TokenTypeAccess)
	if err != nil {
		return "", err
	}
	return accessToken, nil
}

// RevokeRefreshToken revokes the presented refresh token (logout).
func (s *AuthService) RevokeRefreshToken(refreshToken string) error {
	row, err := s.tokenRepo.FindByToken(refreshToken)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperrors.NotFound("refresh token not found")
		}
		return err
	}
	return s.tokenRepo.RevokeByID(row.ID)
}

// RevokeAllByUser revokes every active refresh token of a user ("log out
// everywhere") and returns the number of tokens affected.
func (s *AuthService) RevokeAllByUser(userID uuid.UUID) (int64, error) {
	return s.tokenRepo.RevokeAllByUser(userID)
}

// UserFromAccessToken resolves a validated access token to its user. It is
// the middleware's entry point; every failure is an authorization error so
// callers cannot distinguish bad tokens from deleted accounts.
func (s *AuthService) UserFromAccessToken(tokenString string) (*models.User, error) {
	subject, err := s.ValidateToken(tokenString, TokenTypeAccess)
	if err != nil {
		return nil, err
	}
	user, err := s.userRepo.FindByEmail(subject)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.Unauthorized("token subject no longer exists")
		}
		return nil, err
	}
	return user, nil
}
