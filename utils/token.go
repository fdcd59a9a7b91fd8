package utils

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	ErrInvalidToken = errors.New("invalid token")
	ErrTokenExpired = errors.New("token has expired")
	ErrMissingKey   = errors.New("token secret is not configured")
)

// Token lifetimes
const (
	AdminTokenTTL        = 24 * time.Hour
	RefreshTokenTTL      = 7 * 24 * time.Hour
	SurveyAuthorTokenTTL = 30 * 24 * time.Hour
)

// Token types carried in the typ claim
const (
	TokenTypeAccess       = "access"
	TokenTypeRefresh      = "refresh"
	TokenTypeSurveyAuthor = "survey_author"
)

// JWT Functions
type Claims struct {
	Role     string `json:"role,omitempty"`
	IsAdmin  bool   `json:"isAdmin"`
	Username string `json:"username,omitempty"`
	SurveyID string `json:"survey_id,omitempty"`
	Type     string `json:"typ"`
	jwt.RegisteredClaims
}

// TokenService signs and verifies HS256 bearer tokens with a shared secret.
type TokenService struct {
	secret []byte
	now    func() time.Time
}

func NewTokenService(secret string) (*TokenService, error) {
	if secret == "" {
		return nil, ErrMissingKey
	}
	return &TokenService{secret: []byte(secret), now: time.Now}, nil
}

// Issue signs claims with the given lifetime and returns the token and its expiry.
func (s *TokenService) Issue(claims Claims, ttl time.Duration) (string, time.Time, error) {
	now := s.now()
	expiresAt := now.Add(ttl)
	claims.RegisteredClaims = jwt.RegisteredClaims{
		ExpiresAt: jwt.NewNumericDate(expiresAt),
		IssuedAt:  jwt.NewNumericDate(now),
		NotBefore: jwt.NewNumericDate(now),
		Subject:   claims.Username,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, &claims)
	signedToken, err := token.SignedString(s.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("failed to generate token: %w", err)
	}
	return signedToken, expiresAt, nil
}

func (s *TokenService) IssueAdmin(username, role string) (string, time.Time, error) {
	return s.Issue(Claims{Role: role, IsAdmin: true, Username: username, Type: TokenTypeAccess}, AdminTokenTTL)
}

func (s *TokenService) IssueRefresh(username, role string) (string, time.Time, error) {
	return s.Issue(Claims{Role: role, IsAdmin: true, Username: username, Type: TokenTypeRefresh}, RefreshTokenTTL)
}

func (s *TokenService) IssueSurveyAuthor(surveyID string) (string, time.Time, error) {
	return s.Issue(Claims{SurveyID: surveyID, Type: TokenTypeSurveyAuthor}, SurveyAuthorTokenTTL)
}

// Verify checks the signature and validity window of a token.
func (s *TokenService) Verify(tokenString string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, ErrInvalidToken
	}

	if !token.Valid {
		return nil, ErrInvalidToken
	}

	return claims, nil
}
