package services

import (
	"context"
	"errors"
	"net/mail"
	"strings"
	"sync"
	"time"

	"pollhub/db"
	"pollhub/models"
	"pollhub/utils"

	"github.com/rs/zerolog/log"
)

// SuperAdminCredentials is the environment-configured account checked
// before stored admins. Empty credentials disable it.
type SuperAdminCredentials struct {
	Username string
	Password string
}

// SessionUser is the identity carried by an admin token
type SessionUser struct {
	Username string `json:"username"`
	Role     string `json:"role"`
	IsAdmin  bool   `json:"isAdmin"`
}

// Session is the token pair handed out on login
type Session struct {
	Token            string      `json:"token"`
	ExpiresAt        time.Time   `json:"expires_at"`
	RefreshToken     string      `json:"-"`
	RefreshExpiresAt time.Time   `json:"-"`
	User             SessionUser `json:"user"`
}

// AuthStatus answers check-auth; it never fails
type AuthStatus struct {
	Authenticated bool         `json:"authenticated"`
	User          *SessionUser `json:"user"`
}

// CreateAdminInput describes a new stored admin
type CreateAdminInput struct {
	Username string
	Email    string
	Password string
	Role     string
}

const MinAdminPasswordLength = 8

type AdminAuthService struct {
	admins AdminStore
	tokens *utils.TokenService
	super  SuperAdminCredentials
	now    func() time.Time
	verify func(password, hash string) bool
}

func NewAdminAuthService(admins AdminStore, tokens *utils.TokenService, super SuperAdminCredentials) *AdminAuthService {
	return &AdminAuthService{
		admins: admins,
		tokens: tokens,
		super:  super,
		now:    time.Now,
		verify: utils.CheckPasswordHash,
	}
}

var (
	decoyOnce sync.Once
	decoy     string
)

// decoyHash is the bcrypt hash of a random secret. Unknown usernames are
// compared against it so they cost as much as a wrong password.
func decoyHash() string {
	decoyOnce.Do(func() {
		secret, err := utils.RandomSecret(32)
		if err == nil {
			decoy, err = utils.HashPassword(secret)
		}
		if err != nil {
			log.Error().Err(err).Msg("failed to prepare login decoy hash")
		}
	})
	return decoy
}

// Login checks the environment super admin first, then stored admins. Both
// failure modes report the same error.
func (s *AdminAuthService) Login(ctx context.Context, username, password string) (*Session, error) {
	username = trimmed(username)
	if username == "" || password == "" {
		return nil, ValidationError("username and password are required")
	}

	if s.isSuperAdmin(username, password) {
		log.Info().Str("username", username).Msg("super admin login")
		return s.issue(SessionUser{Username: username, Role: models.RoleSuperAdmin, IsAdmin: true})
	}

	admin, err := s.admins.FindByLogin(ctx, username)
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			s.verify(password, decoyHash())
			return nil, ErrInvalidCredentials
		}
		return nil, InternalError("failed to load admin", err)
	}
	// The hash is checked even for inactive accounts.
	matched := s.verify(password, admin.Password)
	if !admin.IsActive || !matched {
		return nil, ErrInvalidCredentials
	}
	if err := s.admins.TouchLogin(ctx, admin.ID, s.now()); err != nil {
		log.Warn().Err(err).Str("username", admin.Username).Msg("failed to record login time")
	}
	log.Info().Str("username", admin.Username).Str("role", admin.Role).Msg("admin login")
	return s.issue(SessionUser{Username: admin.Username, Role: admin.Role, IsAdmin: true})
}

// Refresh trades a valid refresh token for a new session. Stored admins
// are re-checked so deactivated accounts cannot refresh.
func (s *AdminAuthService) Refresh(ctx context.Context, refreshToken string) (*Session, error) {
	if refreshToken == "" {
		return nil, AuthenticationError("refresh token required")
	}
	claims, err := s.tokens.Verify(refreshToken)
	if err != nil || claims.Type != utils.TokenTypeRefresh {
		return nil, AuthenticationError("invalid or expired refresh token")
	}

	user := SessionUser{Username: claims.Username, Role: claims.Role, IsAdmin: true}
	if !(s.super.Username != "" && utils.SecureCompare(claims.Username, s.super.Username)) {
		admin, err := s.admins.FindByLogin(ctx, claims.Username)
		if err != nil {
			if errors.Is(err, db.ErrNotFound) {
				return nil, AuthenticationError("invalid or expired refresh token")
			}
			return nil, InternalError("failed to load admin", err)
		}
		if !admin.IsActive {
			return nil, AuthenticationError("account is disabled")
		}
		user.Role = admin.Role
	}
	return s.issue(user)
}

// Authenticate verifies an admin access token.
func (s *AdminAuthService) Authenticate(token string) (*SessionUser, error) {
	if token == "" {
		return nil, AuthenticationError("authentication required")
	}
	claims, err := s.tokens.Verify(token)
	if err != nil {
		if errors.Is(err, utils.ErrTokenExpired) {
			return nil, AuthenticationError("token has expired")
		}
		return nil, AuthenticationError("invalid token")
	}
	if claims.Type != utils.TokenTypeAccess || !claims.IsAdmin || !models.IsValidRole(claims.Role) {
		return nil, AuthenticationError("invalid token")
	}
	return &SessionUser{Username: claims.Username, Role: claims.Role, IsAdmin: true}, nil
}

// CheckAuth reports whether token is a valid admin session.
func (s *AdminAuthService) CheckAuth(token string) AuthStatus {
	user, err := s.Authenticate(token)
	if err != nil {
		return AuthStatus{}
	}
	return AuthStatus{Authenticated: true, User: user}
}

func (s *AdminAuthService) CreateAdmin(ctx context.Context, in CreateAdminInput) (*models.Admin, error) {
	username := trimmed(in.Username)
	if username == "" {
		return nil, ValidationError("username is required")
	}
	email := strings.ToLower(trimmed(in.Email))
	if _, err := mail.ParseAddress(email); err != nil {
		return nil, ValidationError("a valid email is required")
	}
	if len(in.Password) < MinAdminPasswordLength {
		return nil, ValidationError("password must be at least 8 characters")
	}
	role := in.Role
	if role == "" {
		role = models.RoleAdmin
	}
	if !models.IsValidRole(role) {
		return nil, ValidationError("role must be admin or super_admin")
	}
	if s.super.Username != "" && strings.EqualFold(username, s.super.Username) {
		return nil, ValidationError("username is reserved")
	}

	hash, err := utils.HashPassword(in.Password)
	if err != nil {
		return nil, InternalError("failed to hash password", err)
	}
	now := s.now()
	admin := &models.Admin{
		Username:  username,
		Email:     email,
		Password:  hash,
		Role:      role,
		IsActive:  true,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.admins.Create(ctx, admin); err != nil {
		if errors.Is(err, db.ErrDuplicateKey) {
			return nil, ValidationError("username or email already exists")
		}
		return nil, InternalError("failed to create admin", err)
	}
	return admin, nil
}

func (s *AdminAuthService) ListAdmins(ctx context.Context) ([]models.Admin, error) {
	admins, err := s.admins.List(ctx)
	if err != nil {
		return nil, InternalError("failed to list admins", err)
	}
	return admins, nil
}

func (s *AdminAuthService) isSuperAdmin(username, password string) bool {
	if s.super.Username == "" || s.super.Password == "" {
		return false
	}
	userOK := utils.SecureCompare(username, s.super.Username)
	passOK := utils.SecureCompare(password, s.super.Password)
	return userOK && passOK
}

func (s *AdminAuthService) issue(user SessionUser) (*Session, error) {
	token, expiresAt, err := s.tokens.IssueAdmin(user.Username, user.Role)
	if err != nil {
		return nil, InternalError("failed to issue token", err)
	}
	refresh, refreshExpiresAt, err := s.tokens.IssueRefresh(user.Username, user.Role)
	if err != nil {
		return nil, InternalError("failed to issue token", err)
	}
	return &Session{
		Token:            token,
		ExpiresAt:        expiresAt,
		RefreshToken:     refresh,
		RefreshExpiresAt: refreshExpiresAt,
		User:             user,
	}, nil
}

// ErrorLogService records and lists server-side failures
type ErrorLogService struct {
	logs ErrorLogStore
	now  func() time.Time
}

func NewErrorLogService(logs ErrorLogStore) *ErrorLogService {
	return &ErrorLogService{logs: logs, now: time.Now}
}

// Record stores entry; failures are logged and swallowed.
func (s *ErrorLogService) Record(ctx context.Context, entry models.ErrorLog) {
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = s.now()
	}
	if err := s.logs.Create(ctx, &entry); err != nil {
		log.Error().Err(err).Str("request_id", entry.RequestID).Msg("failed to persist error log")
	}
}

// ErrorLogList is one page of error logs, newest first
type ErrorLogList struct {
	Logs  []models.ErrorLog `json:"logs"`
	Total int64             `json:"total"`
	Page  int               `json:"page"`
	Limit int               `json:"limit"`
}

func (s *ErrorLogService) List(ctx context.Context, page, limit int) (*ErrorLogList, error) {
	p := normalizePage(page, limit, 50)
	items, total, err := s.logs.List(ctx, p)
	if err != nil {
		return nil, InternalError("failed to list error logs", err)
	}
	return &ErrorLogList{Logs: items, Total: total, Page: p.Page, Limit: p.Limit}, nil
}
