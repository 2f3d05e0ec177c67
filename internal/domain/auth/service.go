package auth

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"net/mail"
	"slices"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"

	"bizbook/internal/core/apperror"
	appctx "bizbook/internal/core/context"
	"bizbook/internal/core/id"
	"bizbook/internal/core/tx"
	"bizbook/pkg/logger"
)

// ServiceConfig holds auth service configuration.
type ServiceConfig struct {
	MaxLoginAttempts   int
	LockDuration       time.Duration
	PasswordMinLength  int
	RefreshTokenExpiry time.Duration
	BcryptCost         int
}

// DefaultServiceConfig returns default configuration.
func DefaultServiceConfig() ServiceConfig {
	return ServiceConfig{
		MaxLoginAttempts:   5,
		LockDuration:       15 * time.Minute,
		PasswordMinLength:  8,
		RefreshTokenExpiry: 7 * 24 * time.Hour,
		BcryptCost:         bcrypt.DefaultCost,
	}
}

// Service provides authentication and user administration.
type Service struct {
	userRepo   UserRepository
	roleRepo   RoleRepository
	tokenRepo  TokenRepository
	txManager  tx.Manager
	jwtService *JWTService
	config     ServiceConfig
	now        func() time.Time
}

// NewService creates a new auth service.
func NewService(
	userRepo UserRepository,
	roleRepo RoleRepository,
	tokenRepo TokenRepository,
	txManager tx.Manager,
	jwtService *JWTService,
	config ServiceConfig,
) *Service {
	return &Service{
		userRepo:   userRepo,
		roleRepo:   roleRepo,
		tokenRepo:  tokenRepo,
		txManager:  txManager,
		jwtService: jwtService,
		config:     config,
		now:        func() time.Time { return time.Now().UTC() },
	}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (s *Service) validateCredentials(email, password string) error {
	if err := validateEmail(email); err != nil {
		return err
	}
	return s.validatePassword(password)
}

func validateEmail(email string) error {
	if email == "" {
		return apperror.NewValidation("email is required").WithDetail("field", "email")
	}
	if _, err := mail.ParseAddress(email); err != nil {
		return apperror.NewValidation("email is invalid").WithDetail("field", "email")
	}
	return nil
}

func (s *Service) validatePassword(password string) error {
	if len(password) < s.config.PasswordMinLength {
		return apperror.NewValidation(
			fmt.Sprintf("password must be at least %d characters", s.config.PasswordMinLength),
		).WithDetail("field", "password")
	}
	return nil
}

func (s *Service) hashPassword(password string) (string, error) {
	cost := s.config.BcryptCost
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(hash), nil
}

// Signup registers a user with the default role and signs them in.
func (s *Service) Signup(ctx context.Context, req SignupRequest) (*Session, error) {
	req.Email = normalizeEmail(req.Email)
	if err := s.validateCredentials(req.Email, req.Password); err != nil {
		return nil, err
	}

	passwordHash, err := s.hashPassword(req.Password)
	if err != nil {
		return nil, err
	}

	user := NewUser(req.Email, passwordHash)
	user.FirstName = strings.TrimSpace(req.FirstName)
	user.LastName = strings.TrimSpace(req.LastName)

	var tokens *TokenPair
	err = s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		exists, err := s.userRepo.Exists(ctx, user.Email)
		if err != nil {
			return fmt.Errorf("check email exists: %w", err)
		}
		if exists {
			return apperror.NewDuplicate("user", "email", user.Email)
		}

		if err := s.userRepo.Create(ctx, user); err != nil {
			return fmt.Errorf("create user: %w", err)
		}

		role, err := s.roleRepo.GetByCode(ctx, RoleUser)
		switch {
		case err == nil:
			if err := s.userRepo.SetRoles(ctx, user.ID, []id.ID{role.ID}, nil); err != nil {
				return fmt.Errorf("assign default role: %w", err)
			}
			user.Roles = []Role{*role}
		case apperror.IsNotFound(err):
			logger.Warn(ctx, "default role is missing", "role", RoleUser)
		default:
			return fmt.Errorf("load default role: %w", err)
		}
		user.resolvePermissions()

		tokens, err = s.issueTokens(ctx, user, req.UserAgent, req.IPAddress)
		return err
	})
	if err != nil {
		return nil, err
	}

	logger.Info(ctx, "user registered", "user_id", user.ID, "email", user.Email)
	return &Session{Tokens: tokens, User: user}, nil
}

// Login authenticates the user. Each wrong password counts towards the lockout.
func (s *Service) Login(ctx context.Context, creds Credentials) (*Session, error) {
	now := s.now()

	user, err := s.userRepo.GetByEmail(ctx, normalizeEmail(creds.Email))
	if err != nil {
		if apperror.IsNotFound(err) {
			return nil, apperror.NewUnauthorized("invalid credentials")
		}
		return nil, fmt.Errorf("find user: %w", err)
	}
	if err := user.CanLogin(now); err != nil {
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(creds.Password)); err != nil {
		user.RecordFailedLogin(now, s.config.MaxLoginAttempts, s.config.LockDuration)
		if err := s.userRepo.RecordLogin(ctx, user); err != nil {
			logger.Warn(ctx, "failed to record failed login", "user_id", user.ID, "error", err)
		}
		if user.IsLocked(now) {
			logger.Warn(ctx, "account locked", "user_id", user.ID, "attempts", user.FailedLoginAttempts)
		}
		return nil, apperror.NewUnauthorized("invalid credentials")
	}

	var tokens *TokenPair
	err = s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		if err := s.loadAccess(ctx, user); err != nil {
			return err
		}
		user.RecordSuccessfulLogin(now)
		if err := s.userRepo.RecordLogin(ctx, user); err != nil {
			return fmt.Errorf("record login: %w", err)
		}
		tokens, err = s.issueTokens(ctx, user, creds.UserAgent, creds.IPAddress)
		return err
	})
	if err != nil {
		return nil, err
	}

	logger.Info(ctx, "user logged in", "user_id", user.ID, "email", user.Email)
	return &Session{Tokens: tokens, User: user}, nil
}

// Refresh rotates a refresh token. Presenting a revoked token revokes every
// session of its user.
func (s *Service) Refresh(ctx context.Context, refreshToken string) (*TokenPair, error) {
	now := s.now()

	var tokens *TokenPair
	reused := false
	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		token, err := s.tokenRepo.GetRefreshToken(ctx, hashToken(refreshToken))
		if err != nil {
			if apperror.IsNotFound(err) {
				return apperror.NewUnauthorized("invalid refresh token")
			}
			return fmt.Errorf("find refresh token: %w", err)
		}

		if token.RevokedAt != nil && token.RevokedReason == revokedRotated {
			reused = true
			if err := s.tokenRepo.RevokeAllUserTokens(ctx, token.UserID, "reuse detected"); err != nil {
				return fmt.Errorf("revoke sessions: %w", err)
			}
			return nil
		}
		if !token.IsValid(now) {
			return apperror.NewUnauthorized("refresh token expired or revoked")
		}

		user, err := s.userRepo.GetByID(ctx, token.UserID)
		if err != nil {
			if apperror.IsNotFound(err) {
				return apperror.NewUnauthorized("user not found")
			}
			return fmt.Errorf("load user: %w", err)
		}
		if err := user.CanLogin(now); err != nil {
			return err
		}
		if err := s.loadAccess(ctx, user); err != nil {
			return err
		}

		if err := s.tokenRepo.RevokeRefreshToken(ctx, token.ID, revokedRotated); err != nil {
			return fmt.Errorf("revoke refresh token: %w", err)
		}
		tokens, err = s.issueTokens(ctx, user, token.UserAgent, token.IPAddress)
		return err
	})
	if err != nil {
		return nil, err
	}
	if reused {
		logger.Warn(ctx, "refresh token reused, sessions revoked")
		return nil, apperror.NewUnauthorized("refresh token expired or revoked")
	}
	return tokens, nil
}

const (
	revokedRotated = "rotated"
	revokedLogout  = "logout"
)

// Logout revokes the given refresh token. Unknown tokens are ignored.
func (s *Service) Logout(ctx context.Context, refreshToken string) error {
	token, err := s.tokenRepo.GetRefreshToken(ctx, hashToken(refreshToken))
	if err != nil {
		if apperror.IsNotFound(err) {
			return nil
		}
		return fmt.Errorf("find refresh token: %w", err)
	}
	if token.RevokedAt != nil {
		return nil
	}
	return s.tokenRepo.RevokeRefreshToken(ctx, token.ID, revokedLogout)
}

// LogoutAll revokes every refresh token of the user.
func (s *Service) LogoutAll(ctx context.Context, userID id.ID) error {
	return s.tokenRepo.RevokeAllUserTokens(ctx, userID, revokedLogout)
}

// Me returns the authenticated caller.
func (s *Service) Me(ctx context.Context) (*User, error) {
	uid, err := id.Parse(appctx.GetUserID(ctx))
	if err != nil {
		return nil, apperror.NewUnauthorized("authentication required")
	}
	return s.GetUser(ctx, uid)
}

// ValidateToken verifies an access token.
func (s *Service) ValidateToken(token string) (*appctx.UserContext, error) {
	return s.jwtService.ValidateToken(token)
}

// CleanupExpiredTokens removes refresh tokens that have expired.
func (s *Service) CleanupExpiredTokens(ctx context.Context) (int64, error) {
	return s.tokenRepo.CleanupExpiredTokens(ctx, s.now())
}

// loadAccess loads the roles of user and flattens their permissions.
func (s *Service) loadAccess(ctx context.Context, user *User) error {
	roles, err := s.userRepo.LoadRoles(ctx, user.ID)
	if err != nil {
		return fmt.Errorf("load roles: %w", err)
	}
	user.Roles = roles
	user.resolvePermissions()
	return nil
}

// issueTokens signs an access token and stores a new refresh token.
func (s *Service) issueTokens(ctx context.Context, user *User, userAgent, ip string) (*TokenPair, error) {
	now := s.now()

	accessToken, expiresAt, err := s.jwtService.GenerateAccessToken(user, now)
	if err != nil {
		return nil, fmt.Errorf("generate access token: %w", err)
	}

	raw, err := generateRandomToken(32)
	if err != nil {
		return nil, fmt.Errorf("generate refresh token: %w", err)
	}

	err = s.tokenRepo.SaveRefreshToken(ctx, &RefreshToken{
		ID:        id.New(),
		UserID:    user.ID,
		TokenHash: hashToken(raw),
		ExpiresAt: now.Add(s.config.RefreshTokenExpiry),
		CreatedAt: now,
		UserAgent: userAgent,
		IPAddress: ip,
	})
	if err != nil {
		return nil, fmt.Errorf("save refresh token: %w", err)
	}

	return &TokenPair{
		AccessToken:  accessToken,
		RefreshToken: raw,
		ExpiresAt:    expiresAt,
		TokenType:    "Bearer",
	}, nil
}

// hashToken creates SHA256 hash of token.
func hashToken(token string) string {
	hash := sha256.Sum256([]byte(token))
	return hex.EncodeToString(hash[:])
}

// generateRandomToken generates a random hex token of length bytes.
func generateRandomToken(length int) (string, error) {
	b := make([]byte, length)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}

// ListPermissions returns the static permission catalog.
func (s *Service) ListPermissions() []Permission {
	return Catalog()
}

// roleIDs resolves role codes to ids.
func (s *Service) roleIDs(ctx context.Context, codes []string) ([]id.ID, []Role, error) {
	ids := make([]id.ID, 0, len(codes))
	roles := make([]Role, 0, len(codes))
	for _, code := range codes {
		if slices.ContainsFunc(roles, func(r Role) bool { return r.Code == code }) {
			continue
		}
		role, err := s.roleRepo.GetByCode(ctx, code)
		if err != nil {
			if apperror.IsNotFound(err) {
				return nil, nil, apperror.NewValidation("unknown role").WithDetail("role", code)
			}
			return nil, nil, fmt.Errorf("load role: %w", err)
		}
		ids = append(ids, role.ID)
		roles = append(roles, *role)
	}
	return ids, roles, nil
}

func callerID(ctx context.Context) *id.ID {
	uid, err := id.Parse(appctx.GetUserID(ctx))
	if err != nil {
		return nil
	}
	return &uid
}
