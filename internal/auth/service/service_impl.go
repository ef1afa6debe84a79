package service

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	authdomain "github.com/weperezh01/isp-core/internal/auth/domain"
	"github.com/weperezh01/isp-core/internal/auth/password"
	"github.com/weperezh01/isp-core/internal/clock"
	"github.com/weperezh01/isp-core/internal/config"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const minPasswordLen = 8

type ServiceParam struct {
	fx.In

	DB    *gorm.DB
	Log   *zap.Logger
	GenID *snowflake.Node
	Clock clock.Clock
	Cfg   config.Config
}

type Service struct {
	db  *gorm.DB
	log *zap.Logger

	genID      *snowflake.Node
	clock      clock.Clock
	sessionTTL time.Duration
}

func NewService(p ServiceParam) authdomain.Service {
	ttl := p.Cfg.SessionTTL
	if ttl <= 0 {
		ttl = 12 * time.Hour
	}
	return &Service{
		db:  p.DB,
		log: p.Log.Named("auth.service"),

		genID:      p.GenID,
		clock:      p.Clock,
		sessionTTL: ttl,
	}
}

func (s *Service) Register(ctx context.Context, req authdomain.RegisterRequest) (authdomain.User, error) {
	username := strings.ToLower(strings.TrimSpace(req.Username))
	email := strings.ToLower(strings.TrimSpace(req.Email))
	if username == "" {
		return authdomain.User{}, authdomain.ErrInvalidUsername
	}
	if email == "" || !strings.Contains(email, "@") {
		return authdomain.User{}, authdomain.ErrInvalidEmail
	}
	if len(req.Password) < minPasswordLen {
		return authdomain.User{}, authdomain.ErrWeakPassword
	}

	hash, err := password.Hash(req.Password)
	if err != nil {
		return authdomain.User{}, err
	}

	now := s.clock.Now()
	user := authdomain.User{
		ID:           s.genID.Generate(),
		Username:     username,
		Email:        email,
		FirstName:    strings.TrimSpace(req.FirstName),
		LastName:     strings.TrimSpace(req.LastName),
		PasswordHash: hash,
		Status:       authdomain.UserActive,
		ViewMode:     authdomain.ViewBasic,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	var existing int64
	err = s.db.WithContext(ctx).Raw(
		`SELECT COUNT(1) FROM users WHERE username = ? OR email = ?`,
		username, email,
	).Scan(&existing).Error
	if err != nil {
		return authdomain.User{}, err
	}
	if existing > 0 {
		return authdomain.User{}, authdomain.ErrUserExists
	}

	if err := s.db.WithContext(ctx).Create(&user).Error; err != nil {
		return authdomain.User{}, err
	}

	s.log.Info("user registered", zap.String("user_id", user.ID.String()), zap.String("username", username))
	return user, nil
}

func (s *Service) Login(ctx context.Context, req authdomain.LoginRequest) (authdomain.LoginResult, error) {
	username := strings.ToLower(strings.TrimSpace(req.Username))
	if username == "" || req.Password == "" {
		return authdomain.LoginResult{}, authdomain.ErrInvalidCredentials
	}

	var user authdomain.User
	err := s.db.WithContext(ctx).
		First(&user, "username = ? OR email = ?", username, username).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			// Burn a verification anyway so the timing does not leak
			// whether the account exists.
			password.Verify(req.Password, "$argon2id$v=19$m=65536,t=1,p=4$AAAAAAAAAAAAAAAAAAAAAA$AAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAA")
			return authdomain.LoginResult{}, authdomain.ErrInvalidCredentials
		}
		return authdomain.LoginResult{}, err
	}

	if !password.Verify(req.Password, user.PasswordHash) {
		return authdomain.LoginResult{}, authdomain.ErrInvalidCredentials
	}
	if user.Status != authdomain.UserActive {
		return authdomain.LoginResult{}, authdomain.ErrUserDisabled
	}

	token, err := newToken()
	if err != nil {
		return authdomain.LoginResult{}, err
	}

	now := s.clock.Now()
	session := authdomain.Session{
		ID:        s.genID.Generate(),
		UserID:    user.ID,
		TokenHash: hashToken(token),
		IP:        req.IP,
		UserAgent: req.UserAgent,
		ExpiresAt: now.Add(s.sessionTTL),
		CreatedAt: now,
	}
	if err := s.db.WithContext(ctx).Create(&session).Error; err != nil {
		return authdomain.LoginResult{}, err
	}

	s.log.Info("user logged in",
		zap.String("user_id", user.ID.String()),
		zap.String("session_id", session.ID.String()),
	)
	return authdomain.LoginResult{Token: token, User: user, Session: session}, nil
}

func (s *Service) Logout(ctx context.Context, token string) error {
	if token == "" {
		return authdomain.ErrInvalidSession
	}
	now := s.clock.Now()
	res := s.db.WithContext(ctx).Exec(
		`UPDATE sessions SET revoked_at = ? WHERE token_hash = ? AND revoked_at IS NULL`,
		now, hashToken(token),
	)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return authdomain.ErrInvalidSession
	}
	return nil
}

func (s *Service) Authenticate(ctx context.Context, token string) (authdomain.User, authdomain.Session, error) {
	if token == "" {
		return authdomain.User{}, authdomain.Session{}, authdomain.ErrInvalidSession
	}

	var session authdomain.Session
	err := s.db.WithContext(ctx).First(&session, "token_hash = ?", hashToken(token)).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return authdomain.User{}, authdomain.Session{}, authdomain.ErrInvalidSession
		}
		return authdomain.User{}, authdomain.Session{}, err
	}
	if session.Expired(s.clock.Now()) {
		return authdomain.User{}, authdomain.Session{}, authdomain.ErrSessionExpired
	}

	var user authdomain.User
	if err := s.db.WithContext(ctx).First(&user, "id = ?", session.UserID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return authdomain.User{}, authdomain.Session{}, authdomain.ErrInvalidSession
		}
		return authdomain.User{}, authdomain.Session{}, err
	}
	if user.Status != authdomain.UserActive {
		return authdomain.User{}, authdomain.Session{}, authdomain.ErrUserDisabled
	}
	return user, session, nil
}

// SelectISP pins the session to one tenant. Subsequent requests inherit it
// when no id_isp is supplied explicitly.
func (s *Service) SelectISP(ctx context.Context, token string, ispID snowflake.ID) error {
	if token == "" {
		return authdomain.ErrInvalidSession
	}
	res := s.db.WithContext(ctx).Exec(
		`UPDATE sessions SET isp_id = ? WHERE token_hash = ? AND revoked_at IS NULL AND expires_at > ?`,
		ispID, hashToken(token), s.clock.Now(),
	)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return authdomain.ErrInvalidSession
	}
	return nil
}

func (s *Service) GetUser(ctx context.Context, id snowflake.ID) (authdomain.User, error) {
	var user authdomain.User
	err := s.db.WithContext(ctx).First(&user, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return authdomain.User{}, authdomain.ErrUserNotFound
		}
		return authdomain.User{}, err
	}
	return user, nil
}

func (s *Service) ListUsers(ctx context.Context, ispID snowflake.ID) ([]authdomain.User, error) {
	var users []authdomain.User
	err := s.db.WithContext(ctx).Raw(
		`SELECT u.*
		 FROM users u
		 JOIN isp_members m ON m.user_id = u.id
		 WHERE m.isp_id = ?
		 ORDER BY u.username ASC`,
		ispID,
	).Scan(&users).Error
	if err != nil {
		return nil, err
	}
	return users, nil
}

func (s *Service) UpdateViewMode(ctx context.Context, userID snowflake.ID, mode authdomain.ViewMode) error {
	switch mode {
	case authdomain.ViewBasic, authdomain.ViewAdvanced:
	default:
		return authdomain.ErrInvalidViewMode
	}
	res := s.db.WithContext(ctx).Exec(
		`UPDATE users SET view_mode = ?, updated_at = ? WHERE id = ?`,
		mode, s.clock.Now(), userID,
	)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return authdomain.ErrUserNotFound
	}
	return nil
}

func newToken() (string, error) {
	raw := make([]byte, 32)
	if _, err := rand.Read(raw); err != nil {
		return "", err
	}
	return hex.EncodeToString(raw), nil
}

func hashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}
