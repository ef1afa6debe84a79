package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	authdomain "github.com/weperezh01/isp-core/internal/auth/domain"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

type stubClock struct{ now time.Time }

func (c *stubClock) Now() time.Time { return c.now }

func newTestService(t *testing.T) (*Service, *stubClock) {
	t.Helper()
	db, err := gorm.Open(sqlite.Open("file:"+t.Name()+"?mode=memory&cache=shared"), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	for _, stmt := range []string{
		`CREATE TABLE IF NOT EXISTS users (
			id BIGINT PRIMARY KEY,
			username TEXT NOT NULL UNIQUE,
			email TEXT NOT NULL UNIQUE,
			first_name TEXT,
			last_name TEXT,
			password_hash TEXT NOT NULL,
			status TEXT NOT NULL DEFAULT 'activo',
			view_mode TEXT NOT NULL DEFAULT 'basico',
			created_at DATETIME NOT NULL,
			updated_at DATETIME NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS sessions (
			id BIGINT PRIMARY KEY,
			user_id BIGINT NOT NULL,
			token_hash TEXT NOT NULL UNIQUE,
			isp_id BIGINT,
			ip TEXT,
			user_agent TEXT,
			expires_at DATETIME NOT NULL,
			revoked_at DATETIME,
			created_at DATETIME NOT NULL
		)`,
	} {
		if err := db.Exec(stmt).Error; err != nil {
			t.Fatalf("create table: %v", err)
		}
	}

	node, err := snowflake.NewNode(1)
	if err != nil {
		t.Fatalf("snowflake: %v", err)
	}
	clk := &stubClock{now: time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)}
	return &Service{
		db:         db,
		log:        zap.NewNop(),
		genID:      node,
		clock:      clk,
		sessionTTL: 12 * time.Hour,
	}, clk
}

func TestRegisterAndLogin(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	user, err := svc.Register(ctx, authdomain.RegisterRequest{
		Username:  "WPerez",
		Email:     "wperez@example.do",
		FirstName: "Wilson",
		Password:  "clave-larga-1",
	})
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if user.Username != "wperez" {
		t.Fatalf("expected lowered username, got %q", user.Username)
	}
	if user.PasswordHash == "clave-larga-1" {
		t.Fatalf("password stored in plaintext")
	}

	res, err := svc.Login(ctx, authdomain.LoginRequest{Username: "wperez", Password: "clave-larga-1"})
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if res.Token == "" {
		t.Fatalf("expected a bearer token")
	}

	got, sess, err := svc.Authenticate(ctx, res.Token)
	if err != nil {
		t.Fatalf("authenticate: %v", err)
	}
	if got.ID != user.ID || sess.UserID != user.ID {
		t.Fatalf("authenticated wrong user")
	}
}

func TestLoginWrongPassword(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	if _, err := svc.Register(ctx, authdomain.RegisterRequest{
		Username: "maria",
		Email:    "maria@example.do",
		Password: "clave-larga-2",
	}); err != nil {
		t.Fatalf("register: %v", err)
	}

	_, err := svc.Login(ctx, authdomain.LoginRequest{Username: "maria", Password: "incorrecta"})
	if !errors.Is(err, authdomain.ErrInvalidCredentials) {
		t.Fatalf("expected invalid_credentials, got %v", err)
	}

	_, err = svc.Login(ctx, authdomain.LoginRequest{Username: "nadie", Password: "loquesea1"})
	if !errors.Is(err, authdomain.ErrInvalidCredentials) {
		t.Fatalf("expected invalid_credentials for unknown user, got %v", err)
	}
}

func TestRegisterValidation(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	cases := []struct {
		name string
		req  authdomain.RegisterRequest
		want error
	}{
		{"blank username", authdomain.RegisterRequest{Email: "a@b.do", Password: "clave-larga"}, authdomain.ErrInvalidUsername},
		{"bad email", authdomain.RegisterRequest{Username: "x1", Email: "no-arroba", Password: "clave-larga"}, authdomain.ErrInvalidEmail},
		{"short password", authdomain.RegisterRequest{Username: "x2", Email: "x2@b.do", Password: "corta"}, authdomain.ErrWeakPassword},
	}
	for _, tc := range cases {
		if _, err := svc.Register(ctx, tc.req); !errors.Is(err, tc.want) {
			t.Fatalf("%s: expected %v, got %v", tc.name, tc.want, err)
		}
	}

	if _, err := svc.Register(ctx, authdomain.RegisterRequest{
		Username: "dup", Email: "dup@b.do", Password: "clave-larga",
	}); err != nil {
		t.Fatalf("register: %v", err)
	}
	if _, err := svc.Register(ctx, authdomain.RegisterRequest{
		Username: "dup", Email: "otra@b.do", Password: "clave-larga",
	}); !errors.Is(err, authdomain.ErrUserExists) {
		t.Fatalf("expected user_already_exists")
	}
}

func TestSessionExpiryAndLogout(t *testing.T) {
	svc, clk := newTestService(t)
	ctx := context.Background()

	if _, err := svc.Register(ctx, authdomain.RegisterRequest{
		Username: "temporal",
		Email:    "temporal@example.do",
		Password: "clave-larga-3",
	}); err != nil {
		t.Fatalf("register: %v", err)
	}
	res, err := svc.Login(ctx, authdomain.LoginRequest{Username: "temporal", Password: "clave-larga-3"})
	if err != nil {
		t.Fatalf("login: %v", err)
	}

	clk.now = clk.now.Add(13 * time.Hour)
	if _, _, err := svc.Authenticate(ctx, res.Token); !errors.Is(err, authdomain.ErrSessionExpired) {
		t.Fatalf("expected session_expired, got %v", err)
	}

	clk.now = clk.now.Add(-13 * time.Hour)
	if err := svc.Logout(ctx, res.Token); err != nil {
		t.Fatalf("logout: %v", err)
	}
	if _, _, err := svc.Authenticate(ctx, res.Token); !errors.Is(err, authdomain.ErrSessionExpired) {
		t.Fatalf("expected revoked session to be expired, got %v", err)
	}
	if err := svc.Logout(ctx, res.Token); !errors.Is(err, authdomain.ErrInvalidSession) {
		t.Fatalf("expected second logout to fail, got %v", err)
	}
}

func TestSelectISP(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	if _, err := svc.Register(ctx, authdomain.RegisterRequest{
		Username: "selector",
		Email:    "selector@example.do",
		Password: "clave-larga-4",
	}); err != nil {
		t.Fatalf("register: %v", err)
	}
	res, err := svc.Login(ctx, authdomain.LoginRequest{Username: "selector", Password: "clave-larga-4"})
	if err != nil {
		t.Fatalf("login: %v", err)
	}

	if err := svc.SelectISP(ctx, res.Token, snowflake.ID(77)); err != nil {
		t.Fatalf("select isp: %v", err)
	}
	_, sess, err := svc.Authenticate(ctx, res.Token)
	if err != nil {
		t.Fatalf("authenticate: %v", err)
	}
	if sess.ISPID != snowflake.ID(77) {
		t.Fatalf("expected session pinned to isp 77, got %d", sess.ISPID)
	}
}
