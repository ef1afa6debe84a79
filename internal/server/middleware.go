package server

import (
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	"github.com/weperezh01/isp-core/internal/auditcontext"
	"github.com/weperezh01/isp-core/internal/ispcontext"
)

const (
	contextUserIDKey = "user_id"
	contextISPIDKey  = "isp_id"
	contextTokenKey  = "session_token"

	// HeaderISP lets a client address a tenant other than the session's
	// selected one, subject to membership.
	HeaderISP = "X-ISP-Id"

	headerIdempotencyKey = "Idempotency-Key"

	sessionCacheTTL = time.Minute
)

// SessionRequired authenticates the bearer token and loads the operator onto
// the gin context. Recently seen tokens are served from the TTL cache.
func (s *Server) SessionRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		token, ok := bearerToken(c)
		if !ok {
			AbortWithError(c, ErrUnauthorized)
			return
		}

		entry, hit := s.sessionCache.Get(token)
		if !hit {
			user, session, err := s.authSvc.Authenticate(c.Request.Context(), token)
			if err != nil {
				AbortWithError(c, err)
				return
			}
			entry = sessionCacheEntry{User: user, Session: session}
			s.sessionCache.Set(token, entry, sessionCacheTTL)
		}

		c.Set(contextUserIDKey, entry.User.ID.String())
		c.Set(contextTokenKey, token)

		ctx := auditcontext.WithActor(c.Request.Context(), "user", entry.User.ID.String())
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}

// ISPRequired resolves the tenant for the request: the X-ISP-Id header when
// present, otherwise the session's selected ISP. Membership is enforced.
func (s *Server) ISPRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := s.userIDFromSession(c)
		if !ok {
			AbortWithError(c, ErrUnauthorized)
			return
		}

		ispID, err := s.resolveISPID(c)
		if err != nil {
			AbortWithError(c, err)
			return
		}

		isMember, err := s.ispSvc.IsMember(c.Request.Context(), ispID, userID)
		if err != nil {
			AbortWithError(c, err)
			return
		}
		if !isMember {
			AbortWithError(c, ErrForbidden)
			return
		}

		c.Set(contextISPIDKey, ispID.String())
		ctx := ispcontext.WithISPID(c.Request.Context(), int64(ispID))
		ctx = auditcontext.WithISPID(ctx, ispID.String())
		c.Request = c.Request.WithContext(ctx)

		// Navigation telemetry rides on the X-Screen header. Best effort.
		if screen := auditcontext.ScreenFromContext(ctx); screen != "" && s.auditSvc != nil {
			s.auditSvc.RecordNavigation(ctx, ispID, screen)
		}

		c.Next()
	}
}

func (s *Server) resolveISPID(c *gin.Context) (snowflake.ID, error) {
	if header := strings.TrimSpace(c.GetHeader(HeaderISP)); header != "" {
		ispID, err := snowflake.ParseString(header)
		if err != nil {
			return 0, newValidationError("isp_id", "invalid_isp_id", "invalid ISP id header")
		}
		return ispID, nil
	}

	token, _ := c.Get(contextTokenKey)
	raw, _ := token.(string)
	if raw != "" {
		if entry, ok := s.sessionCache.Get(raw); ok && entry.Session.ISPID != 0 {
			return entry.Session.ISPID, nil
		}
	}
	return 0, newValidationError("isp_id", "missing_isp", "select an ISP or send the X-ISP-Id header")
}

type idempotencyState struct {
	StartedAt time.Time
}

// Idempotent rejects a repeated Idempotency-Key within the configured window.
// Requests without the header pass through untouched.
func (s *Server) Idempotent() gin.HandlerFunc {
	return func(c *gin.Context) {
		key := strings.TrimSpace(c.GetHeader(headerIdempotencyKey))
		if key == "" {
			c.Next()
			return
		}

		userID, _ := s.userIDFromSession(c)
		cacheKey := userID.String() + "|" + c.Request.Method + "|" + c.FullPath() + "|" + key
		if _, exists := s.idempotency.Get(cacheKey); exists {
			AbortWithError(c, ErrConflict)
			return
		}
		s.idempotency.Set(cacheKey, idempotencyState{StartedAt: time.Now().UTC()}, s.cfg.IdempotencyWindow)

		c.Next()
	}
}

// LoginRateLimited applies the fixed-window limiter keyed by client IP.
func (s *Server) LoginRateLimited() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !s.loginLimiter.Allow(c.ClientIP()) {
			AbortWithError(c, ErrTooManyRequests)
			return
		}
		c.Next()
	}
}

func (s *Server) userIDFromSession(c *gin.Context) (snowflake.ID, bool) {
	value, ok := c.Get(contextUserIDKey)
	if !ok {
		return 0, false
	}
	raw, ok := value.(string)
	if !ok {
		return 0, false
	}
	userID, err := snowflake.ParseString(strings.TrimSpace(raw))
	if err != nil {
		return 0, false
	}
	return userID, true
}

func (s *Server) ispIDFromRequest(c *gin.Context) (snowflake.ID, bool) {
	value, ok := c.Get(contextISPIDKey)
	if !ok {
		return 0, false
	}
	raw, ok := value.(string)
	if !ok {
		return 0, false
	}
	ispID, err := snowflake.ParseString(raw)
	if err != nil {
		return 0, false
	}
	return ispID, true
}

func bearerToken(c *gin.Context) (string, bool) {
	header := strings.TrimSpace(c.GetHeader("Authorization"))
	if header == "" {
		return "", false
	}
	parts := strings.Fields(header)
	if len(parts) != 2 || parts[0] != "Bearer" || strings.TrimSpace(parts[1]) == "" {
		return "", false
	}
	return parts[1], true
}
