package server

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

type testCleanupRequest struct {
	Prefix string `json:"prefijo"`
}

// TestCleanup wipes seeded fixtures by name prefix. Never registered in
// production.
func (s *Server) TestCleanup(c *gin.Context) {
	if s.cfg.IsProduction() {
		AbortWithError(c, ErrNotFound)
		return
	}

	var req testCleanupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	prefix := strings.TrimSpace(req.Prefix)
	if prefix == "" {
		AbortWithError(c, newValidationError("prefijo", "required", "prefix is required"))
		return
	}

	ctx := c.Request.Context()
	ispIDs, err := s.loadISPIDsByPrefix(ctx, prefix)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	if err := s.deleteISPData(ctx, ispIDs); err != nil {
		AbortWithError(c, err)
		return
	}

	userIDs, err := s.loadUserIDsByPrefix(ctx, prefix)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	if err := s.deleteUserData(ctx, userIDs); err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (s *Server) loadISPIDsByPrefix(ctx context.Context, prefix string) ([]int64, error) {
	like := strings.TrimSpace(prefix) + "%"
	var ispIDs []int64
	if err := s.db.WithContext(ctx).
		Table("isps").
		Select("id").
		Where("name LIKE ?", like).
		Scan(&ispIDs).Error; err != nil {
		return nil, err
	}
	return ispIDs, nil
}

func (s *Server) deleteISPData(ctx context.Context, ispIDs []int64) error {
	if len(ispIDs) == 0 {
		return nil
	}
	queries := []string{
		`DELETE FROM invoice_articles WHERE invoice_id IN (SELECT id FROM invoices WHERE isp_id IN ?)`,
		`DELETE FROM receipts WHERE isp_id IN ?`,
		`DELETE FROM invoices WHERE isp_id IN ?`,
		`DELETE FROM ncf_sequences WHERE isp_id IN ?`,
		`DELETE FROM billing_cycles WHERE isp_id IN ?`,
		`DELETE FROM connections WHERE isp_id IN ?`,
		`DELETE FROM routers WHERE isp_id IN ?`,
		`DELETE FROM clients WHERE isp_id IN ?`,
		`DELETE FROM user_permissions WHERE isp_id IN ?`,
		`DELETE FROM accounting_entry_lines WHERE entry_id IN (SELECT id FROM accounting_entries WHERE isp_id IN ?)`,
		`DELETE FROM accounting_entries WHERE isp_id IN ?`,
		`DELETE FROM accounting_accounts WHERE isp_id IN ?`,
		`DELETE FROM accounting_subscriptions WHERE isp_id IN ?`,
		`DELETE FROM isp_events WHERE isp_id IN ?`,
		`DELETE FROM isp_members WHERE isp_id IN ?`,
		`DELETE FROM isps WHERE id IN ?`,
	}
	for _, query := range queries {
		if err := s.db.WithContext(ctx).Exec(query, ispIDs).Error; err != nil {
			return err
		}
	}
	return nil
}

func (s *Server) loadUserIDsByPrefix(ctx context.Context, prefix string) ([]int64, error) {
	like := strings.TrimSpace(prefix) + "%"
	var userIDs []int64
	if err := s.db.WithContext(ctx).
		Table("users").
		Select("id").
		Where("username LIKE ?", like).
		Scan(&userIDs).Error; err != nil {
		return nil, err
	}
	return userIDs, nil
}

func (s *Server) deleteUserData(ctx context.Context, userIDs []int64) error {
	if len(userIDs) == 0 {
		return nil
	}
	queries := []string{
		`DELETE FROM sessions WHERE user_id IN ?`,
		`DELETE FROM user_permissions WHERE user_id IN ?`,
		`DELETE FROM isp_members WHERE user_id IN ?`,
		`DELETE FROM users WHERE id IN ?`,
	}
	for _, query := range queries {
		if err := s.db.WithContext(ctx).Exec(query, userIDs).Error; err != nil {
			return err
		}
	}
	return nil
}
