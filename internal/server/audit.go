package server

import (
	"net/http"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	auditdomain "github.com/weperezh01/isp-core/internal/audit/domain"
	"github.com/weperezh01/isp-core/internal/authorization"
	"github.com/weperezh01/isp-core/pkg/db/pagination"
)

const defaultAuditPageSize = 50

// ListAuditLogs pages through the tenant audit trail, newest first.
func (s *Server) ListAuditLogs(c *gin.Context) {
	if err := s.authorize(c, authorization.ObjectAudit, authorization.ActionRead); err != nil {
		AbortWithError(c, err)
		return
	}
	ispID, _ := s.ispIDFromRequest(c)

	var page pagination.Pagination
	if err := c.ShouldBindQuery(&page); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}
	if page.PageSize <= 0 {
		page.PageSize = defaultAuditPageSize
	}
	if page.PageSize > 100 {
		page.PageSize = 100
	}

	filter := auditdomain.ListFilter{
		ISPID:  ispID,
		Action: c.Query("accion"),
		Limit:  page.PageSize + 1,
	}
	if cursor, err := decodeAuditCursor(page.PageToken); err != nil {
		AbortWithError(c, newValidationError("page_token", "invalid_page_token", "malformed page token"))
		return
	} else if cursor != nil {
		filter.Cursor = cursor
	}

	entries, err := s.auditSvc.List(c.Request.Context(), filter)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	pageInfo := pagination.BuildCursorPageInfo(entries, int32(page.PageSize), func(entry *auditdomain.AuditLog) string {
		token, err := pagination.EncodeCursor(pagination.Cursor{
			ID:        entry.ID.String(),
			CreatedAt: entry.CreatedAt.Format(time.RFC3339Nano),
		})
		if err != nil {
			return ""
		}
		return token
	})
	if len(entries) > page.PageSize {
		entries = entries[:page.PageSize]
	}

	c.JSON(http.StatusOK, gin.H{"data": entries, "page_info": pageInfo})
}

func decodeAuditCursor(token string) (*auditdomain.AuditCursor, error) {
	cursor, err := pagination.DecodeCursor(token)
	if err != nil {
		return nil, err
	}
	if cursor.ID == "" {
		return nil, nil
	}
	id, err := snowflake.ParseString(cursor.ID)
	if err != nil {
		return nil, err
	}
	createdAt, err := time.Parse(time.RFC3339Nano, cursor.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &auditdomain.AuditCursor{ID: id, CreatedAt: createdAt}, nil
}
