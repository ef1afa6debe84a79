package server

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	auditdomain "github.com/weperezh01/isp-core/internal/audit/domain"
	auditservice "github.com/weperezh01/isp-core/internal/audit/service"
	authdomain "github.com/weperezh01/isp-core/internal/auth/domain"
	"github.com/weperezh01/isp-core/internal/authorization"
	permissiondomain "github.com/weperezh01/isp-core/internal/permission/domain"
)

// yesNoBool accepts JSON true/false as well as the legacy "Y"/"N" strings
// the mobile client sends.
type yesNoBool bool

func (b *yesNoBool) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	switch string(trimmed) {
	case "true", `"Y"`, `"y"`:
		*b = true
		return nil
	case "false", `"N"`, `"n"`:
		*b = false
		return nil
	}
	return &ValidationError{Field: "habilitado", Code: "invalid_enabled", Message: "enabled must be boolean or Y/N"}
}

// PermissionCatalog returns every toggleable permission.
func (s *Server) PermissionCatalog(c *gin.Context) {
	catalog, err := s.permissionSvc.Catalog(c.Request.Context())
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": catalog})
}

// ListUserPermissions returns the grants of one operator within the ISP,
// including their sync state.
func (s *Server) ListUserPermissions(c *gin.Context) {
	if err := s.authorize(c, authorization.ObjectPermission, authorization.ActionRead); err != nil {
		AbortWithError(c, err)
		return
	}
	ispID, _ := s.ispIDFromRequest(c)

	userID, err := parseIDParam(c, "id")
	if err != nil {
		AbortWithError(c, err)
		return
	}

	grants, err := s.permissionSvc.ListForUser(c.Request.Context(), ispID, userID)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": grants})
}

type togglePermissionRequest struct {
	PermissionID    int64     `json:"id_permiso"`
	SubPermissionID int64     `json:"id_subpermiso"`
	Enabled         yesNoBool `json:"habilitado"`
	ViewMode        string    `json:"modo_vista"`
}

// TogglePermission applies a grant change optimistically and queues it for
// the sync worker. An optional modo_vista updates the operator's preference
// in the same call, matching the original contract.
func (s *Server) TogglePermission(c *gin.Context) {
	if err := s.authorize(c, authorization.ObjectPermission, authorization.ActionToggle); err != nil {
		AbortWithError(c, err)
		return
	}
	ispID, _ := s.ispIDFromRequest(c)

	userID, err := parseIDParam(c, "id")
	if err != nil {
		AbortWithError(c, err)
		return
	}

	var req togglePermissionRequest
	if err := json.NewDecoder(c.Request.Body).Decode(&req); err != nil {
		var validation *ValidationError
		if errors.As(err, &validation) {
			AbortWithError(c, validation)
			return
		}
		AbortWithError(c, invalidRequestError())
		return
	}

	grant, err := s.permissionSvc.Toggle(c.Request.Context(), ispID, permissiondomain.ToggleRequest{
		UserID:          userID,
		PermissionID:    req.PermissionID,
		SubPermissionID: req.SubPermissionID,
		Enabled:         bool(req.Enabled),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	if mode := strings.TrimSpace(req.ViewMode); mode != "" {
		if err := s.authSvc.UpdateViewMode(c.Request.Context(), userID, authdomain.ViewMode(mode)); err != nil {
			AbortWithError(c, err)
			return
		}
	}

	if s.auditSvc != nil {
		s.auditSvc.Record(c.Request.Context(), auditservice.Entry{
			ISPID:      ispID,
			Action:     auditdomain.ActionPermissionToggle,
			TargetType: "user_permission",
			TargetID:   grant.ID.String(),
			Metadata: map[string]any{
				"id_usuario":    userID.String(),
				"id_permiso":    grant.PermissionID,
				"id_subpermiso": grant.SubPermissionID,
				"habilitado":    grant.Enabled,
			},
		})
	}

	c.JSON(http.StatusOK, gin.H{"data": grant})
}
