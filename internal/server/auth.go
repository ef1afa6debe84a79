package server

import (
	"net/http"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	auditdomain "github.com/weperezh01/isp-core/internal/audit/domain"
	auditservice "github.com/weperezh01/isp-core/internal/audit/service"
	authdomain "github.com/weperezh01/isp-core/internal/auth/domain"
)

// @Summary      Register operator
// @Description  Create a new operator account
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        request body authdomain.RegisterRequest true "Register Request"
// @Success      200  {object}  authdomain.User
// @Router       /auth/register [post]
func (s *Server) Register(c *gin.Context) {
	var req authdomain.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	user, err := s.authSvc.Register(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"usuario": user})
}

// @Summary      Login
// @Description  Exchange credentials for a bearer token
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        request body authdomain.LoginRequest true "Login Request"
// @Success      200  {object}  authdomain.LoginResult
// @Router       /auth/login [post]
func (s *Server) Login(c *gin.Context) {
	var req authdomain.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}
	req.IP = c.ClientIP()
	req.UserAgent = c.Request.UserAgent()

	result, err := s.authSvc.Login(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	if s.auditSvc != nil {
		s.auditSvc.Record(c.Request.Context(), auditservice.Entry{
			Action:     auditdomain.ActionLogin,
			TargetType: "user",
			TargetID:   result.User.ID.String(),
		})
	}

	c.JSON(http.StatusOK, result)
}

// @Summary      Logout
// @Description  Revoke the current session
// @Tags         auth
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  map[string]string
// @Router       /auth/logout [post]
func (s *Server) Logout(c *gin.Context) {
	token, ok := bearerToken(c)
	if !ok {
		AbortWithError(c, ErrUnauthorized)
		return
	}

	if err := s.authSvc.Logout(c.Request.Context(), token); err != nil {
		AbortWithError(c, err)
		return
	}
	s.sessionCache.Delete(token)

	if s.auditSvc != nil {
		s.auditSvc.Record(c.Request.Context(), auditservice.Entry{
			Action:     auditdomain.ActionLogout,
			TargetType: "session",
		})
	}

	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// Me returns the authenticated operator and their ISPs.
func (s *Server) Me(c *gin.Context) {
	userID, ok := s.userIDFromSession(c)
	if !ok {
		AbortWithError(c, ErrUnauthorized)
		return
	}

	user, err := s.authSvc.GetUser(c.Request.Context(), userID)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	isps, err := s.ispSvc.ListByUser(c.Request.Context(), userID)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"usuario": user, "isps": isps})
}

type selectISPRequest struct {
	ISPID string `json:"id_isp"`
}

// SelectISP pins the session to a tenant, the analog of picking an ISP on
// the start screen.
func (s *Server) SelectISP(c *gin.Context) {
	token, ok := bearerToken(c)
	if !ok {
		AbortWithError(c, ErrUnauthorized)
		return
	}

	var req selectISPRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}
	ispID, err := snowflake.ParseString(strings.TrimSpace(req.ISPID))
	if err != nil {
		AbortWithError(c, newValidationError("id_isp", "invalid_isp_id", "invalid ISP id"))
		return
	}

	userID, ok := s.userIDFromSession(c)
	if !ok {
		AbortWithError(c, ErrUnauthorized)
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

	if err := s.authSvc.SelectISP(c.Request.Context(), token, ispID); err != nil {
		AbortWithError(c, err)
		return
	}
	s.sessionCache.Delete(token)

	c.JSON(http.StatusOK, gin.H{"status": "ok", "id_isp": ispID.String()})
}

type updateViewModeRequest struct {
	ViewMode string `json:"modo_vista"`
}

// UpdateViewMode stores the operator's basic/advanced permission screen
// preference.
func (s *Server) UpdateViewMode(c *gin.Context) {
	userID, ok := s.userIDFromSession(c)
	if !ok {
		AbortWithError(c, ErrUnauthorized)
		return
	}

	var req updateViewModeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	mode := authdomain.ViewMode(strings.TrimSpace(req.ViewMode))
	if err := s.authSvc.UpdateViewMode(c.Request.Context(), userID, mode); err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// ListUsers lists the operators of the resolved ISP.
func (s *Server) ListUsers(c *gin.Context) {
	ispID, ok := s.ispIDFromRequest(c)
	if !ok {
		AbortWithError(c, ErrForbidden)
		return
	}

	users, err := s.authSvc.ListUsers(c.Request.Context(), ispID)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": users})
}
