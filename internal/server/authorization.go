package server

import (
	"fmt"
	"strings"

	"github.com/gin-gonic/gin"
)

// authorize checks the session user against the resolved tenant for one
// object/action pair.
func (s *Server) authorize(c *gin.Context, object string, action string) error {
	if s.authzSvc == nil {
		return ErrForbidden
	}
	userID, ok := s.userIDFromSession(c)
	if !ok {
		return ErrUnauthorized
	}
	ispID, ok := s.ispIDFromRequest(c)
	if !ok {
		return ErrForbidden
	}
	actor := fmt.Sprintf("user:%s", userID.String())
	return s.authzSvc.Authorize(c.Request.Context(), actor, ispID.String(), strings.TrimSpace(object), strings.TrimSpace(action))
}
