package authorization

import (
	"context"
	"strconv"
	"strings"

	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Role capabilities. Owners and admins can do everything in their ISP;
// operators are limited to what their explicit permission grants allow, with
// reads always available.
var operatorActions = map[string]map[string]bool{
	ObjectInvoice:    {ActionRead: true, ActionEmit: true, ActionWrite: true},
	ObjectClient:     {ActionRead: true, ActionWrite: true},
	ObjectConnection: {ActionRead: true, ActionWrite: true},
	ObjectRouter:     {ActionRead: true},
	ObjectReceipt:    {ActionRead: true, ActionWrite: true},
	ObjectCycle:      {ActionRead: true},
	ObjectAccounting: {ActionRead: true},
	ObjectPermission: {ActionRead: true},
}

type ServiceParam struct {
	fx.In

	DB  *gorm.DB
	Log *zap.Logger
}

type ServiceImpl struct {
	db  *gorm.DB
	log *zap.Logger
}

func NewService(p ServiceParam) Service {
	return &ServiceImpl{
		db:  p.DB,
		log: p.Log.Named("authorization.service"),
	}
}

func (s *ServiceImpl) Authorize(ctx context.Context, actor string, ispID string, object string, action string) error {
	actor = strings.TrimSpace(actor)
	if actor == "" {
		return ErrInvalidActor
	}
	if actor == "system" {
		return nil
	}
	if strings.TrimSpace(object) == "" {
		return ErrInvalidObject
	}
	if strings.TrimSpace(action) == "" {
		return ErrInvalidAction
	}

	userRaw, ok := strings.CutPrefix(actor, "user:")
	if !ok {
		return ErrInvalidActor
	}
	userID, err := strconv.ParseInt(userRaw, 10, 64)
	if err != nil || userID == 0 {
		return ErrInvalidActor
	}
	isp, err := strconv.ParseInt(strings.TrimSpace(ispID), 10, 64)
	if err != nil || isp == 0 {
		return ErrInvalidISP
	}

	var role string
	err = s.db.WithContext(ctx).Raw(
		`SELECT role FROM isp_members WHERE isp_id = ? AND user_id = ?`,
		isp, userID,
	).Scan(&role).Error
	if err != nil {
		return err
	}

	switch role {
	case "OWNER", "ADMIN":
		return nil
	case "OPERATOR":
		if operatorActions[object][action] {
			return nil
		}
		return ErrForbidden
	default:
		// Not a member of this ISP.
		return ErrForbidden
	}
}
