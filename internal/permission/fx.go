package permission

import (
	"github.com/weperezh01/isp-core/internal/permission/service"
	"go.uber.org/fx"
)

var Module = fx.Module("permission.service",
	fx.Provide(service.NewService),
)
