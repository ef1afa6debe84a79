package connection

import (
	"github.com/weperezh01/isp-core/internal/connection/service"
	"go.uber.org/fx"
)

var Module = fx.Module("connection.service",
	fx.Provide(service.NewService),
)
