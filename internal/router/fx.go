package router

import (
	"github.com/weperezh01/isp-core/internal/router/service"
	"go.uber.org/fx"
)

var Module = fx.Module("router.service",
	fx.Provide(service.NewService),
)
