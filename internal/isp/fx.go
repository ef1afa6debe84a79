package isp

import (
	"github.com/weperezh01/isp-core/internal/isp/service"
	"go.uber.org/fx"
)

var Module = fx.Module("isp.service",
	fx.Provide(service.NewService),
)
