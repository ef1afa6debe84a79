package invoice

import (
	"github.com/weperezh01/isp-core/internal/invoice/render"
	"github.com/weperezh01/isp-core/internal/invoice/service"
	"go.uber.org/fx"
)

var Module = fx.Module("invoice.service",
	fx.Provide(render.NewRenderer),
	fx.Provide(service.NewService),
)
