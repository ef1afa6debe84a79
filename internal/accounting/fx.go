package accounting

import (
	"github.com/weperezh01/isp-core/internal/accounting/service"
	"go.uber.org/fx"
)

var Module = fx.Module("accounting.service",
	fx.Provide(service.NewService),
)
