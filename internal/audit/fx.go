package audit

import (
	"github.com/weperezh01/isp-core/internal/audit/repository"
	"github.com/weperezh01/isp-core/internal/audit/service"
	"go.uber.org/fx"
)

var Module = fx.Module("audit.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.NewService),
)
