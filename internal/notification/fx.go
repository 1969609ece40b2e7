package notification

import (
	"github.com/smallbiznis/coldchain/internal/notification/repository"
	"github.com/smallbiznis/coldchain/internal/notification/service"
	"go.uber.org/fx"
)

var Module = fx.Module("notification.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.NewService),
)
