package fridgerequest

import (
	"github.com/smallbiznis/coldchain/internal/fridgerequest/repository"
	"github.com/smallbiznis/coldchain/internal/fridgerequest/service"
	"go.uber.org/fx"
)

var Module = fx.Module("fridgerequest.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.NewService),
)
