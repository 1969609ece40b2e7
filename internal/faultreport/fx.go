package faultreport

import (
	"github.com/smallbiznis/coldchain/internal/faultreport/repository"
	"github.com/smallbiznis/coldchain/internal/faultreport/service"
	"go.uber.org/fx"
)

var Module = fx.Module("faultreport.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.NewService),
)
