package rate

import (
	"github.com/smallbiznis/weighbill/internal/rate/repository"
	"github.com/smallbiznis/weighbill/internal/rate/service"
	"go.uber.org/fx"
)

var Module = fx.Module("rate.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
	fx.Provide(service.NewResolver),
)
