package truck

import (
	"github.com/smallbiznis/weighbill/internal/truck/repository"
	"github.com/smallbiznis/weighbill/internal/truck/service"
	"go.uber.org/fx"
)

var Module = fx.Module("truck.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
)
