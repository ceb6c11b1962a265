package weighing

import (
	"github.com/smallbiznis/weighbill/internal/weighing/client"
	"github.com/smallbiznis/weighbill/internal/weighing/service"
	"go.uber.org/fx"
)

var Module = fx.Module("weighing.client",
	fx.Provide(client.New),
	fx.Provide(service.NewCollector),
)
