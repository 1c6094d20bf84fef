package registry

import (
	"github.com/karmafleet/allianceledger/internal/registry/repository"
	"github.com/karmafleet/allianceledger/internal/registry/service"
	"go.uber.org/fx"
)

var Module = fx.Module("registry",
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
)
