package taxes

import (
	"github.com/karmafleet/allianceledger/internal/taxes/rates"
	"github.com/karmafleet/allianceledger/internal/taxes/repository"
	"github.com/karmafleet/allianceledger/internal/taxes/service"
	"go.uber.org/fx"
)

var Module = fx.Module("taxes",
	fx.Provide(repository.Provide),
	fx.Provide(rates.NewSyncer),
	fx.Provide(service.NewAggregator),
	fx.Provide(service.NewComposer),
	fx.Provide(service.NewIssuer),
)
