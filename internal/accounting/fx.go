package accounting

import (
	"github.com/karmafleet/allianceledger/internal/accounting/repository"
	"github.com/karmafleet/allianceledger/internal/accounting/service"
	"go.uber.org/fx"
)

var Module = fx.Module("accounting",
	fx.Provide(repository.Provide),
	fx.Provide(service.NewPoster),
	fx.Provide(service.NewReconciler),
	fx.Provide(service.NewSweeper),
	fx.Provide(service.NewReporter),
)
