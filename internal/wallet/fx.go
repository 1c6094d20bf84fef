package wallet

import (
	"github.com/karmafleet/allianceledger/internal/wallet/repository"
	"go.uber.org/fx"
)

var Module = fx.Module("wallet",
	fx.Provide(repository.Provide),
)
