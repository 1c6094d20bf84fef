package eveapi

import (
	"github.com/karmafleet/allianceledger/internal/config"
	"go.uber.org/fx"
)

func newFromConfig(cfg config.Config) Client {
	return NewClient(cfg.ESIBaseURL, cfg.ESIUserAgent)
}

var Module = fx.Module("eveapi",
	fx.Provide(newFromConfig),
)
