package config

import (
	"errors"
	"log"
	"strings"
	"sync/atomic"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
)

// BankSettings controls how payments and invoices interact with the
// alliance bank corporation. Hot-reloadable from bank.yml.
type BankSettings struct {
	// BankCorporationID is the corporation whose wallet journal is swept
	// for incoming payments.
	BankCorporationID int64 `mapstructure:"bankCorporationID"`
	// IgnoredCorporationIDs are first parties whose transfers are never
	// treated as payments (e.g. the alliance holding corps themselves).
	IgnoredCorporationIDs []int64 `mapstructure:"ignoredCorporationIDs"`
	// OverlapDays is how far each invoice window reaches back past the
	// previous record's end. Duplicates are excluded by processed
	// markers, not by the window.
	OverlapDays int `mapstructure:"overlapDays"`
}

func DefaultBankSettings() BankSettings {
	return BankSettings{
		OverlapDays: 2,
	}
}

type BankSettingsHolder struct {
	current atomic.Value // holds BankSettings
}

func NewBankSettingsHolder() (*BankSettingsHolder, error) {
	v := viper.New()

	v.SetConfigName("bank")
	v.SetConfigType("yml")
	v.AddConfigPath("/var/lib/allianceledger/config")
	v.AddConfigPath("/etc/allianceledger")
	v.AddConfigPath(".")

	v.SetEnvPrefix("ALLIANCELEDGER")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
		defaults := DefaultBankSettings()
		v.SetDefault("bank.overlapDays", defaults.OverlapDays)
	}

	var cfg BankSettings
	if err := v.UnmarshalKey("bank", &cfg); err != nil {
		return nil, err
	}
	if err := validateBankSettings(cfg); err != nil {
		return nil, err
	}

	holder := &BankSettingsHolder{}
	holder.current.Store(cfg)

	v.WatchConfig()
	v.OnConfigChange(func(e fsnotify.Event) {
		var updated BankSettings
		if err := v.UnmarshalKey("bank", &updated); err != nil {
			log.Printf("[bank-config] reload failed: %v", err)
			return
		}
		if err := validateBankSettings(updated); err != nil {
			log.Printf("[bank-config] invalid config ignored: %v", err)
			return
		}
		holder.current.Store(updated)
		log.Printf("[bank-config] reloaded from %s", e.Name)
	})

	return holder, nil
}

// StaticBankSettings wraps fixed settings in a holder, bypassing the
// config file. Used by tests and one-shot tooling.
func StaticBankSettings(cfg BankSettings) *BankSettingsHolder {
	holder := &BankSettingsHolder{}
	holder.current.Store(cfg)
	return holder
}

func (h *BankSettingsHolder) Get() BankSettings {
	return h.current.Load().(BankSettings)
}

func validateBankSettings(cfg BankSettings) error {
	if cfg.OverlapDays < 0 {
		return errors.New("bank.overlapDays cannot be negative")
	}
	return nil
}
