package rates

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/bwmarrin/snowflake"
	registrydomain "github.com/karmafleet/allianceledger/internal/registry/domain"
	"github.com/karmafleet/allianceledger/internal/taxes/domain"
	walletdomain "github.com/karmafleet/allianceledger/internal/wallet/domain"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

const taxChangeNotificationType = "CorpTaxChangeMsg"

// iskCurrencyLabel is the only currency the game reports tax changes in;
// anything else in the payload means the notification is not about ISK.
const iskCurrencyLabel = "UI/Common/ISK"

type taxChangePayload struct {
	CorpID            int64   `yaml:"corpID"`
	NewTaxRate        float64 `yaml:"newTaxRate"`
	CurrencyNameLabel *string `yaml:"currencyNameLabel"`
}

// Syncer rebuilds corporation rate history from in-game tax change
// notifications.
type Syncer struct {
	taxes    domain.Repository
	wallet   walletdomain.Repository
	registry registrydomain.Repository
	node     *snowflake.Node
	log      *zap.Logger
}

func NewSyncer(taxes domain.Repository, wallet walletdomain.Repository, registry registrydomain.Repository, node *snowflake.Node, log *zap.Logger) *Syncer {
	return &Syncer{
		taxes:    taxes,
		wallet:   wallet,
		registry: registry,
		node:     node,
		log:      log.Named("taxes.rates"),
	}
}

// SyncCorporation parses tax change notifications for one corporation and
// inserts the resulting rate points, ignoring ones already stored. With
// flushFirst the stored history is rebuilt from scratch.
func (s *Syncer) SyncCorporation(ctx context.Context, corporationID int64, flushFirst bool) (int, error) {
	notifications, err := s.wallet.ListNotificationsByType(ctx, nil, taxChangeNotificationType)
	if err != nil {
		return 0, fmt.Errorf("list notifications: %w", err)
	}

	seen := make(map[time.Time]bool, len(notifications))
	points := make([]domain.RatePoint, 0, len(notifications))
	for _, notification := range notifications {
		var payload taxChangePayload
		if err := yaml.Unmarshal([]byte(notification.Text), &payload); err != nil {
			s.log.Warn("unparseable tax change notification",
				zap.Int64("notification_id", notification.NotificationID),
				zap.Error(err),
			)
			continue
		}
		if payload.CorpID != corporationID {
			continue
		}
		if payload.CurrencyNameLabel != nil && *payload.CurrencyNameLabel != iskCurrencyLabel {
			continue
		}
		if seen[notification.Timestamp] {
			continue
		}
		seen[notification.Timestamp] = true
		points = append(points, domain.RatePoint{
			ID:            s.node.Generate(),
			CorporationID: corporationID,
			StartDate:     notification.Timestamp,
			TaxRate:       decimal.NewFromFloat(payload.NewTaxRate),
		})
	}

	if flushFirst {
		if err := s.taxes.DeleteRatePoints(ctx, corporationID); err != nil {
			return 0, fmt.Errorf("flush rate points: %w", err)
		}
	}
	if err := s.taxes.InsertRatePoints(ctx, points); err != nil {
		return 0, fmt.Errorf("insert rate points: %w", err)
	}
	return len(points), nil
}

// SyncAll runs SyncCorporation over every known corporation, joining
// per-corporation failures.
func (s *Syncer) SyncAll(ctx context.Context, flushFirst bool) error {
	ids, err := s.registry.ListCorporationIDs(ctx)
	if err != nil {
		return fmt.Errorf("list corporations: %w", err)
	}

	var errs []error
	for _, id := range ids {
		count, err := s.SyncCorporation(ctx, id, flushFirst)
		if err != nil {
			errs = append(errs, fmt.Errorf("corporation %d: %w", id, err))
			continue
		}
		if count > 0 {
			s.log.Debug("rate history synced",
				zap.Int64("corporation_id", id),
				zap.Int("points", count),
			)
		}
	}
	return errors.Join(errs...)
}
