package app

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"

	"award-seat-alerts/internal/alerting"
	"award-seat-alerts/internal/pipeline"
	"award-seat-alerts/internal/provider"
)

// SimulateAlert 基于当前 watch 配置构造一条合成告警并推送。
func (a *App) SimulateAlert(ctx context.Context, mileage int, seats int) error {
	if !a.Config.Alerting.Enabled {
		return errors.New("alerting 未启用")
	}

	notifier := a.newNotifier()
	if notifier == nil {
		return errors.New("未配置任何告警通道")
	}

	taxes := decimal.NewFromFloat(56.40)
	direct := true
	rec := provider.Availability{
		ID:             "simulated",
		Origin:         a.Config.Watch.Origin,
		Destination:    a.Config.Watch.Destination,
		Date:           a.Config.Watch.StartDate,
		Cabin:          a.Config.Watch.Cabin,
		Source:         firstSource(a.Config.Watch.Sources),
		MileageCost:    &mileage,
		RemainingSeats: &seats,
		Taxes:          &taxes,
		TaxesCurrency:  "USD",
		Direct:         &direct,
		UpdatedAt:      time.Now().UTC().Format(time.RFC3339),
	}

	signer := pipeline.NewSigner(a.Config.State.Signature)
	alert := alerting.Alert{
		Origin:         rec.Origin,
		Destination:    rec.Destination,
		Date:           rec.Date,
		Cabin:          rec.Cabin,
		Source:         rec.Source,
		MileageCost:    rec.MileageCost,
		Taxes:          rec.Taxes,
		TaxesCurrency:  rec.TaxesCurrency,
		RemainingSeats: rec.RemainingSeats,
		Signature:      string(signer.Sign(rec)),
		CycleID:        "simulated",
	}

	return notifier.Notify(ctx, alert)
}

func firstSource(sources []string) string {
	if len(sources) > 0 {
		return sources[0]
	}
	return "unknown"
}
