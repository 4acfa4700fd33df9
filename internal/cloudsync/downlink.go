package cloudsync

import (
	"context"
	"time"

	"github.com/lootwatch/lootwatchd/pkg/log"
)

// runDownlink fetches the current season's aggregated prices, then price
// history limited to the TypeIds present in the active scope's inventory,
// to bound bandwidth.
func (w *Worker) runDownlink(ctx context.Context) {
	season := w.seasonID()
	if season == "" {
		return
	}

	prices, err := w.client.FetchSeasonPrices(ctx, season)
	if err != nil {
		log.Errorf("cloudsync: downlink: fetching season prices: %v", err)
		return
	}
	stored := 0
	for _, p := range prices {
		if p.TypeId == w.baseCurrency {
			continue
		}
		if err := w.store.UpsertCloudPrice(p); err != nil {
			log.Errorf("cloudsync: downlink: storing cloud price for type %d: %v", p.TypeId, err)
			continue
		}
		stored++
	}
	w.observer.DownlinkRows(stored)

	scope, ok := w.scope()
	if !ok || w.inventory == nil {
		return
	}
	typeIDs, err := w.inventory(scope)
	if err != nil {
		log.Warnf("cloudsync: downlink: resolving inventory scope: %v", err)
		return
	}

	since := time.Now().UTC().Add(-historyWindow)
	for _, t := range typeIDs {
		if ctx.Err() != nil {
			return
		}
		if t == w.baseCurrency {
			continue
		}
		rows, err := w.client.FetchPriceHistory(ctx, t, since)
		if err != nil {
			log.Warnf("cloudsync: downlink: fetching history for type %d: %v", t, err)
			continue
		}
		if err := w.store.UpsertPriceHistoryRows(t, rows); err != nil {
			log.Errorf("cloudsync: downlink: storing history for type %d: %v", t, err)
			continue
		}
		w.observer.DownlinkRows(len(rows))
	}
}
