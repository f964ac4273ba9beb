package usecase

import (
	"context"
	"fmt"
	"time"

	"MarketDash/internal/domain/models"
	domrepo "MarketDash/internal/domain/repository"
	"MarketDash/internal/services/shaping"
	"MarketDash/pkg/cache"

	"golang.org/x/sync/errgroup"
)

const mostActiveTiles = 8

// DashboardUseCase builds the read-only dashboard views.
type DashboardUseCase struct {
	backend domrepo.MarketBackend
	cache   cache.Service
	metrics domrepo.Metrics
	ttl     time.Duration
	layer   string
	now     func() time.Time
}

func NewDashboardUseCase(backend domrepo.MarketBackend, c cache.Service, metrics domrepo.Metrics, ttl time.Duration, layer string) *DashboardUseCase {
	if metrics == nil {
		metrics = domrepo.NopMetrics{}
	}
	return &DashboardUseCase{backend: backend, cache: c, metrics: metrics, ttl: ttl, layer: layer, now: time.Now}
}

// remember serves a view from the snapshot cache when one is configured.
func remember[T any](ctx context.Context, u *DashboardUseCase, key string, load func(context.Context) (T, error)) (T, error) {
	if u.cache == nil || u.ttl <= 0 {
		return load(ctx)
	}
	v, hit, err := cache.Remember(ctx, u.cache, cache.Key("view", key), u.ttl, load)
	if err == nil {
		u.metrics.RecordCache(u.layer, hit)
	}
	return v, err
}

// Overview fetches index history and index quote together. Both must succeed.
func (u *DashboardUseCase) Overview(ctx context.Context, period domrepo.Period) (models.OverviewView, error) {
	period = domrepo.NormalizePeriod(string(period))
	return remember(ctx, u, "overview:"+string(period), func(ctx context.Context) (models.OverviewView, error) {
		return u.fetchOverview(ctx, period)
	})
}

func (u *DashboardUseCase) fetchOverview(ctx context.Context, period domrepo.Period) (models.OverviewView, error) {
	var (
		quote   models.IndexQuote
		history []models.IndexPoint
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		history, err = u.backend.IndexHistory(gctx, period)
		return err
	})
	g.Go(func() error {
		var err error
		quote, err = u.backend.IndexQuote(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return models.OverviewView{}, fmt.Errorf("overview: %w", err)
	}
	return models.OverviewView{
		Period:    string(period),
		Quote:     quote,
		Direction: shaping.DirectionOf(quote.ChangePct),
		History:   history,
		Empty:     len(history) == 0 && quote.Value == 0,
		UpdatedAt: u.now().UTC(),
	}, nil
}

// Movers fetches movers and insights together. Both must succeed.
func (u *DashboardUseCase) Movers(ctx context.Context) (models.MoversView, error) {
	return remember(ctx, u, "movers", u.fetchMovers)
}

func (u *DashboardUseCase) fetchMovers(ctx context.Context) (models.MoversView, error) {
	var (
		snap     models.MoversSnapshot
		insights models.MarketInsights
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		snap, err = u.backend.Movers(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		insights, err = u.backend.Insights(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return models.MoversView{}, fmt.Errorf("movers: %w", err)
	}
	momentum := insights.Momentum
	if momentum == nil {
		momentum = []models.MomentumRow{}
	}
	return models.MoversView{
		Date:     snap.Date,
		Gainers:  shaping.MoverRows(snap.Gainers),
		Losers:   shaping.MoverRows(snap.Losers),
		Breadth:  insights.Breadth,
		Sectors:  shaping.SortSectors(insights.Sectors),
		Momentum: momentum,
		Empty:    len(snap.Gainers) == 0 && len(snap.Losers) == 0,
	}, nil
}

// Heatmap de-duplicates gainers and losers and classifies each cell.
func (u *DashboardUseCase) Heatmap(ctx context.Context) (models.HeatmapView, error) {
	return remember(ctx, u, "heatmap", func(ctx context.Context) (models.HeatmapView, error) {
		snap, err := u.backend.Movers(ctx)
		if err != nil {
			return models.HeatmapView{}, fmt.Errorf("heatmap: %w", err)
		}
		cells := shaping.CombineMovers(snap.Gainers, snap.Losers)
		return models.HeatmapView{
			Date:  snap.Date,
			Cells: shaping.MoverRows(cells),
			Empty: len(cells) == 0,
		}, nil
	})
}

// MostActive builds the headline and top tiles by volume.
func (u *DashboardUseCase) MostActive(ctx context.Context) (models.MostActiveView, error) {
	return remember(ctx, u, "most-active", func(ctx context.Context) (models.MostActiveView, error) {
		ma, err := u.backend.MostActive(ctx)
		if err != nil {
			return models.MostActiveView{}, fmt.Errorf("most active: %w", err)
		}
		tiles := shaping.TopByVolume(ma.TopStocks, mostActiveTiles)
		view := models.MostActiveView{Date: ma.Date, Tiles: shaping.MoverRows(tiles)}
		if ma.Symbol != "" {
			row := shaping.MoverRows([]models.MoverRecord{{
				Symbol:          ma.Symbol,
				Name:            ma.Name,
				LastTradedPrice: ma.LTP,
				PercentChange:   ma.PctChange,
				Volume:          ma.Volume,
				Source:          ma.Source,
			}})[0]
			view.Headline = &row
		} else if best, ok := shaping.SelectHeadline(ma.TopStocks); ok {
			row := shaping.MoverRows([]models.MoverRecord{best})[0]
			view.Headline = &row
		}
		view.Empty = view.Headline == nil
		return view, nil
	})
}

// Quotes returns the live watchlist. A forced refresh bypasses the cache.
func (u *DashboardUseCase) Quotes(ctx context.Context, refresh bool) (models.QuotesView, error) {
	if refresh {
		return u.fetchQuotes(ctx, true)
	}
	return remember(ctx, u, "quotes", func(ctx context.Context) (models.QuotesView, error) {
		return u.fetchQuotes(ctx, false)
	})
}

func (u *DashboardUseCase) fetchQuotes(ctx context.Context, refresh bool) (models.QuotesView, error) {
	lq, err := u.backend.LiveQuotes(ctx, refresh)
	if err != nil {
		return models.QuotesView{}, fmt.Errorf("quotes: %w", err)
	}
	return models.QuotesView{
		UpdatedAt: lq.UpdatedAt,
		Quotes:    shaping.MoverRows(shaping.QuotesToMovers(lq.Stocks)),
		Empty:     len(lq.Stocks) == 0,
	}, nil
}

// TopStocks returns the risk-ranked list, at most limit rows.
func (u *DashboardUseCase) TopStocks(ctx context.Context, limit int) (models.TopStocksView, error) {
	ts, err := remember(ctx, u, "top-stocks", func(ctx context.Context) (models.TopStocks, error) {
		return u.backend.TopStocks(ctx)
	})
	if err != nil {
		return models.TopStocksView{}, fmt.Errorf("top stocks: %w", err)
	}
	src := ts.Top10
	if limit > len(src) && len(ts.AllRanked) > len(src) {
		src = ts.AllRanked
	}
	rows := shaping.RankStocks(src, limit)
	return models.TopStocksView{Stocks: rows, Empty: len(rows) == 0}, nil
}
