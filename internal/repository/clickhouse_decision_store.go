package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"MarketDash/internal/domain/models"
	domrepo "MarketDash/internal/domain/repository"
	pkgch "MarketDash/pkg/clickhouse"
	applogger "MarketDash/pkg/logger"
)

// DecisionTable is the archive table name.
const DecisionTable = "decision_events"

const insertColumns = "(ts, symbol, signal, confidence_pct, forecast_direction, sentiment_label, sentiment_score, last_price, from_cache, elapsed_ms)"

// DecisionSchema returns the idempotent DDL for the archive.
func DecisionSchema(database string) []string {
	return []string{
		fmt.Sprintf("CREATE DATABASE IF NOT EXISTS %s", database),
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s.%s (
    ts                 DateTime64(3, 'UTC'),
    symbol             LowCardinality(String),
    signal             LowCardinality(String),
    confidence_pct     Float64,
    forecast_direction LowCardinality(String),
    sentiment_label    LowCardinality(String),
    sentiment_score    Float64,
    last_price         Float64,
    from_cache         UInt8,
    elapsed_ms         Int64
) ENGINE = MergeTree
PARTITION BY toYYYYMM(ts)
ORDER BY (symbol, ts)
TTL toDateTime(ts) + INTERVAL 180 DAY`, database, DecisionTable),
	}
}

// CHDecisionStore implements DecisionArchive backed by ClickHouse.
type CHDecisionStore struct {
	ch    *pkgch.Client
	db    *sql.DB
	table string
	l     *applogger.Logger
}

func NewCHDecisionStore(ch *pkgch.Client, l *applogger.Logger) *CHDecisionStore {
	if l == nil {
		l = applogger.Nop()
	}
	return &CHDecisionStore{
		ch:    ch,
		db:    ch.DB(),
		table: ch.Database() + "." + DecisionTable,
		l:     l,
	}
}

func (s *CHDecisionStore) Init(ctx context.Context) error {
	return s.ch.InitSchema(ctx, DecisionSchema(s.ch.Database()))
}

func (s *CHDecisionStore) Store(ctx context.Context, ev models.DecisionEvent) error {
	return s.StoreBatch(ctx, []models.DecisionEvent{ev})
}

func (s *CHDecisionStore) StoreBatch(ctx context.Context, evs []models.DecisionEvent) error {
	const chunkSize = 1000
	for start := 0; start < len(evs); start += chunkSize {
		end := start + chunkSize
		if end > len(evs) {
			end = len(evs)
		}
		q, args := buildInsert(s.table, evs[start:end])
		if q == "" {
			continue
		}
		if _, err := s.db.ExecContext(ctx, q, args...); err != nil {
			s.l.Error("clickhouse insert decision error", applogger.String("table", s.table), applogger.Int("rows", end-start), applogger.Error(err))
			return fmt.Errorf("insert decisions: %w", err)
		}
	}
	return nil
}

// buildInsert renders a multi-row VALUES insert, skipping events without a symbol.
func buildInsert(table string, evs []models.DecisionEvent) (string, []interface{}) {
	values := make([]string, 0, len(evs))
	args := make([]interface{}, 0, len(evs)*10)
	for _, ev := range evs {
		if ev.Symbol == "" {
			continue
		}
		ts := ev.Timestamp
		if ts.IsZero() {
			ts = time.Now()
		}
		var cached uint8
		if ev.FromCache {
			cached = 1
		}
		values = append(values, "(?, ?, ?, ?, ?, ?, ?, ?, ?, ?)")
		args = append(args,
			ts.UTC(),
			ev.Symbol,
			string(ev.Signal),
			ev.ConfidencePct,
			string(ev.ForecastDirection),
			ev.SentimentLabel,
			ev.SentimentScore,
			ev.LastPrice,
			cached,
			ev.ElapsedMS,
		)
	}
	if len(values) == 0 {
		return "", nil
	}
	return fmt.Sprintf("INSERT INTO %s %s VALUES %s", table, insertColumns, strings.Join(values, ",")), args
}

// Query returns events for symbol within [from, to], newest first.
func (s *CHDecisionStore) Query(ctx context.Context, symbol string, from, to time.Time, limit int) ([]models.DecisionEvent, error) {
	start := time.Now()
	q := fmt.Sprintf(`
        SELECT ts, symbol, signal, confidence_pct, forecast_direction, sentiment_label,
               sentiment_score, last_price, from_cache, elapsed_ms
        FROM %s
        WHERE symbol = ? AND ts >= ? AND ts <= ?
        ORDER BY ts DESC
        LIMIT ?`, s.table)
	rows, err := s.db.QueryContext(ctx, q, symbol, from.UTC(), to.UTC(), limit)
	if err != nil {
		s.l.Error("clickhouse query decisions error", applogger.String("symbol", symbol), applogger.Error(err))
		return nil, fmt.Errorf("query decisions: %w", err)
	}
	defer rows.Close()

	out := make([]models.DecisionEvent, 0, limit)
	for rows.Next() {
		var (
			ev        models.DecisionEvent
			signal    string
			direction string
			cached    uint8
		)
		if err := rows.Scan(&ev.Timestamp, &ev.Symbol, &signal, &ev.ConfidencePct, &direction,
			&ev.SentimentLabel, &ev.SentimentScore, &ev.LastPrice, &cached, &ev.ElapsedMS); err != nil {
			return nil, fmt.Errorf("scan decision: %w", err)
		}
		ev.Signal = models.Signal(signal)
		ev.ForecastDirection = models.Direction(direction)
		ev.FromCache = cached == 1
		out = append(out, ev)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	s.l.Debug("clickhouse query decisions",
		applogger.String("symbol", symbol),
		applogger.Int("rows", len(out)),
		applogger.Duration("took", time.Since(start)),
	)
	return out, nil
}

func (s *CHDecisionStore) Health(ctx context.Context) error {
	return s.ch.Health(ctx)
}

// Close is a no-op; the client is owned by the app.
func (s *CHDecisionStore) Close() error { return nil }

var _ domrepo.DecisionArchive = (*CHDecisionStore)(nil)
