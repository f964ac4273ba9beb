package shaping

import (
	"strings"

	"MarketDash/internal/domain/models"
	"MarketDash/pkg/util"
)

var modelLabels = map[SeriesKey]string{
	SeriesARIMA:  "ARIMA",
	SeriesSARIMA: "SARIMA",
	SeriesGARCH:  "GARCH",
}

// ForecastSeries extracts the per-model series from a decision. The legacy
// "forecast" field stands in for ARIMA when the dedicated field is missing.
func ForecastSeries(d models.Decision) map[SeriesKey][]models.TimeSeriesPoint {
	arima := d.ForecastARIMA
	if len(arima) == 0 {
		arima = d.Forecast
	}
	return map[SeriesKey][]models.TimeSeriesPoint{
		SeriesARIMA:  nonNil(arima),
		SeriesSARIMA: nonNil(d.ForecastSARIMA),
		SeriesGARCH:  nonNil(d.ForecastGARCH),
	}
}

// BuildDecisionSummary shapes an upstream decision into chart rows, model
// summaries and a signal style. visible limits which series enter the chart;
// nil means all of them and an empty slice means none.
func BuildDecisionSummary(d models.Decision, visible []SeriesKey) models.DecisionSummary {
	if visible == nil {
		visible = AllSeries
	}
	show := make(map[SeriesKey]bool, len(visible))
	for _, k := range visible {
		show[k] = true
	}

	forecasts := ForecastSeries(d)
	history := historyOnly(d.History)

	inputs := make([]SeriesInput, 0, len(AllSeries))
	for _, key := range AllSeries {
		if !show[key] {
			continue
		}
		if key == SeriesHistory {
			inputs = append(inputs, SeriesInput{Key: key, Points: history})
			continue
		}
		inputs = append(inputs, SeriesInput{Key: key, Points: forecasts[key]})
	}

	summaries := make([]models.ModelSummary, 0, 3)
	for _, key := range []SeriesKey{SeriesARIMA, SeriesSARIMA, SeriesGARCH} {
		if !show[key] {
			continue
		}
		t, ok := DeriveTerminal(forecasts[key], d.LastPrice)
		if !ok {
			continue
		}
		summaries = append(summaries, models.ModelSummary{
			Model:         string(key),
			Terminal:      Round2(t.Value),
			PercentChange: Round2(t.PercentChange),
			Direction:     DirectionOf(t.PercentChange),
			Label:         modelLabels[key],
			TerminalLabel: FormatPrice(t.Value),
		})
	}

	direction := models.Direction(strings.ToUpper(d.ForecastDirection))
	sentiment := models.SentimentLabel(strings.ToUpper(d.SentimentLabel))
	if sentiment == "" {
		sentiment = SentimentFromScore(d.SentimentScore)
	}
	signal := models.ParseSignal(d.Signal)
	if signal == "" {
		signal = DeriveSignal(direction, sentiment)
	}

	confidence := d.ConfidencePct
	if confidence == 0 {
		if t, ok := DeriveTerminal(forecasts[SeriesARIMA], d.LastPrice); ok {
			confidence = Confidence(t.Value, d.LastPrice)
		}
	}

	series := make(map[string][]models.TimeSeriesPoint, len(forecasts))
	for k, v := range forecasts {
		series[string(k)] = v
	}

	name := d.DisplayName
	if name == "" {
		name = d.Symbol
	}

	return models.DecisionSummary{
		Symbol:            util.NormalizeSymbol(d.Symbol),
		DisplayName:       name,
		LastPrice:         d.LastPrice,
		Signal:            signal,
		Style:             SelectSignalStyle(signal),
		ConfidencePct:     confidence,
		ForecastDirection: direction,
		SentimentScore:    d.SentimentScore,
		SentimentLabel:    sentiment,
		News:              nonNilNews(d.News),
		History:           history,
		ForecastSeries:    series,
		Chart:             Merge(inputs...),
		Models:            summaries,
	}
}

// historyOnly drops any bounds a history series may carry.
func historyOnly(points []models.TimeSeriesPoint) []models.TimeSeriesPoint {
	out := make([]models.TimeSeriesPoint, 0, len(points))
	for _, p := range points {
		out = append(out, models.TimeSeriesPoint{Date: p.Date, Price: p.Price})
	}
	return out
}

func nonNil(points []models.TimeSeriesPoint) []models.TimeSeriesPoint {
	if points == nil {
		return []models.TimeSeriesPoint{}
	}
	return points
}

func nonNilNews(items []models.NewsItem) []models.NewsItem {
	if items == nil {
		return []models.NewsItem{}
	}
	return items
}
