package shaping

import (
	"sort"
	"strings"

	"MarketDash/internal/domain/models"
)

// SectorToneFor maps a sector label to its colour family. Unknown labels get SectorOther.
func SectorToneFor(sector string) models.SectorTone {
	switch strings.ToLower(strings.TrimSpace(sector)) {
	case "it":
		return models.SectorIT
	case "finance":
		return models.SectorFinance
	case "oil & gas":
		return models.SectorOilGas
	case "auto":
		return models.SectorAuto
	case "healthcare":
		return models.SectorHealthcare
	case "fmcg":
		return models.SectorFMCG
	case "metal":
		return models.SectorMetal
	case "power":
		return models.SectorPower
	case "telecom":
		return models.SectorTelecom
	case "construction":
		return models.SectorConstruction
	case "consumer durables":
		return models.SectorDurables
	case "services":
		return models.SectorServices
	default:
		return models.SectorOther
	}
}

// SortSectors orders sectors by average move, strongest first. Equal moves keep input order.
func SortSectors(sectors []models.SectorMove) []models.SectorMove {
	out := append([]models.SectorMove(nil), sectors...)
	sort.SliceStable(out, func(i, j int) bool { return out[i].AvgMove > out[j].AvgMove })
	return out
}

// RankStocks numbers ranked stocks from 1 and keeps at most limit of them.
func RankStocks(stocks []models.RankedStock, limit int) []models.RankedRow {
	if limit > 0 && len(stocks) > limit {
		stocks = stocks[:limit]
	}
	rows := make([]models.RankedRow, 0, len(stocks))
	for i, s := range stocks {
		rows = append(rows, models.RankedRow{RankedStock: s, Rank: i + 1, SectorTone: SectorToneFor(s.Sector)})
	}
	return rows
}
