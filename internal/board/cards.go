package board

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/web3-frozen/defiboard/internal/coin"
	"github.com/web3-frozen/defiboard/internal/ethos"
	"github.com/web3-frozen/defiboard/internal/llama"
	"github.com/web3-frozen/defiboard/internal/metrics"
	"github.com/web3-frozen/defiboard/internal/overrides"
	"github.com/web3-frozen/defiboard/internal/taxonomy"
)

// Metric is one displayed value pair.
type Metric struct {
	Label    string  `json:"label"`
	ValueUSD float64 `json:"valueUsd"`
}

// Card is the normalized record the API returns per entity. Built once per
// request, never mutated afterwards.
type Card struct {
	Name               string              `json:"name"`
	AvatarURL          string              `json:"avatarUrl,omitempty"`
	EthosScore         float64             `json:"ethosScore"`
	EthosLevel         string              `json:"ethosLevel,omitempty"`
	Category           taxonomy.Category   `json:"category"`
	StockMetric        Metric              `json:"stockMetric"`
	FlowMetric         Metric              `json:"flowMetric"`
	ReviewDistribution *ethos.Distribution `json:"reviewDistribution,omitempty"`
}

// ReputationAPI is the slice of the ethos client the engine consumes.
type ReputationAPI interface {
	ScoreByHandle(ctx context.Context, handle string) (*ethos.Score, error)
}

// CoinAPI resolves coin ids to social handle and logo.
type CoinAPI interface {
	Lookup(ctx context.Context, id string) (*coin.Coin, error)
}

type Engine struct {
	analytics  AnalyticsAPI
	reputation ReputationAPI
	coins      CoinAPI
	logger     *slog.Logger
}

func NewEngine(analytics AnalyticsAPI, reputation ReputationAPI, coins CoinAPI, logger *slog.Logger) *Engine {
	return &Engine{analytics: analytics, reputation: reputation, coins: coins, logger: logger}
}

func overviewName(r llama.OverviewRow) string {
	if r.DisplayName != "" {
		return r.DisplayName
	}
	return r.Name
}

func readField(r llama.OverviewRow, f taxonomy.Field) float64 {
	switch f {
	case taxonomy.FieldOpenInterest:
		return r.OpenInterest
	default:
		return r.Total24h
	}
}

// lookup resolves one metric reference against the bundle. Registry and
// chain-revenue metrics are resolved by the caller, which holds the entity.
func (ds *Datasets) lookup(entityName string, ref taxonomy.MetricRef) (float64, bool) {
	var rows []llama.OverviewRow
	switch ref.Dataset {
	case taxonomy.DatasetDexs:
		rows = ds.Dexs
	case taxonomy.DatasetDerivatives:
		rows = ds.Derivatives
	case taxonomy.DatasetFees:
		rows = ds.Fees
	case taxonomy.DatasetOptions:
		rows = ds.Options
	case taxonomy.DatasetStablecoins:
		sc, ok := Match(entityName, ds.Stablecoins, func(s llama.StablecoinChain) string { return s.Name })
		if !ok {
			return 0, false
		}
		return sc.Mcap(), true
	default:
		return 0, false
	}

	row, ok := Match(entityName, rows, overviewName)
	if !ok {
		return 0, false
	}
	return readField(row, ref.Field), true
}

// BuildProtocolCard assembles one protocol card. An unmatched stock metric
// falls back to the registry TVL, an unmatched flow metric to zero; a
// protocol card is always produced.
func (e *Engine) BuildProtocolCard(p llama.Protocol, cat taxonomy.Category, ds *Datasets, rep *ethos.Score) *Card {
	spec := taxonomy.MetricSpec(cat)

	stock := p.TVL
	if spec.Stock.Dataset != taxonomy.DatasetRegistry {
		if v, ok := ds.lookup(p.Name, spec.Stock); ok {
			stock = v
		}
	}

	var flow float64
	if v, ok := ds.lookup(p.Name, spec.Flow); ok {
		flow = v
	}

	card := &Card{
		Name:        overrides.DisplayName(p.Name),
		AvatarURL:   overrides.Logo(p.Name, p.Logo),
		Category:    cat,
		StockMetric: Metric{Label: spec.Stock.Label, ValueUSD: stock},
		FlowMetric:  Metric{Label: spec.Flow.Label, ValueUSD: flow},
	}
	if rep != nil {
		card.EthosScore = rep.Score
		card.EthosLevel = rep.Level
	}
	return card
}

// ChainEntity is one chain enriched with identity and its 7d revenue flow.
type ChainEntity struct {
	Chain     llama.Chain
	Handle    string
	LogoURL   string
	Revenue7d float64
	Rep       *ethos.Score
}

// BuildChainCard assembles one chain card, or nil when the stock or flow
// metric resolves to zero. Chains drop on a zero metric; protocols degrade
// to a displayed zero instead.
func (e *Engine) BuildChainCard(ent ChainEntity, ds *Datasets) *Card {
	spec := taxonomy.MetricSpec(taxonomy.Chain)

	stock, _ := ds.lookup(ent.Chain.Name, spec.Stock)
	flow := ent.Revenue7d
	if stock == 0 || flow == 0 {
		metrics.CardsDroppedTotal.WithLabelValues("chain", "zero_metric").Inc()
		return nil
	}

	card := &Card{
		Name:        overrides.DisplayName(ent.Chain.Name),
		AvatarURL:   overrides.Logo(ent.Chain.Name, ent.LogoURL),
		Category:    taxonomy.Chain,
		StockMetric: Metric{Label: spec.Stock.Label, ValueUSD: stock},
		FlowMetric:  Metric{Label: spec.Flow.Label, ValueUSD: flow},
	}
	if ent.Rep != nil {
		card.EthosScore = ent.Rep.Score
		card.EthosLevel = ent.Rep.Level
	}
	return card
}

// score resolves reputation for a handle, degrading errors to a nil score.
func (e *Engine) score(ctx context.Context, handle string) *ethos.Score {
	if handle == "" {
		return nil
	}
	rep, err := e.reputation.ScoreByHandle(ctx, handle)
	if err != nil {
		e.logger.Warn("reputation lookup failed", "handle", handle, "error", err)
		return nil
	}
	return rep
}

// ProtocolCards returns one card per protocol above the TVL threshold.
// Excluded entities and unknown categories are dropped before any metric
// or reputation resolution; per-entity reputation is fanned out in parallel.
func (e *Engine) ProtocolCards(ctx context.Context, minTVL float64) []Card {
	ds := LoadDatasets(ctx, e.analytics, e.logger)

	type candidate struct {
		p   llama.Protocol
		cat taxonomy.Category
	}
	var candidates []candidate
	for _, p := range ds.Registry {
		if p.TVL < minTVL {
			continue
		}
		if overrides.Excluded(p.Name) {
			metrics.CardsDroppedTotal.WithLabelValues("protocol", "excluded").Inc()
			continue
		}
		cat, ok := taxonomy.Normalize(p.Category)
		if !ok {
			e.logger.Warn("unknown category, dropping protocol", "protocol", p.Name, "category", p.Category)
			metrics.CardsDroppedTotal.WithLabelValues("protocol", "unknown_category").Inc()
			continue
		}
		candidates = append(candidates, candidate{p: p, cat: cat})
	}

	results := make([]*Card, len(candidates))
	var wg sync.WaitGroup
	for i, c := range candidates {
		wg.Add(1)
		go func(i int, c candidate) {
			defer wg.Done()
			handle := overrides.Handle(c.p.Name, c.p.Twitter)
			rep := e.score(ctx, handle)
			results[i] = e.BuildProtocolCard(c.p, c.cat, ds, rep)
		}(i, c)
	}
	wg.Wait()

	cards := make([]Card, 0, len(results))
	for _, c := range results {
		if c != nil {
			cards = append(cards, *c)
			metrics.CardsBuiltTotal.WithLabelValues("protocol").Inc()
		}
	}
	return cards
}

// ChainCards returns one card per chain above the TVL threshold. Coin
// metadata lookups are capped per pass; cached lookups do not consume the
// budget inside the coin client, so the cap only limits cold traffic.
func (e *Engine) ChainCards(ctx context.Context, minTVL float64) []Card {
	ds := LoadDatasets(ctx, e.analytics, e.logger)

	var kept []llama.Chain
	for _, ch := range ds.Chains {
		if ch.TVL < minTVL {
			continue
		}
		if overrides.Excluded(ch.Name) {
			metrics.CardsDroppedTotal.WithLabelValues("chain", "excluded").Inc()
			continue
		}
		kept = append(kept, ch)
	}

	var lookups atomic.Int32
	results := make([]*Card, len(kept))
	var wg sync.WaitGroup
	for i, ch := range kept {
		wg.Add(1)
		go func(i int, ch llama.Chain) {
			defer wg.Done()

			ent := ChainEntity{Chain: ch}
			if ch.GeckoID != "" && lookups.Add(1) <= coin.LookupBudget {
				if meta, err := e.coins.Lookup(ctx, ch.GeckoID); err != nil {
					e.logger.Warn("coin lookup failed", "chain", ch.Name, "error", err)
				} else if meta != nil {
					ent.Handle = meta.Handle
					ent.LogoURL = meta.LogoURL
				}
			}
			ent.Handle = overrides.Handle(ch.Name, ent.Handle)
			ent.Rep = e.score(ctx, ent.Handle)
			ent.Revenue7d = e.chainRevenue7d(ctx, ch.Name)

			results[i] = e.BuildChainCard(ent, ds)
		}(i, ch)
	}
	wg.Wait()

	cards := make([]Card, 0, len(results))
	for _, c := range results {
		if c != nil {
			cards = append(cards, *c)
			metrics.CardsBuiltTotal.WithLabelValues("chain").Inc()
		}
	}
	return cards
}

// chainRevenue7d returns the latest trailing-7d revenue sum for a chain,
// zero when the series is unavailable.
func (e *Engine) chainRevenue7d(ctx context.Context, chain string) float64 {
	series, err := e.analytics.ChainRevenueSeries(ctx, chain)
	if err != nil {
		e.logger.Warn("chain revenue series failed", "chain", chain, "error", err)
		return 0
	}
	if len(series) == 0 {
		return 0
	}
	values := make([]float64, len(series))
	for i, p := range series {
		values[i] = p.Value
	}
	rolled := Rolling7(values)
	return rolled[len(rolled)-1]
}
