package board

import (
	"context"
	"log/slog"
	"sync"

	"github.com/web3-frozen/defiboard/internal/llama"
)

// Datasets is the aggregated bundle every card is resolved against. It is
// loaded once per request by a single fan-out-and-join; a failed branch
// leaves its slice empty rather than failing the bundle.
type Datasets struct {
	Registry    []llama.Protocol
	Chains      []llama.Chain
	Dexs        []llama.OverviewRow
	Derivatives []llama.OverviewRow
	Fees        []llama.OverviewRow
	Options     []llama.OverviewRow
	Stablecoins []llama.StablecoinChain
}

// AnalyticsAPI is the slice of the analytics client the engine consumes.
type AnalyticsAPI interface {
	Protocols(ctx context.Context) ([]llama.Protocol, error)
	Chains(ctx context.Context) ([]llama.Chain, error)
	Overview(ctx context.Context, kind llama.OverviewKind) ([]llama.OverviewRow, error)
	Options(ctx context.Context) ([]llama.OverviewRow, error)
	StablecoinChains(ctx context.Context) ([]llama.StablecoinChain, error)
	ChainRevenueSeries(ctx context.Context, chain string) ([]llama.RevenuePoint, error)
}

// LoadDatasets fetches every dataset concurrently. The join waits for all
// branches, so overall latency is bounded by the slowest branch. Branch
// failures degrade to empty datasets with a warning.
func LoadDatasets(ctx context.Context, api AnalyticsAPI, logger *slog.Logger) *Datasets {
	ds := &Datasets{}
	var wg sync.WaitGroup

	load := func(name string, fn func() error) {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := fn(); err != nil {
				logger.Warn("dataset fetch failed, continuing with empty", "dataset", name, "error", err)
			}
		}()
	}

	load("registry", func() (err error) { ds.Registry, err = api.Protocols(ctx); return })
	load("chains", func() (err error) { ds.Chains, err = api.Chains(ctx); return })
	load("dexs", func() (err error) { ds.Dexs, err = api.Overview(ctx, llama.OverviewDexs); return })
	load("derivatives", func() (err error) { ds.Derivatives, err = api.Overview(ctx, llama.OverviewDerivatives); return })
	load("fees", func() (err error) { ds.Fees, err = api.Overview(ctx, llama.OverviewFees); return })
	load("options", func() (err error) { ds.Options, err = api.Options(ctx); return })
	load("stablecoins", func() (err error) { ds.Stablecoins, err = api.StablecoinChains(ctx); return })

	wg.Wait()
	return ds
}
