// Package taxonomy maps upstream category strings onto the fixed set of
// categories the board displays, and declares which dataset supplies the
// stock and flow metric for each one.
package taxonomy

// Category is one of the board's display categories.
type Category string

const (
	Perps           Category = "Perps"
	DEX             Category = "DEX"
	Lending         Category = "Lending"
	LiquidStaking   Category = "Liquid Staking"
	StablecoinApps  Category = "Stablecoin Apps"
	Restaking       Category = "Restaking"
	Chain           Category = "Chain"
	CDP             Category = "CDP"
	Yield           Category = "Yield"
	LiquidRestaking Category = "Liquid Restaking"
)

// All lists every category. Order matters for display.
var All = []Category{
	Perps, DEX, Lending, LiquidStaking, StablecoinApps,
	Restaking, Chain, CDP, Yield, LiquidRestaking,
}

// Dataset names one of the aggregated upstream datasets a metric is read from.
type Dataset string

const (
	DatasetRegistry     Dataset = "registry"
	DatasetDexs         Dataset = "dexs"
	DatasetDerivatives  Dataset = "derivatives"
	DatasetFees         Dataset = "fees"
	DatasetOptions      Dataset = "options"
	DatasetStablecoins  Dataset = "stablecoins"
	DatasetChainRevenue Dataset = "chainRevenue"
)

// Field identifies a metric field on records of a dataset.
type Field string

const (
	FieldTVL           Field = "tvl"
	FieldTotal24h      Field = "total24h"
	FieldOpenInterest  Field = "openInterest"
	FieldStableMcap    Field = "stablecoinMcap"
	FieldRevenue7d     Field = "revenue7d"
	FieldNotional      Field = "notional"
)

// MetricRef points at one metric: which dataset to search and which field
// to read off the matched record.
type MetricRef struct {
	Label   string
	Dataset Dataset
	Field   Field
}

// Spec pairs the stock (capital) and flow (activity) metric for a category.
type Spec struct {
	Stock MetricRef
	Flow  MetricRef
}

// normalizeTable maps raw upstream category strings to board categories.
// Lookup is case-sensitive: upstream spells these consistently, and a new
// spelling should be added deliberately rather than matched loosely.
var normalizeTable = map[string]Category{
	"Derivatives":      Perps,
	"Perps":            Perps,
	"Dexs":             DEX,
	"Dexes":            DEX,
	"DEX":              DEX,
	"Lending":          Lending,
	"Liquid Staking":   LiquidStaking,
	"Stablecoins":      StablecoinApps,
	"Stablecoin":       StablecoinApps,
	"Restaking":        Restaking,
	"Restaked ETH":     Restaking,
	"Chain":            Chain,
	"CDP":              CDP,
	"Yield":            Yield,
	"Yield Aggregator": Yield,
	"Liquid Restaking": LiquidRestaking,
}

// Normalize maps a raw upstream category to a board category. Unknown
// categories return ok=false and the entity is dropped by the caller.
func Normalize(raw string) (Category, bool) {
	c, ok := normalizeTable[raw]
	return c, ok
}

var specs = map[Category]Spec{
	Perps: {
		Stock: MetricRef{Label: "Open Interest", Dataset: DatasetDerivatives, Field: FieldOpenInterest},
		Flow:  MetricRef{Label: "24h Volume", Dataset: DatasetDerivatives, Field: FieldTotal24h},
	},
	DEX: {
		Stock: MetricRef{Label: "TVL", Dataset: DatasetRegistry, Field: FieldTVL},
		Flow:  MetricRef{Label: "24h Volume", Dataset: DatasetDexs, Field: FieldTotal24h},
	},
	Lending: {
		Stock: MetricRef{Label: "TVL", Dataset: DatasetRegistry, Field: FieldTVL},
		Flow:  MetricRef{Label: "24h Revenue", Dataset: DatasetFees, Field: FieldTotal24h},
	},
	LiquidStaking: {
		Stock: MetricRef{Label: "TVL", Dataset: DatasetRegistry, Field: FieldTVL},
		Flow:  MetricRef{Label: "24h Revenue", Dataset: DatasetFees, Field: FieldTotal24h},
	},
	StablecoinApps: {
		Stock: MetricRef{Label: "TVL", Dataset: DatasetRegistry, Field: FieldTVL},
		Flow:  MetricRef{Label: "24h Revenue", Dataset: DatasetFees, Field: FieldTotal24h},
	},
	Restaking: {
		Stock: MetricRef{Label: "TVL", Dataset: DatasetRegistry, Field: FieldTVL},
		Flow:  MetricRef{Label: "24h Revenue", Dataset: DatasetFees, Field: FieldTotal24h},
	},
	Chain: {
		Stock: MetricRef{Label: "Stablecoin Mcap", Dataset: DatasetStablecoins, Field: FieldStableMcap},
		Flow:  MetricRef{Label: "7d Revenue", Dataset: DatasetChainRevenue, Field: FieldRevenue7d},
	},
	CDP: {
		Stock: MetricRef{Label: "TVL", Dataset: DatasetRegistry, Field: FieldTVL},
		Flow:  MetricRef{Label: "24h Revenue", Dataset: DatasetFees, Field: FieldTotal24h},
	},
	Yield: {
		Stock: MetricRef{Label: "TVL", Dataset: DatasetRegistry, Field: FieldTVL},
		Flow:  MetricRef{Label: "24h Revenue", Dataset: DatasetFees, Field: FieldTotal24h},
	},
	LiquidRestaking: {
		Stock: MetricRef{Label: "TVL", Dataset: DatasetRegistry, Field: FieldTVL},
		Flow:  MetricRef{Label: "24h Revenue", Dataset: DatasetFees, Field: FieldTotal24h},
	},
}

// MetricSpec returns the stock/flow spec for a category. Total over All:
// every category has an entry, enforced by TestMetricSpecTotal.
func MetricSpec(c Category) Spec {
	return specs[c]
}
