package dexscreener

// PairsResponse represents the API response of /latest/dex/pairs/{chain}
type PairsResponse struct {
	SchemaVersion string `json:"schemaVersion"`
	Pairs         []Pair `json:"pairs"`
}

// Pair is one trading pair. Pointer fields distinguish absent values from zero.
type Pair struct {
	ChainID       string              `json:"chainId"`
	DexID         string              `json:"dexId"`
	URL           string              `json:"url"`
	PairAddress   string              `json:"pairAddress"`
	BaseToken     *Token              `json:"baseToken"`
	QuoteToken    *Token              `json:"quoteToken"`
	PriceUSD      string              `json:"priceUsd"`
	Volume        map[string]*float64 `json:"volume"`
	PriceChange   map[string]*float64 `json:"priceChange"`
	FDV           *float64            `json:"fdv"`
	MarketCap     *float64            `json:"marketCap"`
	PairCreatedAt *int64              `json:"pairCreatedAt"`
}

// Token describes one side of a pair
type Token struct {
	Address string `json:"address"`
	Name    string `json:"name"`
	Symbol  string `json:"symbol"`
}
