package custodytest

// IOV is an asset type marker used in tests.
type IOV struct{}

// Ticker implements asset.Type.
func (IOV) Ticker() string { return "IOV" }

// ETH is a second asset type marker, for tests that mix assets.
type ETH struct{}

// Ticker implements asset.Type.
func (ETH) Ticker() string { return "ETH" }
