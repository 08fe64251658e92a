package model

// Tables lists every table the engine needs, in creation order.
func Tables() []interface{} {
	return []interface{}{
		// 1. config
		&GlobalConfig{},

		// 2. ledger
		&TokenAccount{},
		&SystemAccount{},
		&LedgerEntry{},

		// 3. auctions
		&AssetMetadata{},
		&Auction{},
	}
}
