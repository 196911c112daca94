package entity

import "time"

type MarketplaceConfig struct {
	Admin                     string        `json:"admin"`
	ReferralBonus             uint64        `json:"referralBonus"`
	MinSalePrice              uint64        `json:"minSalePrice"`
	MinRentPrice              uint64        `json:"minRentPrice"`
	FeePercentage             uint64        `json:"feePercentage"`
	DefaultExpirationDuration time.Duration `json:"defaultExpirationDuration"`
}

// Fee is the platform cut of price, rounded down.
func (c MarketplaceConfig) Fee(price uint64) uint64 {
	return mulDiv(price, c.FeePercentage, 100)
}

type Referral struct {
	Referrer string `json:"referrer"`
	Count    uint64 `json:"count"`
}
