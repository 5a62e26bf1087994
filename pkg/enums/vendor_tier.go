package enums

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// VendorTier classifies vendors by trailing revenue and drives their
// default commission rate.
type VendorTier string

const (
	VendorTierStandard   VendorTier = "standard"
	VendorTierSilver     VendorTier = "silver"
	VendorTierGold       VendorTier = "gold"
	VendorTierPlatinum   VendorTier = "platinum"
	VendorTierEnterprise VendorTier = "enterprise"
)

var tierDefaultRates = map[VendorTier]decimal.Decimal{
	VendorTierStandard:   decimal.NewFromInt(10),
	VendorTierSilver:     decimal.NewFromInt(8),
	VendorTierGold:       decimal.NewFromInt(6),
	VendorTierPlatinum:   decimal.NewFromInt(5),
	VendorTierEnterprise: decimal.NewFromInt(3),
}

// String implements fmt.Stringer.
func (t VendorTier) String() string {
	return string(t)
}

// IsValid reports whether the value is a known VendorTier.
func (t VendorTier) IsValid() bool {
	switch t {
	case VendorTierStandard,
		VendorTierSilver,
		VendorTierGold,
		VendorTierPlatinum,
		VendorTierEnterprise:
		return true
	}
	return false
}

// DefaultCommissionRate returns the commission percentage a vendor on
// this tier pays when no more specific rate applies.
func (t VendorTier) DefaultCommissionRate() decimal.Decimal {
	if rate, ok := tierDefaultRates[t]; ok {
		return rate
	}
	return tierDefaultRates[VendorTierStandard]
}

// ParseVendorTier converts raw input into a VendorTier.
func ParseVendorTier(value string) (VendorTier, error) {
	if v := VendorTier(value); v.IsValid() {
		return v, nil
	}
	return "", fmt.Errorf("invalid vendor tier %q", value)
}
