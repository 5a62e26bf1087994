package enums

import "fmt"

// CommissionSource records which resolution tier produced a commission
// rate, kept alongside the rate for audit display.
type CommissionSource string

const (
	CommissionSourceProductRule     CommissionSource = "product_rule"
	CommissionSourceProductOverride CommissionSource = "product_override"
	CommissionSourceCategory        CommissionSource = "category"
	CommissionSourceVendor          CommissionSource = "vendor"
	CommissionSourceVendorTier      CommissionSource = "vendor_tier"
	CommissionSourceDefault         CommissionSource = "default"
)

// String implements fmt.Stringer.
func (s CommissionSource) String() string {
	return string(s)
}

// IsValid reports whether the value is a known CommissionSource.
func (s CommissionSource) IsValid() bool {
	switch s {
	case CommissionSourceProductRule,
		CommissionSourceProductOverride,
		CommissionSourceCategory,
		CommissionSourceVendor,
		CommissionSourceVendorTier,
		CommissionSourceDefault:
		return true
	}
	return false
}

// ParseCommissionSource converts raw input into a CommissionSource.
func ParseCommissionSource(value string) (CommissionSource, error) {
	if v := CommissionSource(value); v.IsValid() {
		return v, nil
	}
	return "", fmt.Errorf("invalid commission source %q", value)
}
