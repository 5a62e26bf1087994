package enums

import "fmt"

// AffiliateCommissionStatus tracks payment of an affiliate referral fee.
type AffiliateCommissionStatus string

const (
	AffiliateCommissionStatusPending    AffiliateCommissionStatus = "pending"
	AffiliateCommissionStatusProcessing AffiliateCommissionStatus = "processing"
	AffiliateCommissionStatusPaid       AffiliateCommissionStatus = "paid"
)

// String implements fmt.Stringer.
func (s AffiliateCommissionStatus) String() string {
	return string(s)
}

// IsValid reports whether the value is a known AffiliateCommissionStatus.
func (s AffiliateCommissionStatus) IsValid() bool {
	switch s {
	case AffiliateCommissionStatusPending,
		AffiliateCommissionStatusProcessing,
		AffiliateCommissionStatusPaid:
		return true
	}
	return false
}

// ParseAffiliateCommissionStatus converts raw input into an AffiliateCommissionStatus.
func ParseAffiliateCommissionStatus(value string) (AffiliateCommissionStatus, error) {
	if v := AffiliateCommissionStatus(value); v.IsValid() {
		return v, nil
	}
	return "", fmt.Errorf("invalid affiliate commission status %q", value)
}
