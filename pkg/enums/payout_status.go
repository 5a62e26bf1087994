package enums

import "fmt"

// PayoutStatus tracks a vendor payout ledger row through settlement.
type PayoutStatus string

const (
	PayoutStatusPending    PayoutStatus = "pending"
	PayoutStatusInProgress PayoutStatus = "in_progress"
	PayoutStatusCompleted  PayoutStatus = "completed"
	PayoutStatusFailed     PayoutStatus = "failed"
	PayoutStatusReversed   PayoutStatus = "reversed"
)

// String implements fmt.Stringer.
func (p PayoutStatus) String() string {
	return string(p)
}

// IsValid reports whether the value is a known PayoutStatus.
func (p PayoutStatus) IsValid() bool {
	switch p {
	case PayoutStatusPending,
		PayoutStatusInProgress,
		PayoutStatusCompleted,
		PayoutStatusFailed,
		PayoutStatusReversed:
		return true
	}
	return false
}

// ParsePayoutStatus converts raw input into a PayoutStatus.
func ParsePayoutStatus(value string) (PayoutStatus, error) {
	if v := PayoutStatus(value); v.IsValid() {
		return v, nil
	}
	return "", fmt.Errorf("invalid payout status %q", value)
}
