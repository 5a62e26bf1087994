package enums

import "fmt"

// ConnectAccountStatus reflects the readiness of a vendor's connected
// account with the payment processor.
type ConnectAccountStatus string

const (
	ConnectAccountStatusNotConnected ConnectAccountStatus = "not_connected"
	ConnectAccountStatusPending      ConnectAccountStatus = "pending"
	ConnectAccountStatusActive       ConnectAccountStatus = "active"
	ConnectAccountStatusRestricted   ConnectAccountStatus = "restricted"
)

// String implements fmt.Stringer.
func (s ConnectAccountStatus) String() string {
	return string(s)
}

// IsValid reports whether the value is a known ConnectAccountStatus.
func (s ConnectAccountStatus) IsValid() bool {
	switch s {
	case ConnectAccountStatusNotConnected,
		ConnectAccountStatusPending,
		ConnectAccountStatusActive,
		ConnectAccountStatusRestricted:
		return true
	}
	return false
}

// IsReady reports whether the account can receive transfers.
func (s ConnectAccountStatus) IsReady() bool {
	return s == ConnectAccountStatusActive
}

// ParseConnectAccountStatus converts raw input into a ConnectAccountStatus.
func ParseConnectAccountStatus(value string) (ConnectAccountStatus, error) {
	if v := ConnectAccountStatus(value); v.IsValid() {
		return v, nil
	}
	return "", fmt.Errorf("invalid connect account status %q", value)
}
