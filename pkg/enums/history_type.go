package enums

import "fmt"

// HistoryType labels payment_history rows by what triggered them.
type HistoryType string

const (
	HistoryTypeInitialSubscription HistoryType = "initial_subscription"
	HistoryTypeRenewal             HistoryType = "renewal"
)

var validHistoryTypes = []HistoryType{
	HistoryTypeInitialSubscription,
	HistoryTypeRenewal,
}

// String implements fmt.Stringer.
func (h HistoryType) String() string {
	return string(h)
}

// IsValid reports whether the value is known.
func (h HistoryType) IsValid() bool {
	for _, candidate := range validHistoryTypes {
		if candidate == h {
			return true
		}
	}
	return false
}

// ParseHistoryType converts raw input into a HistoryType.
func ParseHistoryType(value string) (HistoryType, error) {
	for _, candidate := range validHistoryTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid history type %q", value)
}
