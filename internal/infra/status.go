package infra

import "strings"

// Status is the normalized operational status of an infrastructure point.
type Status string

const (
	StatusOperational Status = "operational"
	StatusMaintenance Status = "maintenance"
	StatusOffline     Status = "offline"
	StatusUnknown     Status = "unknown"
)

var allStatuses = []Status{StatusOperational, StatusMaintenance, StatusOffline, StatusUnknown}

func AllStatuses() []Status {
	out := make([]Status, len(allStatuses))
	copy(out, allStatuses)
	return out
}

func ParseStatus(raw string) (Status, bool) {
	s := Status(strings.ToLower(strings.TrimSpace(raw)))
	for _, known := range allStatuses {
		if s == known {
			return s, true
		}
	}
	return "", false
}

// statusRules are checked in order. INACTIVE contains ACTIVE, so offline markers
// have to be tested before the operational ones.
var statusRules = []struct {
	status  Status
	needles []string
}{
	{StatusMaintenance, []string{"MAINTENANCE", "REPAIR"}},
	{StatusOffline, []string{"OFFLINE", "INACTIVE", "CLOSED"}},
	{StatusOperational, []string{"OPERATIONAL", "ACTIVE"}},
}

// NormalizeStatus maps a backend status code onto the fixed enumeration using
// case-insensitive substring matching. Unrecognized codes are unknown.
func NormalizeStatus(code string) Status {
	code = strings.ToUpper(strings.TrimSpace(code))
	if code == "" {
		return StatusUnknown
	}
	for _, rule := range statusRules {
		for _, needle := range rule.needles {
			if strings.Contains(code, needle) {
				return rule.status
			}
		}
	}
	return StatusUnknown
}
