package domain

// Severity score bounds and the cap applied to Normal reports.
const (
	MinSeverity       = 1
	MaxSeverity       = 10
	normalSeverityCap = 2
)

// SeverityBand maps a 1-10 score to its rubric tier label. Scores outside the
// valid range return "unknown"; callers validate before persisting, so an
// unknown band only appears when rendering untrusted input.
func SeverityBand(score int) string {
	switch {
	case score < MinSeverity || score > MaxSeverity:
		return "unknown"
	case score <= 2:
		return "minimal"
	case score <= 4:
		return "minor"
	case score <= 6:
		return "medium"
	case score <= 8:
		return "significant"
	default:
		return "catastrophic"
	}
}
