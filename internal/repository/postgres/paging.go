package postgres

// Page bounds applied when a repository is called without going through ListQuery parsing.
const (
	fallbackLimit = 10
	limitCeiling  = 100
)

func clampPage(limit, offset int) (int, int) {
	switch {
	case limit <= 0:
		limit = fallbackLimit
	case limit > limitCeiling:
		limit = limitCeiling
	}
	return limit, max(offset, 0)
}
