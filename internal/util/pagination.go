package util

const (
	DefaultLimit = 100
	MaxLimit     = 1000
)

// Window normalises skip/limit query values into an offset and a bounded limit.
func Window(skip, limit int) (offset, size int) {
	if skip < 0 {
		skip = 0
	}
	if limit <= 0 {
		limit = DefaultLimit
	}
	if limit > MaxLimit {
		limit = MaxLimit
	}
	return skip, limit
}
