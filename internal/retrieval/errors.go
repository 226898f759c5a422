package retrieval

import "errors"

var (
	// ErrInvalidQuery is returned for queries that are empty after trimming or carry
	// out-of-range options. No channel is called.
	ErrInvalidQuery = errors.New("invalid query")
	// ErrChannelUnavailable wraps a channel failure. It is absorbed by Search and
	// only surfaces in logs and the partial flag.
	ErrChannelUnavailable = errors.New("retrieval channel unavailable")
	// ErrSystemUnavailable is returned when the store is unreachable after a retry and
	// no other channel produced results.
	ErrSystemUnavailable = errors.New("search system unavailable")
)
