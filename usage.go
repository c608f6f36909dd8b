package accrue

// Usage tracks token consumption.
//
//	InputTokens      = non-cached input tokens
//	CacheReadTokens  = tokens served from cache (cache hit)
//	CacheWriteTokens = tokens written to cache (cache creation)
//
// Total input tokens = InputTokens + CacheReadTokens + CacheWriteTokens.
type Usage struct {
	InputTokens      int
	OutputTokens     int
	CacheReadTokens  int
	CacheWriteTokens int
}

// UsageDelta is the usage carried by a message_delta event.
// A nil field was absent or null on the wire and must not overwrite the
// value already accumulated.
type UsageDelta struct {
	InputTokens      *int
	OutputTokens     *int
	CacheReadTokens  *int
	CacheWriteTokens *int
}

// Apply merges d into u. Present values overwrite, absent ones are kept.
func (d UsageDelta) Apply(u Usage) Usage {
	if d.InputTokens != nil {
		u.InputTokens = *d.InputTokens
	}
	if d.OutputTokens != nil {
		u.OutputTokens = *d.OutputTokens
	}
	if d.CacheReadTokens != nil {
		u.CacheReadTokens = *d.CacheReadTokens
	}
	if d.CacheWriteTokens != nil {
		u.CacheWriteTokens = *d.CacheWriteTokens
	}
	return u
}
