package diff

// Stats is the aggregate view of a parse result. It is derived from
// the records, never independently mutated.
type Stats struct {
	FileCount int
	Additions int
	Deletions int
	Loading   bool // Supplied by the caller's fetch lifecycle
}

// HasChanges reports whether any file changed.
func (s Stats) HasChanges() bool {
	return s.FileCount > 0
}

// Aggregate folds per-file counts into totals. Loading reflects the
// caller's fetch state, not anything derived from the records.
func Aggregate(records []FileRecord, loading bool) Stats {
	stats := Stats{
		FileCount: len(records),
		Loading:   loading,
	}
	for _, r := range records {
		stats.Additions += r.Additions
		stats.Deletions += r.Deletions
	}
	return stats
}
