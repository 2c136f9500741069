package session

// UpdateKind classifies what changed in a session update event.
type UpdateKind int

const (
	// UpdateRecords: the record list was replaced (load, refresh,
	// mode switch).
	UpdateRecords UpdateKind = iota
	// UpdateViewState: collapse or expansion state changed for Keys.
	UpdateViewState
	// UpdateContent: prefetched file contents became available for Keys.
	UpdateContent
	// UpdateFocus: a focus request targets the record in Keys[0].
	UpdateFocus
	// UpdateFocusCleared: the transient focus highlight expired.
	UpdateFocusCleared
	// UpdateHeights: measured or estimated heights were invalidated.
	UpdateHeights
	// UpdateLoadFailed: a load attempt failed; Err carries the cause.
	UpdateLoadFailed
)

// Update is the payload delivered to session observers. The session
// publishes state-change notifications instead of invoking callbacks,
// so observers decide for themselves when to re-read snapshots.
type Update struct {
	Kind UpdateKind
	Mode Mode
	// Keys lists the affected record keys. Empty means the whole set.
	Keys []string
	Err  error
}
