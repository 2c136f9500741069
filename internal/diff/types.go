// Package diff turns raw unified diff text into stable, per-file
// structured records and aggregate statistics.
package diff

// NoFile is the path sentinel for "this side does not exist".
// Old side NoFile means the file was created; new side NoFile means
// it was deleted.
const NoFile = "/dev/null"

// LineKind represents the type of a diff line.
type LineKind int

const (
	LineContext    LineKind = iota // ' ' prefix - unchanged line
	LineAdded                      // '+' prefix - added line
	LineRemoved                    // '-' prefix - removed line
	LineHunkHeader                 // '@@ ... @@' - hunk marker
)

// Line represents a single line within a diff hunk.
type Line struct {
	Kind    LineKind
	OldNum  int    // Line number in old file (0 if added)
	NewNum  int    // Line number in new file (0 if removed)
	Content string // Line content without the +/-/space prefix
}

// Hunk represents one contiguous block of changes within a file.
type Hunk struct {
	OldStart int    // Starting line number in old file
	OldCount int    // Number of lines from old file
	NewStart int    // Starting line number in new file
	NewCount int    // Number of lines from new file
	Header   string // The @@ line text
	Lines    []Line
}

// FileRecord represents one changed file within a parse result.
//
// Key is derived deterministically from (OldPath, NewPath), so parsing
// identical input twice yields identical keys. Downstream view state
// and content caches are keyed by it across re-renders.
type FileRecord struct {
	Key       string // Stable identity for cache/state lookups
	OldPath   string // Path in old version (NoFile for created files)
	NewPath   string // Path in new version (NoFile for deleted files)
	DiffText  string // This file's segment of the raw diff, verbatim
	Additions int    // Count of added content lines
	Deletions int    // Count of removed content lines

	Binary     bool // True if the header signals binary content
	Valid      bool // False if the segment was truncated or unparseable
	Renamed    bool // True if the file was renamed
	Similarity int  // Rename similarity percentage (0-100)
	Untracked  bool // True for synthetic records built from untracked files

	Hunks []Hunk
}

// Created reports whether the record describes a newly created file.
func (r FileRecord) Created() bool {
	return r.OldPath == NoFile && r.NewPath != NoFile
}

// Deleted reports whether the record describes a deleted file.
func (r FileRecord) Deleted() bool {
	return r.OldPath != NoFile && r.NewPath == NoFile
}

// DisplayPath returns the path shown to the user: the new path unless
// the file was deleted, in which case the old path.
func (r FileRecord) DisplayPath() string {
	if r.NewPath != NoFile && r.NewPath != "" {
		return r.NewPath
	}
	return r.OldPath
}

// FetchPath returns the path content should be read from, preferring
// the new side. Returns NoFile when neither side exists on disk.
func (r FileRecord) FetchPath() string {
	if r.NewPath != NoFile && r.NewPath != "" {
		return r.NewPath
	}
	if r.OldPath != NoFile && r.OldPath != "" {
		return r.OldPath
	}
	return NoFile
}

// Status represents the classified change type of a file record.
type Status int

const (
	StatusModified Status = iota
	StatusAdded
	StatusDeleted
	StatusRenamed
	StatusBinary
	StatusUntracked
	StatusInvalid
)

// String returns a short human-readable name for the status.
func (s Status) String() string {
	switch s {
	case StatusModified:
		return "modified"
	case StatusAdded:
		return "added"
	case StatusDeleted:
		return "deleted"
	case StatusRenamed:
		return "renamed"
	case StatusBinary:
		return "binary"
	case StatusUntracked:
		return "untracked"
	case StatusInvalid:
		return "invalid"
	default:
		return "unknown"
	}
}

// FileStatus classifies a record for display purposes. Invalid and
// binary states win over path-derived classification since they change
// how the file is rendered.
func (r FileRecord) FileStatus() Status {
	switch {
	case !r.Valid:
		return StatusInvalid
	case r.Binary:
		return StatusBinary
	case r.Untracked:
		return StatusUntracked
	case r.Renamed:
		return StatusRenamed
	case r.Created():
		return StatusAdded
	case r.Deleted():
		return StatusDeleted
	default:
		return StatusModified
	}
}
