package diff

import (
	"encoding/hex"
	"hash/fnv"
	"regexp"
	"strconv"
	"strings"
)

var (
	// Regex patterns for diff parsing
	diffHeaderRegex      = regexp.MustCompile(`^diff --git a/(.+) b/(.+)$`)
	hunkHeaderRegex      = regexp.MustCompile(`^@@ -(\d+)(?:,(\d+))? \+(\d+)(?:,(\d+))? @@(.*)$`)
	oldFileRegex         = regexp.MustCompile(`^--- a/(.+)$`)
	newFileRegex         = regexp.MustCompile(`^\+\+\+ b/(.+)$`)
	oldFileNullRegex     = regexp.MustCompile(`^--- /dev/null$`)
	newFileNullRegex     = regexp.MustCompile(`^\+\+\+ /dev/null$`)
	similarityRegex      = regexp.MustCompile(`^similarity index (\d+)%$`)
	renameFromRegex      = regexp.MustCompile(`^rename from (.+)$`)
	renameToRegex        = regexp.MustCompile(`^rename to (.+)$`)
	binaryFilesRegex     = regexp.MustCompile(`^Binary files .+ and .+ differ$`)
	binaryPatchRegex     = regexp.MustCompile(`^GIT binary patch$`)
	modeChangeRegex      = regexp.MustCompile(`^(old|new) mode (\d+)$`)
	indexLineRegex       = regexp.MustCompile(`^index [a-f0-9]+\.\.[a-f0-9]+`)
	newFileModeRegex     = regexp.MustCompile(`^new file mode (\d+)$`)
	deletedFileModeRegex = regexp.MustCompile(`^deleted file mode (\d+)$`)
)

// Parse parses unified diff output into ordered FileRecord slices.
//
// Parsing is total and deterministic: malformed or truncated segments
// are never dropped and never cause an error. They come back as
// records with Valid=false, best-effort paths and partial stats, so
// the file still appears in the list in a degraded state. Output order
// matches order of appearance in the input, and two parses of the same
// input are structurally equal.
func Parse(raw string) []FileRecord {
	if raw == "" {
		return nil
	}

	segments := splitSegments(raw)
	if len(segments) == 0 {
		return nil
	}

	records := make([]FileRecord, 0, len(segments))
	seen := make(map[string]int, len(segments))
	for _, seg := range segments {
		rec := parseSegment(seg)
		rec.Key = deriveKey(rec.OldPath, rec.NewPath, seen)
		records = append(records, rec)
	}
	return records
}

// splitSegments slices the raw text into per-file segments on
// "diff --git" boundaries. Text with no such boundary but a ---/+++
// header pair is treated as a single plain unified-diff segment.
func splitSegments(raw string) []string {
	lines := strings.Split(raw, "\n")

	var starts []int
	for i, line := range lines {
		if strings.HasPrefix(line, "diff --git ") {
			starts = append(starts, i)
		}
	}

	if len(starts) == 0 {
		// Plain unified diff without git headers: single segment if
		// any file header is present, otherwise nothing to parse.
		for _, line := range lines {
			if strings.HasPrefix(line, "--- ") || strings.HasPrefix(line, "+++ ") {
				return []string{raw}
			}
		}
		return nil
	}

	segments := make([]string, 0, len(starts))
	for i, start := range starts {
		end := len(lines)
		if i+1 < len(starts) {
			end = starts[i+1]
		}
		segments = append(segments, strings.Join(lines[start:end], "\n"))
	}
	return segments
}

// deriveKey returns a stable identifier for an (oldPath, newPath)
// pair. The hash depends only on the paths, so re-parsing identical
// input yields identical keys. Repeated pairs within one parse get an
// ordinal suffix to keep keys unique per result.
func deriveKey(oldPath, newPath string, seen map[string]int) string {
	h := fnv.New64a()
	_, _ = h.Write([]byte(oldPath))
	_, _ = h.Write([]byte{0})
	_, _ = h.Write([]byte(newPath))
	key := hex.EncodeToString(h.Sum(nil))

	seen[key]++
	if n := seen[key]; n > 1 {
		return key + "#" + strconv.Itoa(n)
	}
	return key
}

// parseSegment parses one file's segment of the diff. It never fails:
// structural problems degrade the record to Valid=false instead.
func parseSegment(segment string) FileRecord {
	rec := FileRecord{
		DiffText: segment,
		Valid:    true,
	}

	lines := strings.Split(segment, "\n")

	var (
		currentHunk *Hunk
		oldLineNum  int
		newLineNum  int
		// Remaining declared lines for the open hunk. Used to detect
		// truncated segments whose final hunk ends early.
		oldRemaining int
		newRemaining int
		sawOldHeader bool
		sawNewHeader bool
	)

	closeHunk := func() {
		if currentHunk == nil {
			return
		}
		if oldRemaining > 0 || newRemaining > 0 {
			// Hunk declared more lines than the segment contains.
			rec.Valid = false
		}
		rec.Hunks = append(rec.Hunks, *currentHunk)
		currentHunk = nil
	}

	for _, line := range lines {
		if matches := diffHeaderRegex.FindStringSubmatch(line); matches != nil {
			rec.OldPath = matches[1]
			rec.NewPath = matches[2]
			continue
		}

		if oldFileNullRegex.MatchString(line) {
			rec.OldPath = NoFile
			sawOldHeader = true
			continue
		}
		if matches := oldFileRegex.FindStringSubmatch(line); matches != nil {
			rec.OldPath = matches[1]
			sawOldHeader = true
			continue
		}
		if newFileNullRegex.MatchString(line) {
			rec.NewPath = NoFile
			sawNewHeader = true
			continue
		}
		if matches := newFileRegex.FindStringSubmatch(line); matches != nil {
			rec.NewPath = matches[1]
			sawNewHeader = true
			continue
		}

		if matches := similarityRegex.FindStringSubmatch(line); matches != nil {
			if similarity, err := strconv.Atoi(matches[1]); err == nil {
				rec.Similarity = similarity
				rec.Renamed = true
			}
			continue
		}
		if matches := renameFromRegex.FindStringSubmatch(line); matches != nil {
			rec.OldPath = matches[1]
			rec.Renamed = true
			continue
		}
		if matches := renameToRegex.FindStringSubmatch(line); matches != nil {
			rec.NewPath = matches[1]
			rec.Renamed = true
			continue
		}

		if binaryFilesRegex.MatchString(line) || binaryPatchRegex.MatchString(line) {
			rec.Binary = true
			continue
		}

		// New/deleted file modes imply the missing side is NoFile even
		// when the ---/+++ pair was cut off.
		if newFileModeRegex.MatchString(line) {
			if rec.OldPath == "" || !sawOldHeader {
				rec.OldPath = NoFile
			}
			continue
		}
		if deletedFileModeRegex.MatchString(line) {
			if rec.NewPath == "" || !sawNewHeader {
				rec.NewPath = NoFile
			}
			continue
		}

		if modeChangeRegex.MatchString(line) || indexLineRegex.MatchString(line) {
			continue
		}

		if matches := hunkHeaderRegex.FindStringSubmatch(line); matches != nil {
			closeHunk()

			hunk, ok := parseHunkHeader(matches, line)
			if !ok {
				rec.Valid = false
				continue
			}
			currentHunk = &hunk
			oldLineNum = hunk.OldStart
			newLineNum = hunk.NewStart
			oldRemaining = hunk.OldCount
			newRemaining = hunk.NewCount
			continue
		}

		// A bare "@@" line that didn't match the header pattern is a
		// mangled hunk marker.
		if strings.HasPrefix(line, "@@") {
			closeHunk()
			rec.Valid = false
			continue
		}

		if currentHunk == nil {
			continue
		}
		if rec.Binary {
			// Binary patch payload carries no renderable lines.
			continue
		}

		if len(line) == 0 {
			if oldRemaining <= 0 && newRemaining <= 0 {
				// Trailing newline after a complete hunk.
				continue
			}
			// Empty line inside a hunk: context with empty content.
			currentHunk.Lines = append(currentHunk.Lines, Line{
				Kind:   LineContext,
				OldNum: oldLineNum,
				NewNum: newLineNum,
			})
			oldLineNum++
			newLineNum++
			oldRemaining--
			newRemaining--
			continue
		}

		content := ""
		if len(line) > 1 {
			content = line[1:]
		}

		switch line[0] {
		case ' ':
			currentHunk.Lines = append(currentHunk.Lines, Line{
				Kind:    LineContext,
				OldNum:  oldLineNum,
				NewNum:  newLineNum,
				Content: content,
			})
			oldLineNum++
			newLineNum++
			oldRemaining--
			newRemaining--
		case '-':
			currentHunk.Lines = append(currentHunk.Lines, Line{
				Kind:    LineRemoved,
				OldNum:  oldLineNum,
				Content: content,
			})
			rec.Deletions++
			oldLineNum++
			oldRemaining--
		case '+':
			currentHunk.Lines = append(currentHunk.Lines, Line{
				Kind:    LineAdded,
				NewNum:  newLineNum,
				Content: content,
			})
			rec.Additions++
			newLineNum++
			newRemaining--
		case '\\':
			// "\ No newline at end of file" - skip but don't error
		default:
			if oldRemaining > 0 || newRemaining > 0 {
				// Unknown prefix while the hunk still expects lines:
				// the segment was cut or corrupted mid-hunk.
				rec.Valid = false
			} else {
				// Trailing junk after a complete hunk, e.g. commit
				// trailers mixed into the stream. Close and ignore.
				closeHunk()
			}
		}
	}

	closeHunk()

	// A segment with no usable path on either side can't be keyed or
	// displayed meaningfully. Keep it, but flag it.
	if rec.OldPath == "" && rec.NewPath == "" {
		rec.Valid = false
	}
	// Only one of the ---/+++ pair present means the header triple was
	// truncated, even when the git header supplies fallback paths.
	// Binary files, pure renames and mode-only changes legitimately
	// carry neither, so those stay valid.
	if sawOldHeader != sawNewHeader {
		rec.Valid = false
	}
	if rec.OldPath == "" {
		rec.OldPath = rec.NewPath
	}
	if rec.NewPath == "" {
		rec.NewPath = rec.OldPath
	}

	// Binary files carry no line stats by definition.
	if rec.Binary {
		rec.Additions = 0
		rec.Deletions = 0
		rec.Hunks = nil
	}

	return rec
}

// parseHunkHeader builds a Hunk from a matched @@ header line.
// Returns ok=false when the numeric fields don't parse.
func parseHunkHeader(matches []string, line string) (Hunk, bool) {
	oldStart, err := strconv.Atoi(matches[1])
	if err != nil {
		return Hunk{}, false
	}
	oldCount := 1
	if matches[2] != "" {
		if oldCount, err = strconv.Atoi(matches[2]); err != nil {
			return Hunk{}, false
		}
	}
	newStart, err := strconv.Atoi(matches[3])
	if err != nil {
		return Hunk{}, false
	}
	newCount := 1
	if matches[4] != "" {
		if newCount, err = strconv.Atoi(matches[4]); err != nil {
			return Hunk{}, false
		}
	}

	return Hunk{
		OldStart: oldStart,
		OldCount: oldCount,
		NewStart: newStart,
		NewCount: newCount,
		Header:   line,
		Lines: []Line{{
			Kind:    LineHunkHeader,
			Content: strings.TrimSpace(matches[5]),
		}},
	}, true
}

// UntrackedRecord builds a synthetic created-file record for an
// untracked file, so files that exist only in the working tree show up
// alongside parsed diff output. Every content line counts as an
// addition, mirroring how the file would diff once staged.
func UntrackedRecord(path, content string) FileRecord {
	rec := FileRecord{
		OldPath:   NoFile,
		NewPath:   path,
		Untracked: true,
		Valid:     true,
	}
	rec.Key = deriveKey(rec.OldPath, rec.NewPath, map[string]int{})

	lines := strings.Split(content, "\n")
	// Trailing newline produces one empty trailing element, not a line.
	if len(lines) > 0 && lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}
	if len(lines) == 0 {
		return rec
	}

	hunk := Hunk{
		OldStart: 0,
		OldCount: 0,
		NewStart: 1,
		NewCount: len(lines),
		Header:   "@@ -0,0 +1," + strconv.Itoa(len(lines)) + " @@",
		Lines:    []Line{{Kind: LineHunkHeader}},
	}
	var b strings.Builder
	b.WriteString(hunk.Header)
	b.WriteByte('\n')
	for i, line := range lines {
		hunk.Lines = append(hunk.Lines, Line{
			Kind:    LineAdded,
			NewNum:  i + 1,
			Content: line,
		})
		b.WriteByte('+')
		b.WriteString(line)
		b.WriteByte('\n')
	}
	rec.Additions = len(lines)
	rec.Hunks = []Hunk{hunk}
	rec.DiffText = b.String()
	return rec
}
