package diffviewer

import (
	"context"
	"strings"
	"time"
	"unicode"

	"github.com/sergi/go-diff/diffmatchpatch"

	"github.com/zjrosen/diffdeck/internal/diff"
)

// Word diff performance bounds. Intraline highlighting is decoration;
// it must never make a render pass visibly slow.
const (
	// wordDiffMaxLineLength skips word diff for lines exceeding this length.
	wordDiffMaxLineLength = 500
	// wordDiffMaxPairs limits word diff computation to the first N pairs per hunk.
	wordDiffMaxPairs = 100
	// wordDiffTimeout is the maximum time allowed for word diff per file.
	wordDiffTimeout = 50 * time.Millisecond
)

// segmentKind classifies a run of text inside a changed line.
type segmentKind int

const (
	segmentUnchanged segmentKind = iota
	segmentAdded
	segmentRemoved
)

// segment is a run of text with its intraline diff status.
type segment struct {
	Kind segmentKind
	Text string
}

// pairDiff holds the intraline segments for one removed/added pair.
type pairDiff struct {
	Old []segment // segments of the removed line
	New []segment // segments of the added line
}

// fileWordDiff maps (hunk index, line index) to intraline results for
// one file.
type fileWordDiff struct {
	results  map[[2]int]pairDiff
	timedOut bool
}

// segmentsFor returns intraline segments for a line, or nil when none
// were computed.
func (f fileWordDiff) segmentsFor(hunkIdx, lineIdx int, kind diff.LineKind) []segment {
	pd, ok := f.results[[2]int{hunkIdx, lineIdx}]
	if !ok {
		return nil
	}
	switch kind {
	case diff.LineRemoved:
		return pd.Old
	case diff.LineAdded:
		return pd.New
	default:
		return nil
	}
}

// computeFileWordDiff computes intraline diffs for every adjacent
// removed/added pair in a record, within the per-file time budget.
func computeFileWordDiff(rec diff.FileRecord) fileWordDiff {
	out := fileWordDiff{results: map[[2]int]pairDiff{}}
	if len(rec.Hunks) == 0 {
		return out
	}

	ctx, cancel := context.WithTimeout(context.Background(), wordDiffTimeout)
	defer cancel()

	for hunkIdx, hunk := range rec.Hunks {
		select {
		case <-ctx.Done():
			out.timedOut = true
			return out
		default:
		}

		pairs := 0
		for i := 0; i < len(hunk.Lines)-1 && pairs < wordDiffMaxPairs; i++ {
			if hunk.Lines[i].Kind != diff.LineRemoved || hunk.Lines[i+1].Kind != diff.LineAdded {
				continue
			}
			removed := hunk.Lines[i].Content
			added := hunk.Lines[i+1].Content
			if len(removed) > wordDiffMaxLineLength || len(added) > wordDiffMaxLineLength {
				i++
				continue
			}

			pd := diffPair(removed, added)
			out.results[[2]int{hunkIdx, i}] = pd
			out.results[[2]int{hunkIdx, i + 1}] = pd
			pairs++
			i++ // the addition is consumed by this pair
		}
	}
	return out
}

// diffPair computes token-level segments between a removed and an
// added line.
func diffPair(oldLine, newLine string) pairDiff {
	if oldLine == "" && newLine == "" {
		return pairDiff{}
	}
	if oldLine == "" {
		return pairDiff{New: []segment{{Kind: segmentAdded, Text: newLine}}}
	}
	if newLine == "" {
		return pairDiff{Old: []segment{{Kind: segmentRemoved, Text: oldLine}}}
	}

	// Diff at token granularity: joining tokens with NUL keeps token
	// boundaries stable through the character-level diff.
	oldText := strings.Join(tokenize(oldLine), "\x00")
	newText := strings.Join(tokenize(newLine), "\x00")

	dmp := diffmatchpatch.New()
	diffs := dmp.DiffCleanupSemantic(dmp.DiffMain(oldText, newText, false))

	var pd pairDiff
	for _, d := range diffs {
		text := strings.ReplaceAll(d.Text, "\x00", "")
		if text == "" {
			continue
		}
		switch d.Type {
		case diffmatchpatch.DiffEqual:
			pd.Old = append(pd.Old, segment{Kind: segmentUnchanged, Text: text})
			pd.New = append(pd.New, segment{Kind: segmentUnchanged, Text: text})
		case diffmatchpatch.DiffDelete:
			pd.Old = append(pd.Old, segment{Kind: segmentRemoved, Text: text})
		case diffmatchpatch.DiffInsert:
			pd.New = append(pd.New, segment{Kind: segmentAdded, Text: text})
		}
	}
	return pd
}

// tokenize splits a line into words, with punctuation and whitespace
// as single-rune tokens. "foo.bar()" becomes ["foo",".","bar","(",")"].
func tokenize(line string) []string {
	if line == "" {
		return nil
	}

	var tokens []string
	var current strings.Builder

	flush := func() {
		if current.Len() > 0 {
			tokens = append(tokens, current.String())
			current.Reset()
		}
	}

	for _, r := range line {
		switch {
		case unicode.IsSpace(r), unicode.IsPunct(r), unicode.IsSymbol(r):
			flush()
			tokens = append(tokens, string(r))
		default:
			current.WriteRune(r)
		}
	}
	flush()

	return tokens
}
