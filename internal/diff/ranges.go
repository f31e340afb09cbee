package diff

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	godiff "github.com/sourcegraph/go-diff/diff"
)

// ErrMalformedPatch indicates the diff patch could not be parsed at all.
// Callers receive an empty changed-file set alongside this error so they can
// distinguish a broken patch from a genuinely empty diff.
var ErrMalformedPatch = errors.New("malformed diff patch")

// LineRange is a 1-indexed, inclusive span of source lines.
type LineRange struct {
	Start int `json:"start"`
	End   int `json:"end"`
}

// Len returns the number of lines covered by the range.
func (r LineRange) Len() int {
	if r.End < r.Start {
		return 0
	}
	return r.End - r.Start + 1
}

// Hunk describes a post-image added-line span from a diff hunk.
type Hunk struct {
	StartLine int // 1-indexed post-image start line
	LineCount int // number of post-image lines in the span
}

// FileHunks groups the hunks of a single file.
type FileHunks struct {
	FilePath string
	Hunks    []Hunk
}

// FileChangedRanges holds the merged changed line ranges for one file.
// Ranges are sorted ascending, pairwise non-overlapping and non-adjacent.
type FileChangedRanges struct {
	FilePath string      `json:"filePath"`
	Ranges   []LineRange `json:"changedRanges"`
}

// RangesFromPatch parses unified diff text and returns merged changed ranges
// per file. A hunk that fails validation is skipped individually; a patch that
// cannot be parsed at all yields an empty set and ErrMalformedPatch.
func RangesFromPatch(patch string) ([]FileChangedRanges, error) {
	if strings.TrimSpace(patch) == "" {
		return nil, nil
	}

	fileDiffs, err := godiff.NewMultiFileDiffReader(strings.NewReader(patch)).ReadAllFiles()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedPatch, err)
	}
	if len(fileDiffs) == 0 {
		// Non-empty input that yielded no file diffs is not a diff at all;
		// the parser skips leading garbage rather than failing on it.
		return nil, fmt.Errorf("%w: no file diffs found", ErrMalformedPatch)
	}

	files := make([]FileHunks, 0, len(fileDiffs))
	for _, fd := range fileDiffs {
		path := cleanDiffPath(fd.NewName)
		if path == "" {
			// Deleted file: nothing exists post-image to analyze.
			continue
		}

		fh := FileHunks{FilePath: path}
		for _, h := range fd.Hunks {
			fh.Hunks = append(fh.Hunks, Hunk{
				StartLine: int(h.NewStartLine),
				LineCount: int(h.NewLines),
			})
		}
		files = append(files, fh)
	}

	return RangesFromHunks(files), nil
}

// RangesFromHunks converts structured hunks into merged changed ranges per
// file. Files with an empty path or no valid hunks are dropped.
func RangesFromHunks(files []FileHunks) []FileChangedRanges {
	var result []FileChangedRanges
	for _, fh := range files {
		if fh.FilePath == "" {
			continue
		}

		ranges := make([]LineRange, 0, len(fh.Hunks))
		for _, h := range fh.Hunks {
			// Validated hunk schema: a hunk with a bad start or count is
			// skipped individually rather than aborting the whole patch.
			if h.StartLine < 1 || h.LineCount < 1 {
				continue
			}
			ranges = append(ranges, LineRange{
				Start: h.StartLine,
				End:   h.StartLine + h.LineCount - 1,
			})
		}
		if len(ranges) == 0 {
			continue
		}

		result = append(result, FileChangedRanges{
			FilePath: fh.FilePath,
			Ranges:   MergeRanges(ranges),
		})
	}
	return result
}

// MergeRanges sorts ranges by start line and merges overlapping or adjacent
// ranges (gap <= 1 line) into single spans.
func MergeRanges(ranges []LineRange) []LineRange {
	if len(ranges) == 0 {
		return nil
	}

	sorted := make([]LineRange, len(ranges))
	copy(sorted, ranges)
	sort.Slice(sorted, func(i, j int) bool {
		if sorted[i].Start != sorted[j].Start {
			return sorted[i].Start < sorted[j].Start
		}
		return sorted[i].End < sorted[j].End
	})

	merged := []LineRange{sorted[0]}
	for _, cur := range sorted[1:] {
		prev := &merged[len(merged)-1]
		if cur.Start <= prev.End+1 {
			if cur.End > prev.End {
				prev.End = cur.End
			}
			continue
		}
		merged = append(merged, cur)
	}
	return merged
}

// Intersects reports whether r overlaps any of the changed ranges.
// Touching at an endpoint counts as intersecting.
func Intersects(r LineRange, changed []LineRange) bool {
	for _, c := range changed {
		if r.Start <= c.End && r.End >= c.Start {
			return true
		}
	}
	return false
}

// cleanDiffPath strips git diff prefixes and maps /dev/null to empty.
func cleanDiffPath(name string) string {
	if name == "" || name == "/dev/null" {
		return ""
	}
	name = strings.TrimPrefix(name, "a/")
	name = strings.TrimPrefix(name, "b/")
	return name
}
