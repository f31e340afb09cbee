package diff

// Test Plan for Changed Range Extraction:
// - MergeRanges merges overlapping ranges into one span
// - MergeRanges merges adjacent ranges (gap of exactly one line)
// - MergeRanges keeps ranges separated by two or more lines apart
// - MergeRanges output is sorted ascending and non-overlapping
// - Intersects detects overlap, containment, and endpoint touching
// - Intersects rejects disjoint ranges
// - RangesFromHunks skips invalid hunks individually and drops empty files
// - RangesFromPatch parses a real unified diff into per-file ranges
// - RangesFromPatch returns nil for an empty patch
// - RangesFromPatch returns ErrMalformedPatch for unparseable input
// - RangesFromPatch drops deleted files (/dev/null post-image)

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMergeRanges(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		input    []LineRange
		expected []LineRange
	}{
		{
			name:     "empty input",
			input:    nil,
			expected: nil,
		},
		{
			name:     "single range",
			input:    []LineRange{{Start: 5, End: 10}},
			expected: []LineRange{{Start: 5, End: 10}},
		},
		{
			name:     "overlapping ranges merge",
			input:    []LineRange{{Start: 1, End: 5}, {Start: 3, End: 8}},
			expected: []LineRange{{Start: 1, End: 8}},
		},
		{
			name:     "adjacent ranges merge",
			input:    []LineRange{{Start: 1, End: 5}, {Start: 6, End: 9}},
			expected: []LineRange{{Start: 1, End: 9}},
		},
		{
			name:     "one line gap merges",
			input:    []LineRange{{Start: 1, End: 5}, {Start: 7, End: 9}},
			expected: []LineRange{{Start: 1, End: 9}},
		},
		{
			name:     "two line gap stays separate",
			input:    []LineRange{{Start: 1, End: 5}, {Start: 8, End: 9}},
			expected: []LineRange{{Start: 1, End: 5}, {Start: 8, End: 9}},
		},
		{
			name:     "unsorted input is sorted first",
			input:    []LineRange{{Start: 20, End: 25}, {Start: 1, End: 3}, {Start: 2, End: 6}},
			expected: []LineRange{{Start: 1, End: 6}, {Start: 20, End: 25}},
		},
		{
			name:     "contained range is absorbed",
			input:    []LineRange{{Start: 1, End: 20}, {Start: 5, End: 10}},
			expected: []LineRange{{Start: 1, End: 20}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.expected, MergeRanges(tt.input))
		})
	}
}

func TestMergeRangesInvariants(t *testing.T) {
	t.Parallel()

	input := []LineRange{
		{Start: 30, End: 35},
		{Start: 1, End: 4},
		{Start: 10, End: 12},
		{Start: 13, End: 18},
		{Start: 3, End: 5},
	}
	merged := MergeRanges(input)

	for i := 1; i < len(merged); i++ {
		assert.Greater(t, merged[i].Start, merged[i-1].End+1,
			"ranges must be non-overlapping and non-adjacent")
	}
}

func TestIntersects(t *testing.T) {
	t.Parallel()

	changed := []LineRange{{Start: 8, End: 12}}

	tests := []struct {
		name     string
		r        LineRange
		expected bool
	}{
		{"overlap at end", LineRange{Start: 5, End: 10}, true},
		{"disjoint after", LineRange{Start: 13, End: 20}, false},
		{"disjoint before", LineRange{Start: 1, End: 7}, false},
		{"touching at start", LineRange{Start: 12, End: 20}, true},
		{"touching at end", LineRange{Start: 1, End: 8}, true},
		{"containment", LineRange{Start: 1, End: 30}, true},
		{"contained", LineRange{Start: 9, End: 10}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.expected, Intersects(tt.r, changed))
		})
	}
}

func TestRangesFromHunks(t *testing.T) {
	t.Parallel()

	t.Run("valid hunks produce merged ranges", func(t *testing.T) {
		t.Parallel()
		result := RangesFromHunks([]FileHunks{
			{
				FilePath: "src/app.ts",
				Hunks: []Hunk{
					{StartLine: 10, LineCount: 5},
					{StartLine: 15, LineCount: 3},
				},
			},
		})

		require.Len(t, result, 1)
		assert.Equal(t, "src/app.ts", result[0].FilePath)
		assert.Equal(t, []LineRange{{Start: 10, End: 17}}, result[0].Ranges)
	})

	t.Run("invalid hunks are skipped individually", func(t *testing.T) {
		t.Parallel()
		result := RangesFromHunks([]FileHunks{
			{
				FilePath: "src/app.ts",
				Hunks: []Hunk{
					{StartLine: 0, LineCount: 5},  // bad start
					{StartLine: 10, LineCount: 0}, // bad count
					{StartLine: 20, LineCount: 2},
				},
			},
		})

		require.Len(t, result, 1)
		assert.Equal(t, []LineRange{{Start: 20, End: 21}}, result[0].Ranges)
	})

	t.Run("files with no valid hunks are dropped", func(t *testing.T) {
		t.Parallel()
		result := RangesFromHunks([]FileHunks{
			{FilePath: "src/app.ts", Hunks: []Hunk{{StartLine: -1, LineCount: 5}}},
			{FilePath: "", Hunks: []Hunk{{StartLine: 1, LineCount: 1}}},
		})
		assert.Empty(t, result)
	})
}

const sampleDiff = `diff --git a/src/app.ts b/src/app.ts
index 1234567..89abcde 100644
--- a/src/app.ts
+++ b/src/app.ts
@@ -10,4 +10,6 @@ function greet() {
 context line
+added line one
+added line two
 context line
 context line
 context line
@@ -30,3 +32,4 @@ function other() {
 context line
+another added line
 context line
diff --git a/src/util.ts b/src/util.ts
index 2345678..9abcdef 100644
--- a/src/util.ts
+++ b/src/util.ts
@@ -1,2 +1,3 @@
 context line
+added util line
 context line
`

func TestRangesFromPatch(t *testing.T) {
	t.Parallel()

	t.Run("parses multi-file unified diff", func(t *testing.T) {
		t.Parallel()
		result, err := RangesFromPatch(sampleDiff)
		require.NoError(t, err)
		require.Len(t, result, 2)

		assert.Equal(t, "src/app.ts", result[0].FilePath)
		assert.Equal(t, []LineRange{
			{Start: 10, End: 15},
			{Start: 32, End: 35},
		}, result[0].Ranges)

		assert.Equal(t, "src/util.ts", result[1].FilePath)
		assert.Equal(t, []LineRange{{Start: 1, End: 3}}, result[1].Ranges)
	})

	t.Run("empty patch yields no files and no error", func(t *testing.T) {
		t.Parallel()
		result, err := RangesFromPatch("")
		require.NoError(t, err)
		assert.Empty(t, result)

		result, err = RangesFromPatch("   \n\t\n")
		require.NoError(t, err)
		assert.Empty(t, result)
	})

	t.Run("unparseable patch returns ErrMalformedPatch", func(t *testing.T) {
		t.Parallel()
		result, err := RangesFromPatch("this is not a diff")
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrMalformedPatch)
		assert.Empty(t, result)
	})

	t.Run("deleted files are dropped", func(t *testing.T) {
		t.Parallel()
		deleted := `diff --git a/src/old.ts b/src/old.ts
deleted file mode 100644
index 1234567..0000000
--- a/src/old.ts
+++ /dev/null
@@ -1,3 +0,0 @@
-line one
-line two
-line three
`
		result, err := RangesFromPatch(deleted)
		require.NoError(t, err)
		assert.Empty(t, result)
	})
}

func TestLineRangeLen(t *testing.T) {
	t.Parallel()

	assert.Equal(t, 1, LineRange{Start: 5, End: 5}.Len())
	assert.Equal(t, 6, LineRange{Start: 5, End: 10}.Len())
	assert.Equal(t, 0, LineRange{Start: 10, End: 5}.Len())
}
