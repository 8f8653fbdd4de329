package models

import (
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel_NormalizesVariants(t *testing.T) {
	cases := []struct {
		label string
		want  PrizeLevel
	}{
		{"A", LevelA},
		{"a", LevelA},
		{" c ", LevelC},
		{"H", LevelH},
		{"Last One", LevelLastOne},
		{"LAST ONE", LevelLastOne},
		{"lastone", LevelLastOne},
		{"last_one", LevelLastOne},
		{"最後賞", LevelLastOne},
		{"ラストワン賞", LevelLastOne},
	}
	for _, tc := range cases {
		got, err := ParseLevel(tc.label)
		require.NoError(t, err, "label %q", tc.label)
		assert.Equal(t, tc.want, got, "label %q", tc.label)
	}
}

func TestParseLevel_RejectsUnknownLabels(t *testing.T) {
	for _, label := range []string{"", "Z", "first", "AA"} {
		_, err := ParseLevel(label)
		assert.Error(t, err, "label %q", label)
	}
}

func TestPrizeLevel_LastOneSortsLast(t *testing.T) {
	levels := []PrizeLevel{LevelLastOne, LevelC, LevelA, LevelH, LevelB}
	sort.Slice(levels, func(i, j int) bool { return levels[i] < levels[j] })
	assert.Equal(t, []PrizeLevel{LevelA, LevelB, LevelC, LevelH, LevelLastOne}, levels)
}

func TestPrizeLevel_JSONRoundTrip(t *testing.T) {
	b, err := LevelLastOne.MarshalJSON()
	require.NoError(t, err)
	assert.Equal(t, `"Last One"`, string(b))

	var l PrizeLevel
	require.NoError(t, l.UnmarshalJSON([]byte(`"LAST ONE"`)))
	assert.Equal(t, LevelLastOne, l)
	require.NoError(t, l.UnmarshalJSON([]byte(`"b"`)))
	assert.Equal(t, LevelB, l)
}
