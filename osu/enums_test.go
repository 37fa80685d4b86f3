package osu

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGameMode(t *testing.T) {
	for i, mode := range []GameMode{GameModeOsu, GameModeTaiko, GameModeFruits, GameModeMania} {
		assert.False(t, mode.IsUnknown())
		assert.Equal(t, i, mode.Ruleset())

		got, ok := GameModeFromRuleset(i)
		assert.True(t, ok)
		assert.Equal(t, mode, got)
	}

	future := GameMode("future_mode")
	assert.True(t, future.IsUnknown())
	assert.Equal(t, -1, future.Ruleset())

	_, ok := GameModeFromRuleset(4)
	assert.False(t, ok)
	_, ok = GameModeFromRuleset(-1)
	assert.False(t, ok)
}

func TestRankStatusFromInt(t *testing.T) {
	tests := []struct {
		in   int
		want RankStatus
		ok   bool
	}{
		{-2, RankStatusGraveyard, true},
		{-1, RankStatusWIP, true},
		{0, RankStatusPending, true},
		{1, RankStatusRanked, true},
		{4, RankStatusLoved, true},
		{5, "", false},
		{-3, "", false},
	}
	for _, tt := range tests {
		got, ok := RankStatusFromInt(tt.in)
		assert.Equal(t, tt.ok, ok, "input %d", tt.in)
		assert.Equal(t, tt.want, got, "input %d", tt.in)
	}
	assert.True(t, RankStatus("purgatory").IsUnknown())
}

func TestEventTypesKnown(t *testing.T) {
	for eventType := range eventPayloads {
		assert.False(t, eventType.IsUnknown(), eventType)
	}
	assert.Len(t, eventPayloads, len(eventTypes))

	assert.False(t, BeatmapsetEventOwnerChange.IsUnknown())
	assert.True(t, BeatmapsetEventType("future_thing").IsUnknown())
}
