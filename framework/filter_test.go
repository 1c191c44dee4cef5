package framework

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegexFiltersMatchEverythingByDefault(t *testing.T) {
	var f RegexFilters
	assert.True(t, f.Match("homepage.feature"))
}

func TestRegexFiltersMustMatch(t *testing.T) {
	var f RegexFilters
	require.NoError(t, f.MustMatch.Set("home"))

	assert.True(t, f.Match("homepage.feature"))
	assert.False(t, f.Match("websocket.feature"))
}

func TestRegexFiltersMustNotMatch(t *testing.T) {
	var f RegexFilters
	require.NoError(t, f.MustNotMatch.Set("websocket"))

	assert.True(t, f.Match("homepage.feature"))
	assert.False(t, f.Match("websocket.feature"))
}

func TestRegexFiltersCombined(t *testing.T) {
	var f RegexFilters
	require.NoError(t, f.MustMatch.Set("feature"))
	require.NoError(t, f.MustNotMatch.Set("slow"))

	assert.True(t, f.Match("homepage.feature"))
	assert.False(t, f.Match("slow-path.feature"))
	assert.False(t, f.Match("notes.txt"))
}

func TestRegexListRejectsInvalidPattern(t *testing.T) {
	var l RegexList
	assert.Error(t, l.Set("(unclosed"))
}

func TestRegexListString(t *testing.T) {
	var l RegexList
	require.NoError(t, l.Set("a"))
	require.NoError(t, l.Set("b"))
	assert.Equal(t, `"a" or "b"`, l.String())
}
