package crossword

import (
	"encoding/json"
	"testing"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewGrid_Empty(t *testing.T) {
	g := NewGrid(4)

	assert.Equal(t, 4, g.Size())
	assert.Equal(t, []string{"    ", "    ", "    ", "    "}, g.Rows())
	assert.NotNil(t, g.Words())
	assert.Empty(t, g.Words())

	_, ok := g.Cell(4, 0)
	assert.False(t, ok)
	_, ok = g.Cell(0, -1)
	assert.False(t, ok)
}

func TestGrid_CloneIsDeep(t *testing.T) {
	b := NewBuilder(6, nil, nil)
	require.True(t, b.AddWord(0, 0, "cat", true))

	c := b.Grid().Clone()
	require.True(t, b.AddWord(2, 0, "dog", true))

	assert.Equal(t, []string{"cat"}, c.Snapshot("").WordTexts())
	assert.False(t, c.Has("dog"))
	assert.Equal(t, "      ", c.Pattern(2, true))
}

func TestSnapshot_JSON(t *testing.T) {
	b := NewBuilder(4, nil, nil)
	require.True(t, b.AddWord(1, 0, "owl", true))

	raw, err := json.Marshal(b.Grid().Snapshot(Easy))
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"size": 4,
		"difficulty": "easy",
		"grid": ["    ", "owl#", "    ", "    "],
		"wordsWithIndex": [{"word": "owl", "i": 1, "j": 0, "horizontal": true}]
	}`, string(raw))

	w, ok := b.Grid().Snapshot(Easy).Find("owl")
	assert.True(t, ok)
	assert.Equal(t, 1, w.Row)
	_, ok = b.Grid().Snapshot(Easy).Find("cat")
	assert.False(t, ok)
}

func TestGrid_Render(t *testing.T) {
	b := NewBuilder(6, nil, nil)
	require.True(t, b.AddWord(0, 0, "cat", true))
	require.True(t, b.AddWord(0, 2, "tea", false))

	gd := goldie.New(t)
	gd.Assert(t, "render", []byte(b.Grid().String()))
}

func TestGrid_RenderEmpty(t *testing.T) {
	assert.Equal(t, "...\n...\n...\n", NewGrid(3).String())
}

func TestVerifiers(t *testing.T) {
	g := NewGrid(3)
	g.texts["a"] = struct{}{}
	g.texts["b"] = struct{}{}

	assert.True(t, AllowAll.Verify(g))
	assert.True(t, MaxWords(2).Verify(g))
	assert.False(t, MaxWords(1).Verify(g))
	assert.False(t, All(AllowAll, MaxWords(1)).Verify(g))
	assert.True(t, All().Verify(g))
}
