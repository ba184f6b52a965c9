package parser

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseEmptyInput(t *testing.T) {
	p := Parse("")
	assert.True(t, p.Empty())

	p = Parse("   ")
	assert.True(t, p.Empty())
}

func TestParseBasicScenario(t *testing.T) {
	p := Parse(`filter topic:sensors/* --format=json value`)
	require.Equal(t, "filter", p.Command)
	assert.Equal(t, []string{"topic:sensors/*", "value"}, p.Args)
	assert.Equal(t, map[string]any{"format": "json"}, p.Options)
	assert.False(t, p.Vertical)
}

func TestVerticalTerminator(t *testing.T) {
	p := Parse(`select * from foo   \G`)
	assert.True(t, p.Vertical)
	assert.Equal(t, "select", p.Command)
	assert.NotContains(t, p.Args, `\G`)
}

func TestDoubleDashEndsOptions(t *testing.T) {
	p := Parse(`run -- --not-an-option -x`)
	assert.Equal(t, []string{"--not-an-option", "-x"}, p.Args)
	assert.Empty(t, p.Options)
}

func TestOptionNameStartingWithDigitIsPositional(t *testing.T) {
	p := Parse(`run --1abc=val -2x`)
	assert.Equal(t, []string{"--1abc=val", "-2x"}, p.Args)
	assert.Empty(t, p.Options)
}

func TestQuotingAndEscaping(t *testing.T) {
	p := Parse(`echo "hello world" 'single quoted' esc\ aped`)
	assert.Equal(t, []string{"hello world", "single quoted", "esc aped"}, p.Args)
}

func TestUnclosedQuoteDoesNotPanic(t *testing.T) {
	assert.NotPanics(t, func() {
		p := Parse(`echo "unterminated`)
		assert.Equal(t, []string{"unterminated"}, p.Args)
	})
}

func TestRawIsPreserved(t *testing.T) {
	const line = `status --verbose`
	p := Parse(line)
	assert.Equal(t, line, p.Raw)
}

func TestTokenizeNeverExceedsQuoteRespectingCount(t *testing.T) {
	inputs := []string{
		`a b c`,
		`"a b" c`,
		`'a b c'`,
		`a\ b c`,
	}
	for _, in := range inputs {
		toks := Tokenize(in)
		assert.LessOrEqual(t, len(toks), len(in))
	}
}
