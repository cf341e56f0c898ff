package rexster

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsPossibleWikiSlug(t *testing.T) {
	tests := []struct {
		slug string
		want bool
	}{
		{"Paris", true},
		{"paris", false},
		{"user_generated_slug", false},
		{"1990s", true},
		{"2012_in_music", true},
		{"iPhone", true},
		{"ÉCOLE", true},
		{"école", false},
		{"1234", true},
		{"___", true},
	}
	for _, tt := range tests {
		t.Run(tt.slug, func(t *testing.T) {
			assert.Equal(t, tt.want, IsPossibleWikiSlug(tt.slug))
		})
	}
}

func TestEscapeNonASCII(t *testing.T) {
	assert.Equal(t, "Caf%C3%A9_de_Flore", EscapeNonASCII("Café_de_Flore"))
	assert.Equal(t, "S%C3%A3o_Paulo", EscapeNonASCII("São_Paulo"))
	assert.Equal(t, "AT&T_(company)", EscapeNonASCII("AT&T_(company)"))
}

func TestSlugs(t *testing.T) {
	ids := []string{"Paris", "", "lowercase", "Café", "1990s"}

	assert.Equal(t, []string{"Paris", "Caf%C3%A9", "1990s"}, Slugs(ids, "en"))
	assert.Equal(t, []string{"Paris", "Café", "1990s"}, Slugs(ids, "de"))
	assert.Equal(t, []string{"Paris", "Café", "1990s"}, Slugs(ids, "nl"))
}

func TestCatMapSlugs(t *testing.T) {
	ids := []string{"Paris", "", "lowercase", "Café", "1990s"}

	assert.Equal(t, []string{"dbp:Paris", "dbp:Caf%C3%A9", "dbp:1990s"}, CatMapSlugs(ids, "en"))
	assert.Equal(t, []string{"dbp:K%C3%B6ln"}, CatMapSlugs([]string{"Köln"}, "de"))
	assert.Equal(t, []string{"dbp-nl:Paris", "dbp-nl:Café", "dbp-nl:1990s"}, CatMapSlugs(ids, "nl"))
	assert.Equal(t, "dbp:", CatMapPrefix("en"))
	assert.Equal(t, "dbp:", CatMapPrefix("de"))
}

func TestScript(t *testing.T) {
	assert.Equal(t, `getCatFlowMap(["Paris", "London"], 'en', 0)`,
		Script(ScriptCatFlowMap, []string{"Paris", "London"}, "en", 0))
	assert.Equal(t, `getFlowMap([], 'nl')`, Script(ScriptFlowMap, nil, "nl"))
	assert.Equal(t, `getCatMap(["dbp:Say_\"Hi\"", "dbp:\$x"], 'en')`,
		Script(ScriptCatMap, []string{`dbp:Say_"Hi"`, "dbp:$x"}, "en"))
}
