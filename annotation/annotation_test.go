package annotation

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sample = `[
  {"surfaceForm": "Paris", "offset": 12, "resource": [
    {"uri": "Paris", "finalScore": 0.9, "support": 120},
    {"uri": "Paris_Hilton", "finalScore": "0.1"}
  ]},
  {"surfaceForm": "Texas"},
  {"surfaceForm": "1984", "resource": [{"uri": 1984, "finalScore": 1}]}
]`

func TestLoadSave(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "doc1"+Suffix)
	require.NoError(t, os.WriteFile(in, []byte(sample), 0o644))

	mentions, err := Load(in)
	require.NoError(t, err)
	require.Len(t, mentions, 3)
	require.Len(t, mentions[0].Candidates, 2)
	assert.Equal(t, "Paris", mentions[0].Candidates[0].URI)
	assert.InDelta(t, 0.1, mentions[0].Candidates[1].FinalScore, 1e-12)
	assert.Nil(t, mentions[1].Candidates)
	assert.Equal(t, "1984", mentions[2].Candidates[0].URI)

	mentions[0].Candidates[0].CatFlow = 2.5
	out := OutputPath(in, "")
	require.NoError(t, Save(out, mentions))

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	var raw []map[string]any
	require.NoError(t, json.Unmarshal(data, &raw))
	assert.Equal(t, "Paris", raw[0]["surfaceForm"])
	assert.EqualValues(t, 12, raw[0]["offset"])
	cand := raw[0]["resource"].([]any)[0].(map[string]any)
	assert.EqualValues(t, 120, cand["support"])
	assert.EqualValues(t, 2.5, cand["cat_flow"])
	_, hasResource := raw[1]["resource"]
	assert.False(t, hasResource)
}

func TestLoadMalformed(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad"+Suffix)
	require.NoError(t, os.WriteFile(path, []byte(`{"not":"a list"}`), 0o644))
	_, err := Load(path)
	assert.Error(t, err)
}

func TestScan(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"b" + Suffix, "a" + Suffix, "a" + RerankedSuffix, "notes.txt"} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte("[]"), 0o644))
	}
	require.NoError(t, os.Mkdir(filepath.Join(dir, "c"+Suffix), 0o755))

	paths, err := Scan(dir)
	require.NoError(t, err)
	assert.Equal(t, []string{filepath.Join(dir, "a"+Suffix), filepath.Join(dir, "b"+Suffix)}, paths)
}

func TestOutputPathAndDocID(t *testing.T) {
	assert.Equal(t, "/data/x_reranked.json", OutputPath("/data/x"+Suffix, ""))
	assert.Equal(t, "/data/x.out.json", OutputPath("/data/x"+Suffix, ".out.json"))
	assert.Equal(t, "x", DocID("/data/x"+Suffix))
}

func TestURIs(t *testing.T) {
	mentions, err := Decode([]byte(sample))
	require.NoError(t, err)
	assert.Equal(t, []string{"Paris", "Paris_Hilton", "1984"}, URIs(mentions))
}
