package schema

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const minimalYAML = `
name: Mini
columns:
  group: grp
sections:
  - id: likert
    kind: scale
    keys: [q1, q2]
    bounds: {min: 0, max: 2}
  - id: notes
    kind: text
    textKey: note
`

const minimalJSON = `{
  "name": "Mini",
  "columns": {"group": "grp"},
  "sections": [
    {"id": "likert", "kind": "scale", "keys": ["q1", "q2"], "bounds": {"min": 0, "max": 2}},
    {"id": "notes", "kind": "text", "textKey": "note"}
  ]
}`

func TestParseFormats(t *testing.T) {
	tests := []struct {
		name   string
		data   string
		format string
	}{
		{"yaml", minimalYAML, FormatYAML},
		{"yml alias", minimalYAML, "yml"},
		{"json", minimalJSON, FormatJSON},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := Parse([]byte(tt.data), tt.format)
			require.NoError(t, err)
			assert.Equal(t, "Mini", cfg.Name)
			assert.Equal(t, "1.0", cfg.Version)
			assert.Equal(t, []string{"all"}, cfg.AllTags)
			assert.Equal(t, []string{"likert", "notes"}, cfg.SectionIDs())
			s, err := cfg.Section("likert")
			require.NoError(t, err)
			assert.Equal(t, 2.0, s.ScaleBounds().Max)
		})
	}
}

func TestParseUnknownFormat(t *testing.T) {
	_, err := Parse([]byte(minimalYAML), "toml")
	assert.ErrorIs(t, err, ErrUnknownFormat)

	_, err = FormatFromPath("survey.txt")
	assert.ErrorIs(t, err, ErrUnknownFormat)
}

func TestParseRejectsUnknownFields(t *testing.T) {
	_, err := Parse([]byte("name: x\ncolumns: {group: g}\nsections: [{id: a, kind: text, textKey: t, colour: red}]\n"), FormatYAML)
	assert.Error(t, err)
}

func TestValidateErrors(t *testing.T) {
	tests := []struct {
		name string
		yaml string
		want string
	}{
		{
			"no sections",
			"name: x\ncolumns: {group: g}\nsections: []\n",
			"sections",
		},
		{
			"missing group column",
			"name: x\nsections: [{id: a, kind: text, textKey: t}]\n",
			"group is required",
		},
		{
			"duplicate ids",
			"name: x\ncolumns: {group: g}\nsections: [{id: a, kind: text, textKey: t}, {id: a, kind: images, fileKey: f}]\n",
			`duplicate id "a"`,
		},
		{
			"unknown kind",
			"name: x\ncolumns: {group: g}\nsections: [{id: a, kind: radar, keys: [q]}]\n",
			`unknown kind "radar"`,
		},
		{
			"inverted bounds",
			"name: x\ncolumns: {group: g}\nsections: [{id: a, kind: scale, keys: [q], bounds: {min: 5, max: 1}}]\n",
			"min must not exceed max",
		},
		{
			"scale without keys",
			"name: x\ncolumns: {group: g}\nsections: [{id: a, kind: scale}]\n",
			"keys is required",
		},
		{
			"grouped text without sub key",
			"name: x\ncolumns: {group: g}\nsections: [{id: a, kind: grouped_text, textKey: t}]\n",
			"subKey is required",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.yaml), FormatYAML)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestLoadAndMarshalRoundTrip(t *testing.T) {
	dir := t.TempDir()

	for _, format := range []string{FormatYAML, FormatJSON} {
		t.Run(format, func(t *testing.T) {
			data, err := Marshal(Default(), format)
			require.NoError(t, err)

			path := filepath.Join(dir, "survey."+format)
			require.NoError(t, os.WriteFile(path, data, 0o644))

			cfg, err := Load(path)
			require.NoError(t, err)
			assert.Equal(t, Default(), cfg)
		})
	}
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestDefaultYAMLIsCopy(t *testing.T) {
	a := DefaultYAML()
	a[0] = 'X'
	assert.NotEqual(t, a[0], DefaultYAML()[0])
}
