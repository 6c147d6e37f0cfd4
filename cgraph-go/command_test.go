package cgraph_go

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

var testParams = Params{
	{"id", 1, "name", false},
	{"p", 2, "point", false},
	{"sc", 1, "stroke", true},
	{"flag", 0, "flag", false},
}

func TestParseArgs(t *testing.T) {
	tests := []struct {
		name        string
		raw         []string
		want        Args
		wantDropped []string
	}{
		{"empty", nil, Args{}, nil},
		{"values", []string{"p", "1", "2", "sc", "red"}, Args{"p": {"1", "2"}, "sc": {"red"}}, nil},
		{"unknown flags skipped", []string{"x", "sc", "red", "y"}, Args{"sc": {"red"}}, []string{"x", "y"}},
		{"too few values", []string{"sc", "red", "p", "1"}, Args{"sc": {"red"}}, []string{"p"}},
		{"zero values", []string{"flag", "sc", "red"}, Args{"flag": nil, "sc": {"red"}}, nil},
		{"last occurrence wins", []string{"sc", "red", "sc", "blue"}, Args{"sc": {"blue"}}, nil},
		{"values may look like flags", []string{"id", "sc"}, Args{"id": {"sc"}}, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, dropped := ParseArgs(testParams, tt.raw)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.wantDropped, dropped)
		})
	}
}

func TestMergeArgs(t *testing.T) {
	target := Args{"id": {"a"}, "sc": {"red"}}
	MergeArgs(target, Args{"id": {"b"}, "sc": {"blue"}, "p": {"1", "2"}}, "id")
	assert.Equal(t, Args{"id": {"a"}, "sc": {"blue"}, "p": {"1", "2"}}, target)

	target = Args{}
	MergeArgs(target, Args{"id": {"b"}}, "id")
	assert.Equal(t, Args{"id": {"b"}}, target)
}

func TestCommandString(t *testing.T) {
	cmd := NewCommand("text")
	cmd.Args = Args{"t": {"two words"}, "p": {"1", "2"}, "f": {""}}
	assert.Equal(t, "text f () p 1 2 t (two words)", cmd.String())

	clone := cmd.Clone()
	clone.Args["p"][0] = "9"
	assert.Equal(t, "1", cmd.Args["p"][0])
}

func TestRegistry(t *testing.T) {
	r := NewRegistry()
	r.Register(&CommandDef{Name: "image"})
	r.Alias("img", "image")
	r.Alias("pic", "missing")

	def, ok := r.Lookup("img")
	assert.True(t, ok)
	assert.Equal(t, "image", def.Name)
	_, ok = r.Lookup("pic")
	assert.False(t, ok)
	assert.Equal(t, []string{"image", "img"}, r.Names())
}
