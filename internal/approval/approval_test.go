package approval

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseMode(t *testing.T) {
	cases := []struct {
		in      string
		want    Mode
		wantErr bool
	}{
		{"suggest", ModeSuggest, false},
		{"auto-edit", ModeAutoEdit, false},
		{"autoedit", ModeAutoEdit, false},
		{"full-auto", ModeFullAuto, false},
		{"FULL-AUTO", ModeFullAuto, false},
		{"", ModeSuggest, false},
		{"yolo", ModeSuggest, true},
	}
	for _, tc := range cases {
		got, err := ParseMode(tc.in)
		if tc.wantErr {
			assert.Error(t, err, tc.in)
			continue
		}
		require.NoError(t, err, tc.in)
		assert.Equal(t, tc.want, got, tc.in)
	}
}

func TestModeString(t *testing.T) {
	assert.Equal(t, "suggest", ModeSuggest.String())
	assert.Equal(t, "auto-edit", ModeAutoEdit.String())
	assert.Equal(t, "full-auto", ModeFullAuto.String())
}

func TestReviewEdit(t *testing.T) {
	assert.False(t, NewPolicy(ModeSuggest).ReviewEdit().Approved)
	assert.True(t, NewPolicy(ModeAutoEdit).ReviewEdit().Approved)
	assert.True(t, NewPolicy(ModeFullAuto).ReviewEdit().Approved)
}

func TestReviewCommand(t *testing.T) {
	assert.False(t, NewPolicy(ModeSuggest).ReviewCommand("rm -rf /tmp/x").Approved)
	assert.False(t, NewPolicy(ModeAutoEdit).ReviewCommand("go test ./...").Approved)
	assert.True(t, NewPolicy(ModeFullAuto).ReviewCommand("rm -rf /tmp/x").Approved)
}

func TestReviewCommandKnownSafe(t *testing.T) {
	p := NewPolicy(ModeSuggest)
	for _, cmd := range []string{"ls", "ls -la src", "cat go.mod", "pwd", "grep -r TODO .", "rg foo internal", "head -n 5 README.md", "wc -l main.go", "which go"} {
		assert.True(t, p.ReviewCommand(cmd).Approved, cmd)
	}
}

func TestIsKnownSafeRejectsMetacharacters(t *testing.T) {
	for _, cmd := range []string{
		"cat foo > bar",
		"ls | rm -rf /",
		"ls; rm x",
		"cat $(secret)",
		"grep foo `cmd`",
		"ls && rm x",
		"",
		"rm -rf /",
	} {
		assert.False(t, IsKnownSafe(cmd), cmd)
	}
}
