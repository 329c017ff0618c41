package export

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSanitizeName(t *testing.T) {
	cases := []struct {
		in     string
		maxLen int
		want   string
	}{
		{"Interview\tTake\n2", 0, "InterviewTake2"},
		{"Scene 4 (alt), v1.2 - final_cut", 0, "Scene 4 (alt), v1.2 - final_cut"},
		{`cut: "wide"?`, 0, "cut_ _wide__"},
		{"../reels/b\\roll", 0, ".._reels_b_roll"},
		{"Señora Müller", 0, "Señora Müller"},
		{"Opening Titles", 7, "Opening"},
		{"Open   Titles", 6, "Open"},
		{"  \x00  ", 10, ""},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, SanitizeName(tc.in, tc.maxLen), "SanitizeName(%q, %d)", tc.in, tc.maxLen)
	}
}

func TestValidateOutputDir(t *testing.T) {
	base := t.TempDir()
	reel := filepath.Join(base, "reel.edl")
	require.NoError(t, os.WriteFile(reel, []byte("TITLE: x\n"), 0o644))

	assert.NoError(t, ValidateOutputDir(base))

	bad := map[string]string{
		"empty":        "",
		"blank":        "   ",
		"raw dotdot":   base + "/../x",
		"trailing sep": base + string(filepath.Separator),
		"missing":      filepath.Join(base, "exports"),
		"regular file": reel,
	}
	for name, dir := range bad {
		t.Run(name, func(t *testing.T) {
			assert.ErrorIs(t, ValidateOutputDir(dir), ErrInvalidOutputDir)
		})
	}
}
