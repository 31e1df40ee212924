package classifier

import (
	"bytes"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, dir, name string, header []byte, size int) string {
	t.Helper()
	data := make([]byte, size)
	copy(data, header)
	p := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(p, data, 0o644))
	return p
}

func TestClassifyModes(t *testing.T) {
	dir := t.TempDir()

	// Valid header behind an unsupported extension.
	disguised := writeFile(t, dir, "notes.bin", Magic, 2048)
	// Supported extension, garbage content.
	impostor := writeFile(t, dir, "cache.db", bytes.Repeat([]byte{'x'}, 16), 2048)
	genuine := writeFile(t, dir, "app.sqlite", Magic, 2048)

	tests := []struct {
		name       string
		path       string
		aggressive bool
		want       Result
	}{
		{"fast rejects disguised", disguised, false, Reject},
		{"aggressive accepts disguised", disguised, true, Accept},
		{"fast accepts impostor", impostor, false, Accept},
		{"aggressive rejects impostor", impostor, true, Reject},
		{"fast accepts genuine", genuine, false, Accept},
		{"aggressive accepts genuine", genuine, true, Accept},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, target, err := Classify(tt.path, tt.aggressive)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			if got == Accept {
				assert.Equal(t, tt.path, target.Path)
			} else {
				assert.Empty(t, target.Path)
			}
		})
	}
}

func TestClassifyRejectsSmallFiles(t *testing.T) {
	dir := t.TempDir()
	for _, size := range []int{0, 16, 100, MinSize - 1} {
		p := writeFile(t, dir, "tiny.db", Magic, size)
		for _, aggressive := range []bool{false, true} {
			got, _, err := Classify(p, aggressive)
			require.NoError(t, err)
			assert.Equal(t, Reject, got, "size=%d aggressive=%v", size, aggressive)
		}
	}

	p := writeFile(t, dir, "edge.db", Magic, MinSize)
	got, _, err := Classify(p, true)
	require.NoError(t, err)
	assert.Equal(t, Accept, got)
}

func TestClassifyNonFiles(t *testing.T) {
	dir := t.TempDir()

	sub := filepath.Join(dir, "nested.db")
	require.NoError(t, os.Mkdir(sub, 0o755))

	got, _, err := Classify(sub, false)
	require.NoError(t, err)
	assert.Equal(t, Reject, got)

	got, _, err = Classify(filepath.Join(dir, "missing.db"), false)
	require.NoError(t, err)
	assert.Equal(t, Reject, got)

	if runtime.GOOS != "windows" {
		link := filepath.Join(dir, "dangling.db")
		require.NoError(t, os.Symlink(filepath.Join(dir, "gone.db"), link))
		got, _, err = Classify(link, true)
		require.NoError(t, err)
		assert.Equal(t, Reject, got)
	}
}

func TestClassifyUnreadableHeader(t *testing.T) {
	if runtime.GOOS == "windows" || os.Getuid() == 0 {
		t.Skip("permission bits are not enforced")
	}
	dir := t.TempDir()
	p := writeFile(t, dir, "locked.db", Magic, 1024)
	require.NoError(t, os.Chmod(p, 0o000))
	t.Cleanup(func() { os.Chmod(p, 0o644) })

	// Fast mode never reads content.
	got, _, err := Classify(p, false)
	require.NoError(t, err)
	assert.Equal(t, Accept, got)

	got, _, err = Classify(p, true)
	assert.Error(t, err)
	assert.Equal(t, Reject, got)
}

func TestResultString(t *testing.T) {
	assert.Equal(t, "accept", Accept.String())
	assert.Equal(t, "reject", Reject.String())
}
