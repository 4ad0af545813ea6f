package install

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestRecord_SaveLoad(t *testing.T) {
	path := RecordPath(t.TempDir())
	rec := &Record{
		Project:       "mytool",
		Version:       "1.2.3",
		Platform:      "linux/amd64",
		Archive:       "mytool_linux_amd64.tar.gz",
		ArchiveDigest: "ab12",
		Binary:        "mytool",
		BinarySHA256:  "cd34",
		Size:          42,
		InstalledAt:   time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
		InstalledBy:   "v0.1.0",
	}
	require.NoError(t, rec.Save(path))

	_, err := os.Stat(path + ".tmp")
	require.True(t, os.IsNotExist(err), "temp file must be renamed away")

	got, err := LoadRecord(path)
	require.NoError(t, err)
	require.Equal(t, rec.Project, got.Project)
	require.Equal(t, rec.BinarySHA256, got.BinarySHA256)
	require.Equal(t, rec.Size, got.Size)
	require.True(t, rec.InstalledAt.Equal(got.InstalledAt))
}

func TestLoadRecord_Missing(t *testing.T) {
	rec, err := LoadRecord(filepath.Join(t.TempDir(), RecordFileName))
	require.NoError(t, err)
	require.Nil(t, rec)
}

func TestLoadRecord_Invalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), RecordFileName)
	require.NoError(t, os.WriteFile(path, []byte("version = [unterminated"), 0644))
	_, err := LoadRecord(path)
	require.Error(t, err)
}

func TestRecord_Matches(t *testing.T) {
	rec := &Record{Project: "mytool", Version: "1.2.3", Platform: "linux/amd64"}
	require.True(t, rec.Matches("mytool", "1.2.3", "linux/amd64"))
	require.False(t, rec.Matches("mytool", "1.2.4", "linux/amd64"))
	require.False(t, rec.Matches("mytool", "1.2.3", "darwin/arm64"))
	require.False(t, rec.Matches("other", "1.2.3", "linux/amd64"))

	var missing *Record
	require.False(t, missing.Matches("mytool", "1.2.3", "linux/amd64"))
}
