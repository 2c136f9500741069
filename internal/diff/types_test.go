package diff

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFileRecord_Paths(t *testing.T) {
	created := FileRecord{OldPath: NoFile, NewPath: "new.py", Valid: true}
	require.True(t, created.Created())
	require.Equal(t, "new.py", created.DisplayPath())
	require.Equal(t, "new.py", created.FetchPath())

	deleted := FileRecord{OldPath: "old.go", NewPath: NoFile, Valid: true}
	require.True(t, deleted.Deleted())
	require.Equal(t, "old.go", deleted.DisplayPath())
	require.Equal(t, "old.go", deleted.FetchPath(), "deleted files fall back to the old path")

	neither := FileRecord{OldPath: NoFile, NewPath: NoFile}
	require.Equal(t, NoFile, neither.FetchPath(), "nothing to fetch")
}

func TestFileRecord_StatusPrecedence(t *testing.T) {
	require.Equal(t, StatusInvalid, FileRecord{Binary: true, Valid: false}.FileStatus())
	require.Equal(t, StatusBinary, FileRecord{Binary: true, Valid: true}.FileStatus())
	require.Equal(t, StatusModified, FileRecord{OldPath: "a.ts", NewPath: "a.ts", Valid: true}.FileStatus())
}
