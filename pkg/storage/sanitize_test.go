package storage

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSanitizeFilenameAccepts(t *testing.T) {
	name, err := SanitizeFilename("Midterm Notes.PDF")
	require.NoError(t, err)
	require.Equal(t, "Midterm Notes.pdf", name)

	name, err = SanitizeFilename("assignment_3-final.docx")
	require.NoError(t, err)
	require.Equal(t, "assignment_3-final.docx", name)
}

func TestSanitizeFilenameRejectsTraversal(t *testing.T) {
	cases := []string{
		"../etc/passwd",
		"..\\windows\\system32",
		"notes/../../secret.pdf",
		"/etc/shadow",
		"dir/file.pdf",
		"bad\x00name.pdf",
		"",
		"   ",
		"...",
	}
	for _, raw := range cases {
		_, err := SanitizeFilename(raw)
		require.Error(t, err, "expected rejection for %q", raw)
	}
}

func TestSanitizeFilenameReplacesOddRunes(t *testing.T) {
	name, err := SanitizeFilename("exam?*:2024.pdf")
	require.NoError(t, err)
	require.Equal(t, "exam___2024.pdf", name)
}

func TestExtension(t *testing.T) {
	require.Equal(t, "pdf", Extension("notes.PDF"))
	require.Equal(t, "", Extension("noextension"))
}

func TestStoredNameKeepsExtension(t *testing.T) {
	name := StoredName("Notes.PDF")
	require.True(t, strings.HasSuffix(name, ".pdf"), name)
	require.True(t, strings.HasPrefix(name, "resource_"), name)

	name = StoredName("raw")
	require.True(t, strings.HasSuffix(name, ".bin"), name)
}

func TestLocalStorageResolveRejectsEscape(t *testing.T) {
	dir := t.TempDir()
	store, err := NewLocalStorage(dir)
	require.NoError(t, err)

	_, err = store.Save("../outside.txt", []byte("x"))
	require.Error(t, err)

	_, err = store.Save("/abs/outside.txt", []byte("x"))
	require.Error(t, err)

	rel, err := store.Save("inside.txt", []byte("x"))
	require.NoError(t, err)
	require.Equal(t, "inside.txt", rel)

	f, err := store.Open("inside.txt")
	require.NoError(t, err)
	require.NoError(t, f.Close())
}
