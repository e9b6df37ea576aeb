package filestore

import (
	"bytes"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSaveAndOpen(t *testing.T) {
	s, err := New(t.TempDir())
	require.NoError(t, err)

	_, err = s.Save("company_logo.png", strings.NewReader("fake png"))
	require.NoError(t, err)

	r, mime, err := s.Open("company_logo.png")
	require.NoError(t, err)
	t.Cleanup(func() { _ = r.Close() })

	data, err := io.ReadAll(r)
	require.NoError(t, err)
	assert.Equal(t, "fake png", string(data))
	assert.Equal(t, "image/png", mime)
}

func TestSaveOverwrites(t *testing.T) {
	s, err := New(t.TempDir())
	require.NoError(t, err)

	_, err = s.Save("INV-001.png", bytes.NewReader([]byte("v1")))
	require.NoError(t, err)
	_, err = s.Save("INV-001.png", bytes.NewReader([]byte("v2")))
	require.NoError(t, err)

	r, _, err := s.Open("INV-001.png")
	require.NoError(t, err)
	t.Cleanup(func() { _ = r.Close() })

	data, err := io.ReadAll(r)
	require.NoError(t, err)
	assert.Equal(t, "v2", string(data))
}

func TestOpenMissing(t *testing.T) {
	s, err := New(t.TempDir())
	require.NoError(t, err)

	_, _, err = s.Open("nope.png")
	assert.Error(t, err)
}

func TestTraversalRejected(t *testing.T) {
	s, err := New(t.TempDir())
	require.NoError(t, err)

	_, _, err = s.Open("../../etc/passwd")
	assert.Error(t, err)

	_, err = s.Save("../escape.png", strings.NewReader("x"))
	assert.Error(t, err)
}

func TestMimeTypes(t *testing.T) {
	s, err := New(t.TempDir())
	require.NoError(t, err)

	for name, want := range map[string]string{
		"logo.jpg":  "image/jpeg",
		"logo.jpeg": "image/jpeg",
		"logo.png":  "image/png",
	} {
		_, err := s.Save(name, strings.NewReader("x"))
		require.NoError(t, err)
		r, mime, err := s.Open(name)
		require.NoError(t, err)
		_ = r.Close()
		assert.Equal(t, want, mime, name)
	}
}
