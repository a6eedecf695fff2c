package uploads_test

import (
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"points-mall/internal/uploads"
)

func TestSaveAndOpen(t *testing.T) {
	st, err := uploads.New(t.TempDir())
	require.NoError(t, err)

	name, err := st.Save("photo.PNG", strings.NewReader("image bytes"))
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(name, ".png"))
	assert.NotContains(t, name, "photo", "original name must not leak into storage")

	f, err := st.Open(name)
	require.NoError(t, err)
	defer f.Close()
	data, err := io.ReadAll(f)
	require.NoError(t, err)
	assert.Equal(t, "image bytes", string(data))
}

func TestSaveUniqueNames(t *testing.T) {
	st, err := uploads.New(t.TempDir())
	require.NoError(t, err)

	a, err := st.Save("x.jpg", strings.NewReader("a"))
	require.NoError(t, err)
	b, err := st.Save("x.jpg", strings.NewReader("b"))
	require.NoError(t, err)
	assert.NotEqual(t, a, b)
}

func TestSaveRejectsUnknownExtension(t *testing.T) {
	st, err := uploads.New(t.TempDir())
	require.NoError(t, err)

	_, err = st.Save("script.sh", strings.NewReader("#!/bin/sh"))
	assert.ErrorIs(t, err, uploads.ErrUnsupportedType)

	_, err = st.Save("noext", strings.NewReader("data"))
	assert.ErrorIs(t, err, uploads.ErrUnsupportedType)
}

func TestOpenRejectsTraversal(t *testing.T) {
	st, err := uploads.New(t.TempDir())
	require.NoError(t, err)

	_, err = st.Open("../etc/passwd")
	assert.ErrorIs(t, err, uploads.ErrBadFilename)
	_, err = st.Open("")
	assert.ErrorIs(t, err, uploads.ErrBadFilename)
}
