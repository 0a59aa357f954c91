package util

import (
	"bytes"
	"encoding/base64"
	"mime/multipart"
	"net/http/httptest"
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// 1x1 transparent PNG
const tinyPNG = "iVBORw0KGgoAAAANSUhEUgAAAAEAAAABCAQAAAC1HAwCAAAAC0lEQVR42mNkYAAAAAYAAjCB0C8AAAAASUVORK5CYII="

func multipartFile(t *testing.T, field, name string, content []byte) *multipart.FileHeader {
	t.Helper()
	body := &bytes.Buffer{}
	w := multipart.NewWriter(body)
	part, err := w.CreateFormFile(field, name)
	require.NoError(t, err)
	_, err = part.Write(content)
	require.NoError(t, err)
	require.NoError(t, w.Close())

	req := httptest.NewRequest("POST", "/", body)
	req.Header.Set("Content-Type", w.FormDataContentType())
	require.NoError(t, req.ParseMultipartForm(MaxImageSize))
	return req.MultipartForm.File[field][0]
}

func TestSaveImage_PNG(t *testing.T) {
	png, err := base64.StdEncoding.DecodeString(tinyPNG)
	require.NoError(t, err)
	dir := t.TempDir()

	path, err := SaveImage(multipartFile(t, "image", "my photo.png", png), dir)
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(path, "-my_photo.png"))

	stored, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, png, stored)
}

func TestSaveImage_RejectsNonImage(t *testing.T) {
	_, err := SaveImage(multipartFile(t, "image", "fake.png", []byte("#!/bin/sh\necho hi\n")), t.TempDir())
	assert.ErrorIs(t, err, ErrImageType)
}
