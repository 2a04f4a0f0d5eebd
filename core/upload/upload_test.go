package upload

import (
	"bytes"
	"context"
	"io"
	"strings"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/elimu/core/user"
)

var pngHeader = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR")

type memStore struct {
	files map[string][]byte
	err   error
}

func (s *memStore) Put(_ context.Context, key, _ string, content io.Reader) (string, error) {
	if s.err != nil {
		return "", s.err
	}
	data, err := io.ReadAll(content)
	if err != nil {
		return "", err
	}
	if s.files == nil {
		s.files = make(map[string][]byte)
	}
	s.files[key] = data
	return "/uploads/" + key, nil
}

func newFile(name string, content []byte) File {
	return File{Name: name, Size: int64(len(content)), Content: bytes.NewReader(content)}
}

func TestService_Upload(t *testing.T) {
	teacher := user.User{ID: "t1", Role: user.RoleTeacher}
	student := user.User{ID: "s1", Role: user.RoleStudent}

	t.Run("stores image", func(t *testing.T) {
		store := &memStore{}
		svc := NewService(store)

		res, err := svc.Upload(context.Background(), EndpointProgramImage, teacher, newFile("Cover.PNG", pngHeader))
		require.NoError(t, err)
		assert.Equal(t, "image/png", res.Type)
		assert.Equal(t, "Cover.PNG", res.Name)
		assert.True(t, strings.HasSuffix(res.Key, ".png"))
		assert.Equal(t, "/uploads/"+res.Key, res.URL)
		assert.Equal(t, pngHeader, store.files[res.Key])
	})

	t.Run("stores pdf attachment", func(t *testing.T) {
		svc := NewService(&memStore{})
		res, err := svc.Upload(context.Background(), EndpointProgramAttachment, teacher, newFile("syllabus.pdf", []byte("%PDF-1.4\n%...")))
		require.NoError(t, err)
		assert.Equal(t, "application/pdf", res.Type)
	})

	t.Run("any user may upload a profile image", func(t *testing.T) {
		svc := NewService(&memStore{})
		_, err := svc.Upload(context.Background(), EndpointProfileImage, student, newFile("me.png", pngHeader))
		assert.NoError(t, err)
	})

	tests := []struct {
		name     string
		endpoint string
		usr      user.User
		file     File
		wantErr  error
	}{
		{"unknown endpoint", "avatar", teacher, newFile("a.png", pngHeader), ErrUnknownEndpoint},
		{"forbidden role", EndpointProgramImage, student, newFile("a.png", pngHeader), ErrForbidden},
		{"no file", EndpointProgramImage, teacher, File{Name: "a.png"}, ErrNoFile},
		{"too large", EndpointProgramImage, teacher, File{Name: "a.png", Size: 5 * MiB, Content: bytes.NewReader(pngHeader)}, ErrTooLarge},
		{"wrong type", EndpointProgramImage, teacher, newFile("a.pdf", []byte("%PDF-1.4\n")), ErrTypeNotAllowed},
		{"disguised type", EndpointProgramImage, teacher, newFile("a.png", []byte("<html><body>hi</body></html>")), ErrTypeNotAllowed},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			store := &memStore{}
			svc := NewService(store)
			_, err := svc.Upload(context.Background(), tc.endpoint, tc.usr, tc.file)
			assert.Equal(t, tc.wantErr, errors.Cause(err))
			assert.Empty(t, store.files)
		})
	}

	t.Run("store failure", func(t *testing.T) {
		svc := NewService(&memStore{err: errors.New("disk full")})
		_, err := svc.Upload(context.Background(), EndpointProgramImage, teacher, newFile("a.png", pngHeader))
		require.Error(t, err)
		assert.Equal(t, "storing upload: disk full", err.Error())
	})
}

func TestFormatSize(t *testing.T) {
	assert.Equal(t, "4MB", formatSize(4*MiB))
	assert.Equal(t, "512KB", formatSize(512*KiB))
}
