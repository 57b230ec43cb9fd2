package mocks

import (
	"io"
	"io/fs"

	"github.com/stretchr/testify/mock"

	"github.com/yndnr/confmesh/internal/source"
)

var _ source.FileSystem = (*MockFileSystem)(nil)

// MockFileSystem mocks source.FileSystem.
type MockFileSystem struct {
	mock.Mock
}

// Stat mocks the Stat method.
func (m *MockFileSystem) Stat(p string) (fs.FileInfo, error) {
	args := m.Called(p)
	var info fs.FileInfo
	if args.Get(0) != nil {
		info = args.Get(0).(fs.FileInfo)
	}
	return info, args.Error(1)
}

// Open mocks the Open method.
func (m *MockFileSystem) Open(p string) (io.ReadCloser, error) {
	args := m.Called(p)
	var rc io.ReadCloser
	if args.Get(0) != nil {
		rc = args.Get(0).(io.ReadCloser)
	}
	return rc, args.Error(1)
}

// ReadFile mocks the ReadFile method.
func (m *MockFileSystem) ReadFile(p string) ([]byte, error) {
	args := m.Called(p)
	var data []byte
	if args.Get(0) != nil {
		data = args.Get(0).([]byte)
	}
	return data, args.Error(1)
}
