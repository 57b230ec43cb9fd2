package source

import (
	"io"
	"io/fs"
	"os"
)

// FileSystem is the surface LocalFile needs from the disk.
type FileSystem interface {
	Stat(string) (fs.FileInfo, error)
	Open(string) (io.ReadCloser, error)
	ReadFile(string) ([]byte, error)
}

// OSFileSystem delegates to the os package.
type OSFileSystem struct{}

func (OSFileSystem) Stat(p string) (fs.FileInfo, error)   { return os.Stat(p) }
func (OSFileSystem) Open(p string) (io.ReadCloser, error) { return os.Open(p) }
func (OSFileSystem) ReadFile(p string) ([]byte, error)    { return os.ReadFile(p) }

var _ FileSystem = OSFileSystem{}
