package dosfs

import (
	"fmt"
	"math"
	"os"
	"time"

	"github.com/spf13/afero"

	"github.com/tnicklin/dosrt/walltime"
)

// File is an open file handle.
type File struct {
	f afero.File
}

// Metadata describes an open file.
type Metadata struct {
	size     int64
	dir      bool
	modified walltime.Time
}

func (m Metadata) Len() int64              { return m.size }
func (m Metadata) IsDir() bool             { return m.dir }
func (m Metadata) Modified() walltime.Time { return m.modified }

// Open opens path on fs with o.
func (o *OpenOptions) Open(fs afero.Fs, path string) (*File, error) {
	flag, err := o.flags()
	if err != nil {
		return nil, err
	}
	f, err := fs.OpenFile(path, flag, 0o644)
	if err != nil {
		return nil, err
	}
	return &File{f: f}, nil
}

// Open opens path read-only.
func Open(fs afero.Fs, path string) (*File, error) {
	return NewOpenOptions().Read(true).Open(fs, path)
}

// Create opens path write-only, creating it or truncating it.
func Create(fs afero.Fs, path string) (*File, error) {
	return NewOpenOptions().Write(true).Create(true).Truncate(true).Open(fs, path)
}

// CreateNew creates path read-write and fails if it already exists.
func CreateNew(fs afero.Fs, path string) (*File, error) {
	return NewOpenOptions().Read(true).Write(true).CreateNew(true).Open(fs, path)
}

// Rename moves oldPath to newPath. Like INT 21h/56h it refuses to replace an
// existing file.
func Rename(fs afero.Fs, oldPath, newPath string) error {
	if _, err := fs.Stat(newPath); err == nil {
		return &os.LinkError{Op: "rename", Old: oldPath, New: newPath, Err: os.ErrExist}
	}
	return fs.Rename(oldPath, newPath)
}

func (f *File) Read(p []byte) (int, error)  { return f.f.Read(p) }
func (f *File) Write(p []byte) (int, error) { return f.f.Write(p) }
func (f *File) Name() string                { return f.f.Name() }
func (f *File) Close() error                { return f.f.Close() }

// Metadata returns size and modification time of f.
func (f *File) Metadata() (Metadata, error) {
	info, err := f.f.Stat()
	if err != nil {
		return Metadata{}, err
	}
	modified, err := toWallTime(info.ModTime())
	if err != nil {
		return Metadata{}, fmt.Errorf("dosfs: %s: %w", f.f.Name(), err)
	}
	return Metadata{size: info.Size(), dir: info.IsDir(), modified: modified}, nil
}

func toWallTime(t time.Time) (walltime.Time, error) {
	sec := t.Unix()
	if sec < 0 || sec > math.MaxUint32 {
		return walltime.Time{}, fmt.Errorf("modification time %d outside 32-bit unix range", sec)
	}
	return walltime.UnixEpoch.Add(time.Duration(sec) * time.Second), nil
}
