package restyutil

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/mazen160/go-random"
)

// FilesystemOutput writes each instrumented http message to its own file
// inside a directory. Files of one output share a prefix unique to it, so
// several runs can dump into the same directory.
type FilesystemOutput struct {
	directory string
	prefix    string
}

// NewFilesystemOutput creates `dir` if needed. Nothing already in it is
// removed or overwritten.
func NewFilesystemOutput(dir string) (FilesystemOutput, error) {
	dir, err := filepath.Abs(dir)
	if err != nil {
		return FilesystemOutput{}, err
	}
	err = os.MkdirAll(dir, 0755)
	if err != nil {
		return FilesystemOutput{}, err
	}
	suffix, err := random.Bytes(4)
	if err != nil {
		return FilesystemOutput{}, err
	}
	prefix := fmt.Sprintf("http-%s-%x", time.Now().Format("20060102-150405"), suffix)
	return FilesystemOutput{directory: dir, prefix: prefix}, nil
}

func (o FilesystemOutput) Directory() string {
	return o.directory
}

// Path is the file the message `id` is written to.
func (o FilesystemOutput) Path(id string) string {
	return filepath.Join(o.directory, fmt.Sprintf("%s-%s.txt", o.prefix, id))
}

func (o FilesystemOutput) Write(id string, contents string) {
	path := o.Path(id)
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0600)
	if err != nil {
		slog.Warn("failed to create message info file", "path", path, "err", err)
		return
	}
	defer f.Close()
	_, err = f.WriteString(contents)
	if err != nil {
		slog.Warn("failed to write message info file", "path", path, "err", err)
	}
}
