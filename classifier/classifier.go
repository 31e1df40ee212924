package classifier

import (
	"bytes"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/pkg/errors"
)

// MinSize is the smallest valid SQLite file: one 512 byte page.
const MinSize = 512

// Magic is the header every SQLite 3 database starts with.
var Magic = []byte("SQLite format 3\x00")

var extensions = map[string]struct{}{
	".db":     {},
	".sqlite": {},
}

// Target is a file confirmed to be a compaction candidate. Sizes are not
// cached here, they are read fresh around the compaction itself.
type Target struct {
	Path string
}

type Result int

const (
	Reject Result = iota
	Accept
)

func (r Result) String() string {
	if r == Accept {
		return "accept"
	}
	return "reject"
}

// Classify decides whether path is a compaction target. A non-nil error is
// an access failure; non-existence and non-regular files are a plain Reject.
func Classify(path string, aggressive bool) (Result, Target, error) {
	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return Reject, Target{}, nil
		}
		return Reject, Target{}, errors.Wrap(err, "stat")
	}
	return classifyInfo(path, info, aggressive)
}

func classifyInfo(path string, info fs.FileInfo, aggressive bool) (Result, Target, error) {
	if !info.Mode().IsRegular() {
		return Reject, Target{}, nil
	}
	if info.Size() < MinSize {
		return Reject, Target{}, nil
	}

	if !aggressive {
		if _, ok := extensions[filepath.Ext(path)]; !ok {
			return Reject, Target{}, nil
		}
		return Accept, Target{Path: path}, nil
	}

	ok, err := hasMagic(path)
	if err != nil {
		return Reject, Target{}, err
	}
	if !ok {
		return Reject, Target{}, nil
	}
	return Accept, Target{Path: path}, nil
}

func hasMagic(path string) (bool, error) {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return false, nil
		}
		return false, errors.Wrap(err, "open header")
	}
	defer f.Close()

	header := make([]byte, len(Magic))
	if _, err := io.ReadFull(f, header); err != nil {
		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			return false, nil
		}
		return false, errors.Wrap(err, "read header")
	}
	return bytes.Equal(header, Magic), nil
}
