package scanner

import (
	"os"
	"path/filepath"

	"github.com/pkg/errors"
)

// Root is a user supplied label and the directory it resolves to.
type Root struct {
	Label string
	Path  string
}

// ResolveRoots turns command line arguments into roots, keeping the
// argument as the label. No arguments means the working directory.
func ResolveRoots(args []string) ([]Root, error) {
	if len(args) == 0 {
		cwd, err := os.Getwd()
		if err != nil {
			return nil, errors.Wrap(err, "can not access current working dir")
		}
		return []Root{{Label: ".", Path: cwd}}, nil
	}

	roots := make([]Root, 0, len(args))
	seen := make(map[string]struct{}, len(args))
	for _, arg := range args {
		absPath, err := filepath.Abs(arg)
		if err != nil {
			return nil, errors.Wrapf(err, "resolving path %s", arg)
		}
		if _, dup := seen[absPath]; dup {
			continue
		}
		seen[absPath] = struct{}{}
		roots = append(roots, Root{Label: arg, Path: absPath})
	}
	return roots, nil
}

// CheckRoot reports why path cannot be scanned, or nil when it is an
// accessible directory.
func CheckRoot(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return errors.Wrap(err, "stat root")
	}
	if !info.IsDir() {
		return errors.Errorf("%s is not a directory", path)
	}
	f, err := os.Open(path)
	if err != nil {
		return errors.Wrap(err, "open root")
	}
	return f.Close()
}
