package artifact

import (
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

// Info describes an artifact found on disk.
type Info struct {
	Path    string
	Size    int64
	ModTime time.Time
	Packed  bool
}

// List returns the artifacts in dir whose names start with prefix, newest
// first.
func List(dir, prefix string) ([]Info, error) {
	if dir == "" {
		dir = os.TempDir()
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}

	var infos []Info
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasPrefix(entry.Name(), prefix) {
			continue
		}
		fi, err := entry.Info()
		if err != nil {
			continue // Removed while listing.
		}
		infos = append(infos, Info{
			Path:    filepath.Join(dir, entry.Name()),
			Size:    fi.Size(),
			ModTime: fi.ModTime(),
			Packed:  IsPacked(entry.Name()),
		})
	}

	sort.Slice(infos, func(i, j int) bool {
		return infos[i].ModTime.After(infos[j].ModTime)
	})
	return infos, nil
}
