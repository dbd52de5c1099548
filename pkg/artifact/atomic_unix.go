//go:build !windows

package artifact

import (
	"io"

	"github.com/google/renameio/v2"
)

// writeAtomic fills a pending file and renames it over path.
func writeAtomic(path string, fill func(io.Writer) error) error {
	pf, err := renameio.NewPendingFile(path, renameio.WithPermissions(0o600))
	if err != nil {
		return err
	}
	defer pf.Cleanup()

	if err := fill(pf); err != nil {
		return err
	}
	return pf.CloseAtomicallyReplace()
}
