// package controllers implements the HTTP controllers of the player control API
package controllers

import (
	"io/fs"
	"os"
)

// FileOpener opens a file for a file response. The returned file is owned by the response.
type FileOpener func(path string) (fs.File, error)

// OpenFile opens path on the local file system.
func OpenFile(path string) (fs.File, error) {
	return os.Open(path)
}
