// Package clipx wraps the platform clipboard behind test seams.
package clipx

import "github.com/atotto/clipboard"

// Seams for tests.
var (
	writeAll = clipboard.WriteAll
	readAll  = clipboard.ReadAll
)

// Write places payload on the platform clipboard.
func Write(payload string) error {
	return writeAll(payload)
}

// Read returns the clipboard's current text content.
func Read() (string, error) {
	return readAll()
}
