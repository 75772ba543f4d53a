// assets/embed.go
//
// Embedded data files shipped with the server binary.
//   - lexicon.json: default word list, tier → length → words.
//
// The lexicon package falls back to this file when LEXICON_FILE is unset.
package assets

import (
	"embed"
	"io"
)

//go:embed lexicon.json
var FS embed.FS

// LexiconName is the file name of the embedded lexicon inside FS.
const LexiconName = "lexicon.json"

// Lexicon opens the embedded lexicon for reading.
func Lexicon() (io.ReadCloser, error) {
	return FS.Open(LexiconName)
}
