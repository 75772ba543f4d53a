// internal/lexicon/load.go
//
// Lexicon loading.
//
// Source shape (JSON or YAML):
//
//	{"common": {"3": ["cat", ...], "4": [...]}, "uncommon": {...}}
//
// Words are normalised to lowercase ASCII: accents are stripped (NFD + drop
// combining marks) so "élève" loads as "eleve". Anything else that is not
// a–z, a length key that disagrees with a word, an unknown tier or an empty
// lexicon makes the load fail with ErrMalformed. A malformed lexicon is fatal
// at startup; there is no partial load.

package lexicon

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
	"gopkg.in/yaml.v3"

	"github.com/robalobadob/crossword/assets"
)

// ErrMalformed is returned for any lexicon source that cannot be loaded.
var ErrMalformed = errors.New("lexicon: malformed source")

// Format selects the decoder for a lexicon source.
type Format int

const (
	JSON Format = iota
	YAML
)

// FormatFromPath picks a Format from a file extension (.json, .yaml, .yml).
func FormatFromPath(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return JSON, nil
	case ".yaml", ".yml":
		return YAML, nil
	}
	return 0, fmt.Errorf("%w: unsupported extension %q", ErrMalformed, filepath.Ext(path))
}

type options struct {
	minLen int
}

// Option configures Load.
type Option func(*options)

// WithMinWordLength overrides DefaultMinWordLength.
func WithMinWordLength(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.minLen = n
		}
	}
}

// source is tier → length → words.
type source map[string]map[int][]string

// rawSource is the file as decoded. Length keys stay strings so "3" and 3
// both work in YAML.
type rawSource map[string]map[string][]string

// Load decodes a lexicon from r.
func Load(r io.Reader, format Format, opts ...Option) (*Index, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read lexicon: %w", err)
	}
	var raw rawSource
	switch format {
	case JSON:
		err = json.Unmarshal(data, &raw)
	case YAML:
		err = yaml.Unmarshal(data, &raw)
	default:
		err = fmt.Errorf("unknown format %d", format)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	src, err := raw.lengths()
	if err != nil {
		return nil, err
	}
	return build(src, opts...)
}

// lengths converts the length keys to ints.
func (raw rawSource) lengths() (source, error) {
	src := make(source, len(raw))
	for tier, byKey := range raw {
		byLen := make(map[int][]string, len(byKey))
		for key, words := range byKey {
			n, err := strconv.Atoi(strings.TrimSpace(key))
			if err != nil {
				return nil, fmt.Errorf("%w: length key %q in %s is not a number", ErrMalformed, key, tier)
			}
			byLen[n] = append(byLen[n], words...)
		}
		src[tier] = byLen
	}
	return src, nil
}

// LoadFile loads a lexicon from disk, choosing the decoder by extension.
func LoadFile(path string, opts ...Option) (*Index, error) {
	format, err := FormatFromPath(path)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open lexicon: %w", err)
	}
	defer f.Close()
	return Load(f, format, opts...)
}

// LoadEmbedded loads the lexicon shipped in the assets package.
func LoadEmbedded(opts ...Option) (*Index, error) {
	f, err := assets.Lexicon()
	if err != nil {
		return nil, fmt.Errorf("open embedded lexicon: %w", err)
	}
	defer f.Close()
	return Load(f, JSON, opts...)
}

// LoadDefault loads path when set and the embedded lexicon otherwise.
func LoadDefault(path string, opts ...Option) (*Index, error) {
	if path == "" {
		return LoadEmbedded(opts...)
	}
	return LoadFile(path, opts...)
}

// FromWords builds an Index directly from tier → words, grouping by length.
// Used by tests and tools that assemble small lexicons in code.
func FromWords(words map[Tier][]string, opts ...Option) (*Index, error) {
	src := source{}
	for tier, list := range words {
		byLen := src[string(tier)]
		if byLen == nil {
			byLen = map[int][]string{}
			src[string(tier)] = byLen
		}
		for _, w := range list {
			n := len(normalize(w))
			byLen[n] = append(byLen[n], w)
		}
	}
	return build(src, opts...)
}

func build(src source, opts ...Option) (*Index, error) {
	o := options{minLen: DefaultMinWordLength}
	for _, opt := range opts {
		opt(&o)
	}

	x := &Index{byTier: make(map[Tier]map[int][]string, len(Tiers)), minLen: o.minLen}
	total := 0
	for key, byLen := range src {
		tier := Tier(key)
		if tier != Common && tier != Uncommon {
			return nil, fmt.Errorf("%w: unknown tier %q", ErrMalformed, key)
		}
		out := make(map[int][]string, len(byLen))
		for n, list := range byLen {
			if n <= 0 {
				return nil, fmt.Errorf("%w: invalid length key %d in %s", ErrMalformed, n, tier)
			}
			seen := make(map[string]struct{}, len(list))
			for _, raw := range list {
				w := normalize(raw)
				if !isAlpha(w) {
					return nil, fmt.Errorf("%w: %q is not alphabetic", ErrMalformed, raw)
				}
				if len(w) != n {
					return nil, fmt.Errorf("%w: %q listed under length %d", ErrMalformed, raw, n)
				}
				if _, dup := seen[w]; dup {
					continue
				}
				seen[w] = struct{}{}
				out[n] = append(out[n], w)
				total++
			}
		}
		x.byTier[tier] = out
	}
	if total == 0 {
		return nil, fmt.Errorf("%w: no words", ErrMalformed)
	}
	return x, nil
}

// normalize lowercases w and strips diacritics.
func normalize(w string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	s, _, err := transform.String(t, strings.TrimSpace(w))
	if err != nil {
		s = w
	}
	return strings.ToLower(s)
}

// isAlpha reports whether s is non-empty and all lowercase ASCII letters.
func isAlpha(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < 'a' || r > 'z' {
			return false
		}
	}
	return true
}
