// Package typeset renders the TeX subset used by exercise questions into
// terminal text.
package typeset

import (
	"bytes"
	"context"
	"embed"
	"fmt"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/sirupsen/logrus"
)

// Renderer kinds accepted by New.
const (
	KindUnicode = "unicode"
	KindPlain   = "plain"
	KindRemote  = "remote"
)

// DefaultTimeout bounds a renderer load before falling back to plain text.
const DefaultTimeout = 5 * time.Second

//go:embed tables/*.toml
var tableFS embed.FS

// Renderer turns TeX question sources into display text.
type Renderer interface {
	// Loaded reports whether Render can be called without loading first.
	Loaded() bool
	// Load makes the renderer available. It is a no-op once loaded.
	Load(ctx context.Context) error
	// Render typesets tex. Malformed input returns an error.
	Render(tex string) (string, error)
}

// Table maps TeX commands to display text.
type Table struct {
	Symbols map[string]string `toml:"symbols"`
	Frac    string            `toml:"frac"`
	Sqrt    string            `toml:"sqrt"`
}

func (t Table) validate() error {
	if t.Frac == "" {
		return fmt.Errorf("table is missing frac layout")
	}
	if t.Sqrt == "" {
		return fmt.Errorf("table is missing sqrt layout")
	}
	return nil
}

// DecodeTable parses a TOML symbol table.
func DecodeTable(data []byte) (Table, error) {
	var t Table
	if _, err := toml.NewDecoder(bytes.NewReader(data)).Decode(&t); err != nil {
		return Table{}, fmt.Errorf("failed to decode symbol table: %w", err)
	}
	if err := t.validate(); err != nil {
		return Table{}, err
	}
	return t, nil
}

func mustEmbeddedTable(name string) Table {
	data, err := tableFS.ReadFile("tables/" + name + ".toml")
	if err != nil {
		panic(fmt.Sprintf("typeset: missing embedded table %s: %v", name, err))
	}
	t, err := DecodeTable(data)
	if err != nil {
		panic(fmt.Sprintf("typeset: embedded table %s: %v", name, err))
	}
	return t
}

// Static is a renderer backed by a built-in table. It is always loaded.
type Static struct {
	table Table
}

// NewUnicode returns the built-in Unicode renderer.
func NewUnicode() *Static {
	return &Static{table: mustEmbeddedTable(KindUnicode)}
}

// NewPlain returns the built-in ASCII renderer.
func NewPlain() *Static {
	return &Static{table: mustEmbeddedTable(KindPlain)}
}

// Loaded implements Renderer.
func (s *Static) Loaded() bool {
	return true
}

// Load implements Renderer.
func (s *Static) Load(context.Context) error {
	return nil
}

// Render implements Renderer.
func (s *Static) Render(tex string) (string, error) {
	return render(s.table, tex)
}

// New builds a renderer of the given kind. remoteURL and cacheDir apply to
// the remote kind only, which requires remoteURL.
func New(kind, remoteURL, cacheDir string) (Renderer, error) {
	switch kind {
	case "", KindUnicode:
		return NewUnicode(), nil
	case KindPlain:
		return NewPlain(), nil
	case KindRemote:
		if remoteURL == "" {
			return nil, fmt.Errorf("remote renderer needs a symbol table url")
		}
		return NewRemote(remoteURL, cacheDir, nil), nil
	default:
		return nil, fmt.Errorf("unknown renderer %q", kind)
	}
}

// Ensure returns r once it is loaded. Loads taking longer than timeout, or
// failing, yield the plain renderer instead.
func Ensure(ctx context.Context, r Renderer, timeout time.Duration, log logrus.FieldLogger) Renderer {
	if r.Loaded() {
		return r
	}
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}
	started := time.Now()
	if err := r.Load(ctx); err != nil {
		log.WithError(err).Warn("renderer unavailable, using plain text")
		return NewPlain()
	}
	log.WithField("elapsed", time.Since(started).Round(time.Millisecond)).Info("renderer loaded")
	if c, ok := r.(interface{ CacheError() error }); ok {
		if err := c.CacheError(); err != nil {
			log.WithError(err).Debug("renderer table not cached")
		}
	}
	return r
}

// RenderOrSource renders tex, returning the raw source alongside the error
// when rendering fails.
func RenderOrSource(r Renderer, tex string) (string, error) {
	out, err := r.Render(tex)
	if err != nil {
		return tex, err
	}
	return out, nil
}
