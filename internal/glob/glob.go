// Package glob provides the pattern matcher factories used by the crawler.
//
// The crawler treats matchers as opaque predicates: a Func compiles a set of
// patterns into a Matcher once per crawl configuration and the engine only
// ever calls the result with candidate paths.
package glob

import (
	"errors"
	"fmt"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	gobwas "github.com/gobwas/glob"
	"github.com/mattn/go-zglob"
	"golang.org/x/text/unicode/norm"
)

// ErrNoPatterns is returned when a factory is called without patterns.
var ErrNoPatterns = errors.New("glob: no patterns given")

// Matcher reports whether a candidate path matches.
type Matcher func(path string) bool

// Options are passed through to the factory untouched by the crawler.
type Options struct {
	// Dot lets wildcards match path elements beginning with '.'.
	Dot bool
	// Basename matches patterns without a separator against the last
	// path element only.
	Basename bool
}

// Func compiles patterns into a single Matcher. A candidate matches when any
// pattern matches.
type Func func(patterns []string, opts Options) (Matcher, error)

// --------------------------------------------------------------------------
// Factories
// --------------------------------------------------------------------------

// Gobwas compiles patterns with github.com/gobwas/glob using '/' as the only
// separator. Patterns and candidates are NFC-normalized so composed and
// decomposed spellings of the same name compare equal.
func Gobwas(patterns []string, opts Options) (Matcher, error) {
	return build(patterns, opts, func(pattern string) (func(string) bool, error) {
		g, err := gobwas.Compile(pattern, '/')
		if err != nil {
			return nil, err
		}
		return g.Match, nil
	})
}

// Zglob matches with github.com/mattn/go-zglob, which understands "**"
// across directories. Each pattern is compiled once, when the matcher is built.
func Zglob(patterns []string, opts Options) (Matcher, error) {
	return build(patterns, opts, func(pattern string) (func(string) bool, error) {
		z, err := zglob.New(pattern)
		if err != nil {
			return nil, err
		}
		return z.Match, nil
	})
}

type compiledPattern struct {
	match    func(string) bool
	basename bool
	dot      bool
}

func (c compiledPattern) matches(candidate string) bool {
	if c.basename {
		if i := strings.LastIndexByte(candidate, '/'); i >= 0 {
			candidate = candidate[i+1:]
		}
	}
	if !c.dot && hasDotElement(candidate) {
		return false
	}
	return c.match(candidate)
}

func build(patterns []string, opts Options, compile func(string) (func(string) bool, error)) (Matcher, error) {
	if len(patterns) == 0 {
		return nil, ErrNoPatterns
	}

	compiled := make([]compiledPattern, 0, len(patterns))
	for _, p := range patterns {
		pattern := norm.NFC.String(filepath.ToSlash(p))
		match, err := compile(pattern)
		if err != nil {
			return nil, fmt.Errorf("glob: compiling %q: %w", p, err)
		}
		compiled = append(compiled, compiledPattern{
			match:    match,
			basename: opts.Basename && !strings.Contains(pattern, "/"),
			// A pattern that names a dot element explicitly may match one.
			dot: opts.Dot || hasDotElement(pattern),
		})
	}

	return func(path string) bool {
		candidate := norm.NFC.String(filepath.ToSlash(path))
		for _, c := range compiled {
			if c.matches(candidate) {
				return true
			}
		}
		return false
	}, nil
}

// hasDotElement reports whether any element of a slash-separated path starts
// with '.', ignoring "." and ".." themselves.
func hasDotElement(path string) bool {
	for _, elem := range strings.Split(path, "/") {
		if len(elem) > 1 && elem[0] == '.' && elem != ".." {
			return true
		}
	}
	return false
}

// --------------------------------------------------------------------------
// Cache
// --------------------------------------------------------------------------

// Cache memoizes compiled matchers for one factory. It is owned by a crawl
// configuration, so separate configurations never share compiled state.
type Cache struct {
	mu      sync.Mutex
	fn      Func
	entries map[string]Matcher
}

// NewCache returns an empty cache compiling with fn.
func NewCache(fn Func) *Cache {
	return &Cache{fn: fn, entries: make(map[string]Matcher)}
}

// Get returns the matcher for patterns and opts, compiling it on first use.
// Pattern order does not affect the key.
func (c *Cache) Get(patterns []string, opts Options) (Matcher, error) {
	key := cacheKey(patterns, opts)

	c.mu.Lock()
	defer c.mu.Unlock()

	if m, ok := c.entries[key]; ok {
		return m, nil
	}
	m, err := c.fn(patterns, opts)
	if err != nil {
		return nil, err
	}
	c.entries[key] = m
	return m, nil
}

// Len reports the number of compiled entries.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

func cacheKey(patterns []string, opts Options) string {
	sorted := append([]string(nil), patterns...)
	sort.Strings(sorted)
	return fmt.Sprintf("%s\x00%t\x00%t", strings.Join(sorted, "\x00"), opts.Dot, opts.Basename)
}
