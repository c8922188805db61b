// Package filter decides which files from a package's source tree are
// candidates for extraction. It combines filename glob patterns and
// content-regex patterns: a file must satisfy the filename rules AND, when
// content patterns are configured, match at least one of them.
package filter

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/gobwas/glob"
)

// ExcludePrefix marks a filename pattern as an exclusion. Exclude patterns
// always take precedence over include patterns for the same path.
const ExcludePrefix = "!"

// DefaultExclusions are package metadata paths never extracted, regardless of
// configured patterns.
var DefaultExclusions = []string{
	"package.json",
	"bin/**",
	"README.md",
	"node_modules/**",
}

// Filter is a compiled filter. The zero value is not usable; construct with New.
type Filter struct {
	include  []glob.Glob
	exclude  []glob.Glob
	defaults []glob.Glob
	content  []*regexp.Regexp
}

// Option is a functional option for configuring a Filter.
type Option func(*options)

type options struct {
	patterns []string
	content  []string
}

// WithPatterns sets the filename glob patterns. Patterns prefixed with "!"
// are exclusions. With no include patterns every filename is accepted.
func WithPatterns(patterns ...string) Option {
	return func(o *options) {
		o.patterns = append(o.patterns, patterns...)
	}
}

// WithContentPatterns sets the content regular expressions. A file's bytes
// must match at least one. With no patterns all content is accepted.
func WithContentPatterns(exprs ...string) Option {
	return func(o *options) {
		o.content = append(o.content, exprs...)
	}
}

// New compiles a Filter from the given options. Invalid glob or regexp
// patterns are reported, not skipped.
func New(opts ...Option) (*Filter, error) {
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	f := &Filter{}

	for _, p := range o.patterns {
		if p == "" {
			continue
		}
		target := &f.include
		if strings.HasPrefix(p, ExcludePrefix) {
			p = strings.TrimPrefix(p, ExcludePrefix)
			target = &f.exclude
		}
		g, err := glob.Compile(p, '/')
		if err != nil {
			return nil, fmt.Errorf("compiling pattern %q: %w", p, err)
		}
		*target = append(*target, g)
	}

	for _, p := range DefaultExclusions {
		g, err := glob.Compile(p, '/')
		if err != nil {
			return nil, fmt.Errorf("compiling default exclusion %q: %w", p, err)
		}
		f.defaults = append(f.defaults, g)
	}

	for _, expr := range o.content {
		re, err := regexp.Compile(expr)
		if err != nil {
			return nil, fmt.Errorf("compiling content pattern %q: %w", expr, err)
		}
		f.content = append(f.content, re)
	}

	return f, nil
}

// MatchName reports whether a slash-separated relative path passes the
// filename rules: default exclusions first, then configured excludes, then
// configured includes (any include set means the path must match one).
func (f *Filter) MatchName(rel string) bool {
	for _, g := range f.defaults {
		if g.Match(rel) {
			return false
		}
	}
	for _, g := range f.exclude {
		if g.Match(rel) {
			return false
		}
	}
	if len(f.include) == 0 {
		return true
	}
	for _, g := range f.include {
		if g.Match(rel) {
			return true
		}
	}
	return false
}

// HasContentRules reports whether any content patterns are configured.
func (f *Filter) HasContentRules() bool {
	return len(f.content) > 0
}

// MatchContent reports whether the file bytes satisfy the content rules.
// With no content patterns configured, everything matches.
func (f *Filter) MatchContent(data []byte) bool {
	if len(f.content) == 0 {
		return true
	}
	for _, re := range f.content {
		if re.Match(data) {
			return true
		}
	}
	return false
}

// ShouldInclude combines both dimensions for one candidate. The read callback
// is only invoked when content rules are configured, so callers can defer the
// file read.
func (f *Filter) ShouldInclude(rel string, read func() ([]byte, error)) (bool, error) {
	if !f.MatchName(rel) {
		return false, nil
	}
	if len(f.content) == 0 {
		return true, nil
	}

	data, err := read()
	if err != nil {
		return false, fmt.Errorf("reading %s for content filtering: %w", rel, err)
	}
	return f.MatchContent(data), nil
}
