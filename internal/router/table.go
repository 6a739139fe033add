package router

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
)

var (
	ErrNotFound     = errors.New("no route matches")
	ErrMissingParam = errors.New("missing route parameter")
)

type entry struct {
	name     string
	pattern  string
	segments []string
	meta     Meta
	redirect string
}

// Table is a flattened, ordered route table. The first matching route wins.
type Table struct {
	entries []entry
	byName  map[string]int
}

// Match is a resolved navigation target.
type Match struct {
	Name     string
	Pattern  string
	Meta     Meta
	Redirect string
	Params   map[string]string
	Query    url.Values
	FullPath string
}

func NewTable(routes []Route) (*Table, error) {
	t := &Table{byName: make(map[string]int)}
	if err := t.add(routes, "", Meta{}); err != nil {
		return nil, err
	}

	for _, e := range t.entries {
		if len(e.redirect) == 0 {
			continue
		}
		if _, ok := t.byName[e.redirect]; !ok {
			return nil, fmt.Errorf("route %q redirects to unknown route %q", e.name, e.redirect)
		}
	}

	return t, nil
}

func (t *Table) add(routes []Route, prefix string, parent Meta) error {
	for _, route := range routes {
		pattern := joinPath(prefix, route.Path)
		meta := route.Meta.merge(parent)

		if len(route.Children) > 0 {
			if err := t.add(route.Children, pattern, meta); err != nil {
				return err
			}
		}

		if len(route.Name) == 0 {
			continue
		}

		if _, exists := t.byName[route.Name]; exists {
			return fmt.Errorf("duplicate route name %q", route.Name)
		}

		t.byName[route.Name] = len(t.entries)
		t.entries = append(t.entries, entry{
			name:     route.Name,
			pattern:  pattern,
			segments: splitPath(pattern),
			meta:     meta,
			redirect: route.Redirect,
		})
	}

	return nil
}

// Resolve matches fullPath, which may carry a query string, against the table.
func (t *Table) Resolve(fullPath string) (*Match, error) {
	u, err := url.Parse(fullPath)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrNotFound, err)
	}
	if u.IsAbs() || len(u.Host) > 0 {
		return nil, fmt.Errorf("%w: %s is not a local path", ErrNotFound, fullPath)
	}

	segments := splitPath(u.EscapedPath())

	for _, e := range t.entries {
		params, ok := matchSegments(e.segments, segments)
		if !ok {
			continue
		}
		return &Match{
			Name:     e.name,
			Pattern:  e.pattern,
			Meta:     e.meta,
			Redirect: e.redirect,
			Params:   params,
			Query:    u.Query(),
			FullPath: fullPath,
		}, nil
	}

	return nil, fmt.Errorf("%w: %s", ErrNotFound, u.Path)
}

// PathFor builds the path of a named route, filling its parameters.
func (t *Table) PathFor(name string, params map[string]string) (string, error) {
	idx, ok := t.byName[name]
	if !ok {
		return "", fmt.Errorf("%w: unknown route %q", ErrNotFound, name)
	}

	e := t.entries[idx]
	if len(e.segments) == 0 {
		return "/", nil
	}

	parts := make([]string, 0, len(e.segments))
	for _, segment := range e.segments {
		if key, isParam := strings.CutPrefix(segment, ":"); isParam {
			value, ok := params[key]
			if !ok || len(value) == 0 {
				return "", fmt.Errorf("%w: %s for route %q", ErrMissingParam, key, name)
			}
			segment = url.PathEscape(value)
		}
		parts = append(parts, segment)
	}

	return "/" + strings.Join(parts, "/"), nil
}

// Meta returns the merged access flags of a named route.
func (t *Table) Meta(name string) (Meta, bool) {
	idx, ok := t.byName[name]
	if !ok {
		return Meta{}, false
	}
	return t.entries[idx].meta, true
}

// Pattern returns the path pattern of a named route, with :param segments.
func (t *Table) Pattern(name string) (string, bool) {
	idx, ok := t.byName[name]
	if !ok {
		return "", false
	}
	return t.entries[idx].pattern, true
}

func matchSegments(pattern []string, path []string) (map[string]string, bool) {
	if len(pattern) != len(path) {
		return nil, false
	}

	params := make(map[string]string)
	for i, segment := range pattern {
		if key, isParam := strings.CutPrefix(segment, ":"); isParam {
			value, err := url.PathUnescape(path[i])
			if err != nil || len(value) == 0 {
				return nil, false
			}
			params[key] = value
			continue
		}
		if segment != path[i] {
			return nil, false
		}
	}

	return params, true
}

func joinPath(prefix string, path string) string {
	switch {
	case len(path) == 0:
		if len(prefix) == 0 {
			return "/"
		}
		return prefix
	case strings.HasPrefix(path, "/"):
		return path
	default:
		return strings.TrimSuffix(prefix, "/") + "/" + path
	}
}

func splitPath(path string) []string {
	trimmed := strings.Trim(path, "/")
	if len(trimmed) == 0 {
		return nil
	}
	return strings.Split(trimmed, "/")
}
