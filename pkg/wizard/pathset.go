package wizard

import (
	"fmt"
	"strconv"
	"strings"
)

// pathToken is one segment of a parsed field path: a map key, optionally
// followed by a list index (a.b[0].c -> {key:"b", hasIndex:true, index:0}).
type pathToken struct {
	key      string
	hasIndex bool
	index    int
}

// parsePath splits "a.b[0].c" into typed tokens: update_field accepts a
// path grammar and walks it as typed steps.
func parsePath(path string) ([]pathToken, error) {
	if path == "" {
		return nil, fmt.Errorf("wizard: empty field path")
	}
	var tokens []pathToken
	for _, seg := range strings.Split(path, ".") {
		key := seg
		tok := pathToken{}
		if i := strings.IndexByte(seg, '['); i >= 0 {
			if !strings.HasSuffix(seg, "]") {
				return nil, fmt.Errorf("wizard: malformed path segment %q", seg)
			}
			key = seg[:i]
			idxStr := seg[i+1 : len(seg)-1]
			idx, err := strconv.Atoi(idxStr)
			if err != nil {
				return nil, fmt.Errorf("wizard: non-numeric index in %q: %w", seg, err)
			}
			tok.hasIndex = true
			tok.index = idx
		}
		tok.key = key
		tokens = append(tokens, tok)
	}
	return tokens, nil
}

// setPath writes value at path within a generic JSON-decoded document
// (map[string]any / []any), auto-expanding list heads: an index equal to
// the current list length appends a new element rather than erroring.
func setPath(doc map[string]any, path string, value any) error {
	tokens, err := parsePath(path)
	if err != nil {
		return err
	}
	return setAt(doc, tokens, value)
}

func setAt(cur any, tokens []pathToken, value any) error {
	if len(tokens) == 0 {
		return fmt.Errorf("wizard: empty path")
	}
	tok := tokens[0]

	m, ok := cur.(map[string]any)
	if !ok {
		return fmt.Errorf("wizard: path segment %q applied to a non-object value", tok.key)
	}

	if !tok.hasIndex {
		if len(tokens) == 1 {
			m[tok.key] = value
			return nil
		}
		child, ok := m[tok.key]
		if !ok || child == nil {
			child = map[string]any{}
			m[tok.key] = child
		}
		return setAt(child, tokens[1:], value)
	}

	listAny, ok := m[tok.key]
	if !ok || listAny == nil {
		listAny = []any{}
	}
	list, ok := listAny.([]any)
	if !ok {
		return fmt.Errorf("wizard: path segment %q is not a list", tok.key)
	}

	switch {
	case tok.index < 0 || tok.index > len(list):
		return fmt.Errorf("wizard: index %d out of bounds for %q (len=%d)", tok.index, tok.key, len(list))
	case tok.index == len(list):
		list = append(list, map[string]any{})
	}
	m[tok.key] = list

	if len(tokens) == 1 {
		list[tok.index] = value
		return nil
	}
	return setAt(list[tok.index], tokens[1:], value)
}
