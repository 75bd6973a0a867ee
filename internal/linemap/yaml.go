package linemap

import (
	"bytes"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/redactyl/baseliner/internal/pragma"
	yaml "gopkg.in/yaml.v3"
)

type pending struct {
	node *yaml.Node
	path string
	key  string
}

// ParseYAML flattens every string scalar of every document in data into a
// Value stamped with its source line. !!binary scalars are decoded into
// Bytes. Each document root must be a mapping or a sequence; a bare scalar
// document is reported as ErrFormatMismatch since almost any text is a valid
// yaml scalar.
func ParseYAML(data []byte) ([]Value, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	var out []Value
	docs := 0
	for {
		var doc yaml.Node
		err := dec.Decode(&doc)
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: yaml: %v", ErrFormatMismatch, err)
		}
		docs++
		if len(doc.Content) == 0 {
			continue
		}
		root := doc.Content[0]
		if root.Kind != yaml.MappingNode && root.Kind != yaml.SequenceNode {
			return nil, fmt.Errorf("%w: yaml: document %d is not a mapping or sequence", ErrFormatMismatch, docs)
		}
		out = append(out, flatten(root)...)
	}
	if docs == 0 {
		return nil, fmt.Errorf("%w: yaml: empty input", ErrFormatMismatch)
	}
	annotate(out, sourceLines(data), pragma.Lines(data))
	return out, nil
}

// flatten walks the node tree with an explicit stack so deeply nested
// documents cannot exhaust the goroutine stack. Output is in document order.
func flatten(root *yaml.Node) []Value {
	var out []Value
	stack := []pending{{node: root}}
	for len(stack) > 0 {
		p := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		n := p.node
		switch n.Kind {
		case yaml.MappingNode:
			for i := len(n.Content) - 2; i >= 0; i -= 2 {
				k := n.Content[i].Value
				stack = append(stack, pending{node: n.Content[i+1], path: joinPath(p.path, k), key: k})
			}
		case yaml.SequenceNode:
			for i := len(n.Content) - 1; i >= 0; i-- {
				stack = append(stack, pending{node: n.Content[i], path: p.path + "[" + strconv.Itoa(i) + "]", key: p.key})
			}
		case yaml.ScalarNode:
			if v, ok := scalarValue(n, p); ok {
				out = append(out, v)
			}
		}
		// aliases are skipped; their anchor is visited where it is defined
	}
	return out
}

func scalarValue(n *yaml.Node, p pending) (Value, bool) {
	v := Value{Path: p.path, Key: p.key, Value: n.Value, Line: n.Line}
	switch n.ShortTag() {
	case "!!str":
		return v, true
	case "!!binary":
		raw, err := base64.StdEncoding.DecodeString(strings.Join(strings.Fields(n.Value), ""))
		if err != nil {
			return Value{}, false
		}
		v.Binary = true
		v.Bytes = raw
		return v, true
	}
	return Value{}, false
}

func joinPath(base, key string) string {
	if base == "" {
		return key
	}
	return base + "." + key
}
