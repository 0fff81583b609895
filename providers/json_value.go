package providers

import (
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"

	gojson "github.com/coreos/go-json"

	"webproof-redaction/shared"
)

type jsonKind int

const (
	jsonNull jsonKind = iota
	jsonBool
	jsonNumber
	jsonString
	jsonArray
	jsonObject
)

func (k jsonKind) String() string {
	switch k {
	case jsonNull:
		return "null"
	case jsonBool:
		return "boolean"
	case jsonNumber:
		return "number"
	case jsonString:
		return "string"
	case jsonArray:
		return "array"
	case jsonObject:
		return "object"
	default:
		return fmt.Sprintf("jsonKind(%d)", int(k))
	}
}

// jsonValue is a parsed JSON document that remembers the order in which object
// keys appeared in the source.
type jsonValue struct {
	kind    jsonKind
	boolean bool
	number  float64
	str     string
	items   []*jsonValue
	keys    []string
	fields  map[string]*jsonValue

	// text caches serialize, which the anchored walk calls once per step.
	text string
}

// parseJSON decodes text into an offset-carrying node tree and converts it to
// a jsonValue. Object key order is taken from the node key offsets. Node
// decoding only accepts objects and arrays, so a top-level scalar is decoded
// as a plain value.
func parseJSON(text string) (*jsonValue, error) {
	trimmed := strings.TrimLeft(text, " \t\r\n")
	if trimmed == "" || (trimmed[0] != '{' && trimmed[0] != '[') {
		var scalar any
		if err := gojson.Unmarshal([]byte(text), &scalar); err != nil {
			return nil, shared.Wrap(shared.KindInvalidJSON, err, "body is not valid JSON")
		}
		return fromNode(gojson.Node{Value: scalar})
	}
	var root gojson.Node
	if err := gojson.Unmarshal([]byte(text), &root); err != nil {
		return nil, shared.Wrap(shared.KindInvalidJSON, err, "body is not valid JSON")
	}
	return fromNode(root)
}

func (v *jsonValue) isContainer() bool {
	return v.kind == jsonArray || v.kind == jsonObject
}

func fromNode(n gojson.Node) (*jsonValue, error) {
	switch v := n.Value.(type) {
	case nil:
		return &jsonValue{kind: jsonNull}, nil
	case bool:
		return &jsonValue{kind: jsonBool, boolean: v}, nil
	case float64:
		return &jsonValue{kind: jsonNumber, number: v}, nil
	case gojson.Number:
		f, err := v.Float64()
		if err != nil {
			return nil, shared.Wrap(shared.KindInvalidJSON, err, "invalid number %q", v.String())
		}
		return &jsonValue{kind: jsonNumber, number: f}, nil
	case string:
		return &jsonValue{kind: jsonString, str: v}, nil
	case []gojson.Node:
		out := &jsonValue{kind: jsonArray, items: make([]*jsonValue, 0, len(v))}
		for _, child := range v {
			item, err := fromNode(child)
			if err != nil {
				return nil, err
			}
			out.items = append(out.items, item)
		}
		return out, nil
	case map[string]gojson.Node:
		out := &jsonValue{kind: jsonObject, keys: make([]string, 0, len(v)), fields: make(map[string]*jsonValue, len(v))}
		for key := range v {
			out.keys = append(out.keys, key)
		}
		sort.Slice(out.keys, func(i, j int) bool {
			return v[out.keys[i]].KeyStart < v[out.keys[j]].KeyStart
		})
		for _, key := range out.keys {
			field, err := fromNode(v[key])
			if err != nil {
				return nil, err
			}
			out.fields[key] = field
		}
		return out, nil
	default:
		return nil, shared.NewEngineError(shared.KindInvalidJSON, "unexpected JSON node %T", v)
	}
}

// serialize renders the value compactly, the way JavaScript's JSON.stringify
// does: no whitespace, source key order, minimal string escaping.
func (v *jsonValue) serialize() string {
	if v.text == "" {
		var b strings.Builder
		v.writeTo(&b)
		v.text = b.String()
	}
	return v.text
}

func (v *jsonValue) writeTo(b *strings.Builder) {
	switch v.kind {
	case jsonNull:
		b.WriteString("null")
	case jsonBool:
		b.WriteString(strconv.FormatBool(v.boolean))
	case jsonNumber:
		b.WriteString(formatNumber(v.number))
	case jsonString:
		b.WriteString(quoteString(v.str))
	case jsonArray:
		b.WriteByte('[')
		for i, item := range v.items {
			if i > 0 {
				b.WriteByte(',')
			}
			b.WriteString(item.serialize())
		}
		b.WriteByte(']')
	case jsonObject:
		b.WriteByte('{')
		for i, key := range v.keys {
			if i > 0 {
				b.WriteByte(',')
			}
			b.WriteString(memberPrefix(key))
			b.WriteString(v.fields[key].serialize())
		}
		b.WriteByte('}')
	}
}

// memberPrefix is the `"key":` text that introduces an object member.
func memberPrefix(key string) string {
	return quoteString(key) + ":"
}

// quoteString escapes quotes, backslashes and control characters only; all
// other bytes, including non-ASCII text, are written unchanged.
func quoteString(s string) string {
	var b strings.Builder
	b.Grow(len(s) + 2)
	b.WriteByte('"')
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch c {
		case '"':
			b.WriteString(`\"`)
		case '\\':
			b.WriteString(`\\`)
		case '\b':
			b.WriteString(`\b`)
		case '\f':
			b.WriteString(`\f`)
		case '\n':
			b.WriteString(`\n`)
		case '\r':
			b.WriteString(`\r`)
		case '\t':
			b.WriteString(`\t`)
		default:
			if c < 0x20 {
				fmt.Fprintf(&b, `\u%04x`, c)
			} else {
				b.WriteByte(c)
			}
		}
	}
	b.WriteByte('"')
	return b.String()
}

// formatNumber follows JavaScript's Number#toString: plain decimal notation
// between 1e-6 and 1e21, exponent notation without zero padding outside it.
func formatNumber(f float64) string {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return "null"
	}
	if f == 0 {
		return "0"
	}
	abs := math.Abs(f)
	if abs >= 1e-6 && abs < 1e21 {
		return strconv.FormatFloat(f, 'f', -1, 64)
	}
	s := strconv.FormatFloat(f, 'e', -1, 64)
	mantissa, exp, _ := strings.Cut(s, "e")
	sign := exp[:1]
	digits := strings.TrimLeft(exp[1:], "0")
	if digits == "" {
		digits = "0"
	}
	return mantissa + "e" + sign + digits
}
