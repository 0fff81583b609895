package redaction

import (
	_ "embed"
	"encoding/json"
	"strings"
	"sync"

	"github.com/xeipuuv/gojsonschema"
	"go.uber.org/zap"
	"sigs.k8s.io/yaml"

	"webproof-redaction/shared"
)

//go:embed policy.schema.json
var policySchema []byte

var compiledPolicySchema = sync.OnceValues(func() (*gojsonschema.Schema, error) {
	return gojsonschema.NewSchema(gojsonschema.NewBytesLoader(policySchema))
})

// wire keys
const (
	keyRequest        = "request"
	keyResponse       = "response"
	keyHeaders        = "headers"
	keyHeadersExcept  = "headers_except"
	keyURLQuery       = "url_query"
	keyURLQueryExcept = "url_query_except"
	keyJSONBody       = "json_body"
	keyJSONBodyExcept = "json_body_except"
	keyJSONPath       = "json_path"
)

// wireItem is one policy entry as it appears on the wire, e.g.
// {"request": {"headers": ["cookie"]}}.
type wireItem map[string]map[string][]string

// ParseConfig decodes a JSON policy document. The document is checked against
// the policy schema first, so every entry names exactly one side and one
// target kind valid for that side.
func ParseConfig(data []byte) (Config, error) {
	schema, err := compiledPolicySchema()
	if err != nil {
		return nil, shared.Wrap(shared.KindInvalidConfig, err, "failed to compile policy schema")
	}
	result, err := schema.Validate(gojsonschema.NewBytesLoader(data))
	if err != nil {
		return nil, shared.Wrap(shared.KindInvalidConfig, err, "policy is not valid JSON")
	}
	if !result.Valid() {
		var b strings.Builder
		for _, e := range result.Errors() {
			if b.Len() > 0 {
				b.WriteString("; ")
			}
			b.WriteString(e.String())
		}
		logger.Error("Policy validation failed", zap.String("component", "Config"), zap.String("operation", "ParseConfig"), zap.Int("errors", len(result.Errors())))
		return nil, shared.NewEngineError(shared.KindInvalidConfig, "policy validation failed: %s", b.String())
	}

	var entries []wireItem
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, shared.Wrap(shared.KindInvalidConfig, err, "failed to decode policy")
	}
	cfg := make(Config, 0, len(entries))
	for idx, entry := range entries {
		item, err := entry.decode()
		if err != nil {
			return nil, shared.Wrap(shared.KindInvalidConfig, err, "policy item %d", idx)
		}
		cfg = append(cfg, item)
	}
	return cfg, nil
}

// ParseConfigYAML decodes a YAML policy document with the same layout as the
// JSON one.
func ParseConfigYAML(data []byte) (Config, error) {
	j, err := yaml.YAMLToJSON(data)
	if err != nil {
		return nil, shared.Wrap(shared.KindInvalidConfig, err, "policy is not valid YAML")
	}
	return ParseConfig(j)
}

func (w wireItem) decode() (Item, error) {
	for sideKey, target := range w {
		for kind, names := range target {
			switch sideKey + "." + kind {
			case keyRequest + "." + keyHeaders:
				return Headers{On: shared.SideRequest, Names: names}, nil
			case keyRequest + "." + keyHeadersExcept:
				return HeadersExcept{On: shared.SideRequest, Names: names}, nil
			case keyRequest + "." + keyURLQuery:
				return URLQuery{Names: names}, nil
			case keyRequest + "." + keyURLQueryExcept:
				return URLQueryExcept{Names: names}, nil
			case keyResponse + "." + keyHeaders:
				return Headers{On: shared.SideResponse, Names: names}, nil
			case keyResponse + "." + keyHeadersExcept:
				return HeadersExcept{On: shared.SideResponse, Names: names}, nil
			case keyResponse + "." + keyJSONBody:
				return JSONBody{Paths: names}, nil
			case keyResponse + "." + keyJSONBodyExcept:
				return JSONBodyExcept{Paths: names}, nil
			case keyResponse + "." + keyJSONPath:
				return JSONPathQuery{Queries: names}, nil
			default:
				return nil, shared.NewEngineError(shared.KindInvalidConfig, "unsupported target %s.%s", sideKey, kind)
			}
		}
	}
	return nil, shared.NewEngineError(shared.KindInvalidConfig, "empty policy item")
}

// wireEncoder renders items in the wire layout.
type wireEncoder struct {
	out wireItem
}

func (e *wireEncoder) set(side shared.Side, kind string, names []string) error {
	if names == nil {
		names = []string{}
	}
	e.out = wireItem{side.String(): {kind: names}}
	return nil
}

func (e *wireEncoder) VisitHeaders(i Headers) error {
	return e.set(i.On, keyHeaders, i.Names)
}

func (e *wireEncoder) VisitHeadersExcept(i HeadersExcept) error {
	return e.set(i.On, keyHeadersExcept, i.Names)
}

func (e *wireEncoder) VisitURLQuery(i URLQuery) error {
	return e.set(i.Side(), keyURLQuery, i.Names)
}

func (e *wireEncoder) VisitURLQueryExcept(i URLQueryExcept) error {
	return e.set(i.Side(), keyURLQueryExcept, i.Names)
}

func (e *wireEncoder) VisitJSONBody(i JSONBody) error {
	return e.set(i.Side(), keyJSONBody, i.Paths)
}

func (e *wireEncoder) VisitJSONBodyExcept(i JSONBodyExcept) error {
	return e.set(i.Side(), keyJSONBodyExcept, i.Paths)
}

func (e *wireEncoder) VisitJSONPathQuery(i JSONPathQuery) error {
	return e.set(i.Side(), keyJSONPath, i.Queries)
}

// MarshalJSON encodes the policy in the layout ParseConfig reads.
func (c Config) MarshalJSON() ([]byte, error) {
	entries := make([]wireItem, 0, len(c))
	for _, item := range c {
		var enc wireEncoder
		if err := item.Accept(&enc); err != nil {
			return nil, err
		}
		entries = append(entries, enc.out)
	}
	return json.Marshal(entries)
}

// UnmarshalJSON decodes and validates a policy with ParseConfig.
func (c *Config) UnmarshalJSON(data []byte) error {
	cfg, err := ParseConfig(data)
	if err != nil {
		return err
	}
	*c = cfg
	return nil
}
