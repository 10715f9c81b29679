// Package command parses wire request bodies into typed commands and
// dispatches them against the session table and storage engine.
package command

import "strings"

// kvSeparator joins key|x=x|value pairs inside a request body.
const kvSeparator = " 1-1 "

// kvDelimiter separates a key from its value within one pair.
const kvDelimiter = "|x=x|"

// kv is one parsed `name|x=x|value` pair.
type kv struct {
	name  string
	value string
}

// parseKV splits one `name|x=x|value` chunk. Both sides must be non-empty
// and there must be exactly one delimiter.
func parseKV(chunk string) (kv, bool) {
	if chunk == "" || !strings.Contains(chunk, kvDelimiter) {
		return kv{}, false
	}
	parts := strings.Split(chunk, kvDelimiter)
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return kv{}, false
	}
	return kv{name: parts[0], value: parts[1]}, true
}

// splitBody splits a request body into its ` 1-1 `-joined chunks. An empty
// body yields no chunks.
func splitBody(body string) []string {
	if body == "" {
		return nil
	}
	return strings.Split(body, kvSeparator)
}

// parseBody parses every chunk of body as a key-value pair, in order,
// failing the whole body if any chunk doesn't parse.
func parseBody(body string) ([]kv, bool) {
	chunks := splitBody(body)
	pairs := make([]kv, 0, len(chunks))
	for _, c := range chunks {
		p, ok := parseKV(c)
		if !ok {
			return nil, false
		}
		pairs = append(pairs, p)
	}
	return pairs, true
}

func lookup(pairs []kv, name string) (string, bool) {
	for _, p := range pairs {
		if p.name == name {
			return p.value, true
		}
	}
	return "", false
}
