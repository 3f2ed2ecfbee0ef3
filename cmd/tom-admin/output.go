package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	jmespath "github.com/jmespath-community/go-jmespath"
)

// writeResult prints v as indented JSON. A non-empty query projects the
// value first; the projection runs on the JSON form so it sees the API's
// field names.
func writeResult(w io.Writer, v any, query string) error {
	out := v
	if q := strings.TrimSpace(query); q != "" {
		compiled, err := jmespath.Compile(q)
		if err != nil {
			return fmt.Errorf("invalid -query: %w", err)
		}
		generic, err := toGeneric(v)
		if err != nil {
			return err
		}
		out, err = compiled.Search(generic)
		if err != nil {
			return fmt.Errorf("evaluate -query: %w", err)
		}
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}

func toGeneric(v any) (any, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encode result: %w", err)
	}
	var generic any
	if err := json.Unmarshal(raw, &generic); err != nil {
		return nil, fmt.Errorf("decode result: %w", err)
	}
	return generic, nil
}
