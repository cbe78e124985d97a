package kbs

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/invopop/jsonschema"
	sjsonschema "github.com/santhosh-tekuri/jsonschema/v6"
)

const schemaURL = "kb-entry.json"

// Schema returns the JSON Schema of an on-disk entry.
func Schema() ([]byte, error) {
	r := &jsonschema.Reflector{
		ExpandedStruct:            true,
		AllowAdditionalProperties: true,
	}
	s := r.Reflect(&record{})
	s.Title = "Knowledge base entry"
	return json.MarshalIndent(s, "", "  ")
}

var compiledSchema = sync.OnceValues(func() (*sjsonschema.Schema, error) {
	data, err := Schema()
	if err != nil {
		return nil, fmt.Errorf("reflect schema: %w", err)
	}
	doc, err := sjsonschema.UnmarshalJSON(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("unmarshal schema: %w", err)
	}
	c := sjsonschema.NewCompiler()
	if err := c.AddResource(schemaURL, doc); err != nil {
		return nil, fmt.Errorf("add schema resource: %w", err)
	}
	sch, err := c.Compile(schemaURL)
	if err != nil {
		return nil, fmt.Errorf("compile schema: %w", err)
	}
	return sch, nil
})

// ParseEntry validates one JSON record and converts it.
func ParseEntry(data []byte) (Entry, error) {
	sch, err := compiledSchema()
	if err != nil {
		return Entry{}, err
	}
	doc, err := sjsonschema.UnmarshalJSON(bytes.NewReader(data))
	if err != nil {
		return Entry{}, fmt.Errorf("unmarshal entry: %w", err)
	}
	if err := sch.Validate(doc); err != nil {
		return Entry{}, err
	}
	var r record
	if err := json.Unmarshal(data, &r); err != nil {
		return Entry{}, err
	}
	return r.entry()
}
