// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package schema wraps JSON-Schema compilation and validation for arbitrary
// decoded documents (module input/data/meta/error schemas, envelope
// shapes). It is the one place in the module that talks to the jsonschema
// library directly.
package schema

import (
	"encoding/json"
	"fmt"
	"strings"
	"sync/atomic"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// resourceSeq gives every Compile call a unique resource URL; the library
// needs one even though these schemas never actually resolve over the
// network.
var resourceSeq atomic.Uint64

// Schema is a compiled JSON-Schema document ready for repeated validation.
type Schema struct {
	compiled *jsonschema.Schema
}

// Compile builds a Schema from a decoded JSON-Schema document (as produced
// by json.Unmarshal into map[string]any). An empty or nil doc compiles to
// a permissive schema that accepts anything.
func Compile(doc map[string]any) (*Schema, error) {
	if len(doc) == 0 {
		doc = map[string]any{}
	}
	raw, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("schema: cannot marshal schema document: %w", err)
	}

	url := fmt.Sprintf("mem://schema/%d.json", resourceSeq.Add(1))
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource(url, strings.NewReader(string(raw))); err != nil {
		return nil, fmt.Errorf("schema: cannot register schema document: %w", err)
	}
	compiled, err := compiler.Compile(url)
	if err != nil {
		return nil, fmt.Errorf("schema: cannot compile schema document: %w", err)
	}
	return &Schema{compiled: compiled}, nil
}

// Violation is one structural validation failure, with enough context to
// render a short human-readable pointer (spec.md §4.9: "path + message").
type Violation struct {
	Path    string
	Message string
}

func (v Violation) String() string {
	if v.Path == "" {
		return v.Message
	}
	return v.Path + ": " + v.Message
}

// Validate checks instance (a decoded JSON value — map[string]any,
// []any, string, float64, bool, or nil) against s, returning every
// violation found. An empty result means the document is valid.
func (s *Schema) Validate(instance any) []Violation {
	err := s.compiled.Validate(instance)
	if err == nil {
		return nil
	}
	valErr, ok := err.(*jsonschema.ValidationError)
	if !ok {
		return []Violation{{Message: err.Error()}}
	}
	return flatten(valErr)
}

// flatten walks a ValidationError's cause tree into a flat violation list;
// the library nests a cause per failing schema keyword.
func flatten(err *jsonschema.ValidationError) []Violation {
	var out []Violation
	if len(err.Causes) == 0 {
		out = append(out, Violation{Path: err.InstanceLocation, Message: err.Message})
		return out
	}
	for _, cause := range err.Causes {
		out = append(out, flatten(cause)...)
	}
	return out
}
