package parser

import "io"

type Parser interface {
	// Parse reads a level data document, plain or gzip-compressed JSON.
	Parse(r io.Reader) (*Document, error)
}

// Document is the level data as published by a chart server.
type Document struct {
	BgmOffset float64  `json:"bgmOffset"`
	Entities  []Record `json:"entities"`
}

// Record is one authored entity. Each field carries either a literal value
// or the name of another record.
type Record struct {
	Archetype string  `json:"archetype"`
	Name      string  `json:"name,omitempty"`
	Data      []Field `json:"data"`
}

type Field struct {
	Name  string   `json:"name"`
	Value *float64 `json:"value,omitempty"`
	Ref   *string  `json:"ref,omitempty"`
}

// Entity is a record with its references resolved to record indices.
type Entity struct {
	Archetype string
	Data      map[string]float64
}

// ValueField and RefField build fields, mostly for tests and fixtures.
func ValueField(name string, v float64) Field {
	return Field{Name: name, Value: &v}
}

func RefField(name, ref string) Field {
	return Field{Name: name, Ref: &ref}
}
