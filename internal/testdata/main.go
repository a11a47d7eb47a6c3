// Package testdata holds a small level used across package tests.
package testdata

import (
	"bytes"
	"compress/gzip"
	_ "embed"
	"encoding/json"

	"git.lost.host/meutraa/bandori/internal/parser"
)

//go:embed level.json
var data []byte

// LevelJSON is the raw fixture.
func LevelJSON() []byte {
	return data
}

// LevelGzip is the fixture as a server would publish it.
func LevelGzip() []byte {
	var buf bytes.Buffer
	w := gzip.NewWriter(&buf)
	w.Write(data)
	w.Close()
	return buf.Bytes()
}

func GetDocument() (*parser.Document, error) {
	var doc parser.Document
	if err := json.Unmarshal(data, &doc); nil != err {
		return nil, err
	}
	return &doc, nil
}
