package parser

import (
	"bufio"
	"compress/gzip"
	"encoding/json"
	"io"
	"os"

	"github.com/pkg/errors"
)

type DefaultParser struct{}

var gzipMagic = []byte{0x1f, 0x8b}

func (p *DefaultParser) Parse(r io.Reader) (*Document, error) {
	br := bufio.NewReader(r)
	magic, err := br.Peek(len(gzipMagic))
	if nil != err && err != io.EOF {
		return nil, errors.Wrap(err, "unable to read level data")
	}

	var src io.Reader = br
	if len(magic) == len(gzipMagic) && magic[0] == gzipMagic[0] && magic[1] == gzipMagic[1] {
		gz, err := gzip.NewReader(br)
		if nil != err {
			return nil, errors.Wrap(err, "unable to open gzip level data")
		}
		defer gz.Close()
		src = gz
	}

	var doc Document
	if err := json.NewDecoder(src).Decode(&doc); nil != err {
		return nil, errors.Wrap(err, "unable to decode level data")
	}
	return &doc, nil
}

// ParseFile is Parse over the contents of a file.
func (p *DefaultParser) ParseFile(file string) (*Document, error) {
	f, err := os.Open(file)
	if nil != err {
		return nil, err
	}
	defer f.Close()
	return p.Parse(f)
}

// ParseEntities resolves every record's fields. A named reference is
// replaced by the index of the record carrying that name anywhere in the
// input; a name that resolves to nothing becomes index 0. The output has
// one entity per record, in input order.
func ParseEntities(records []Record) []Entity {
	indexes := make(map[string]int, len(records))
	for i, r := range records {
		if r.Name != "" {
			indexes[r.Name] = i
		}
	}

	entities := make([]Entity, len(records))
	for i, r := range records {
		data := make(map[string]float64, len(r.Data))
		for _, f := range r.Data {
			switch {
			case f.Value != nil:
				data[f.Name] = *f.Value
			case f.Ref != nil:
				data[f.Name] = float64(indexes[*f.Ref])
			default:
				data[f.Name] = 0
			}
		}
		entities[i] = Entity{Archetype: r.Archetype, Data: data}
	}
	return entities
}
