package parser

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.lost.host/meutraa/bandori/internal/testdata"
)

func TestParseEntitiesResolvesRefs(t *testing.T) {
	records := []Record{
		{Archetype: "SlideStartNote", Data: []Field{ValueField("#BEAT", 1)}},
		{Archetype: "SlideEndNote", Name: "end", Data: []Field{ValueField("#BEAT", 2)}},
		{Archetype: "CurvedSlideConnector", Data: []Field{RefField("tail", "end"), RefField("head", "nowhere")}},
	}

	entities := ParseEntities(records)

	require.Len(t, entities, 3)
	assert.Equal(t, "CurvedSlideConnector", entities[2].Archetype)
	assert.Equal(t, 1.0, entities[2].Data["tail"])
	// Unresolved names fall back to the first record.
	assert.Equal(t, 0.0, entities[2].Data["head"])
	assert.Equal(t, 2.0, entities[1].Data["#BEAT"])
}

func TestParseEntitiesLaterNameWins(t *testing.T) {
	records := []Record{
		{Archetype: "TapNote", Name: "x"},
		{Archetype: "TapNote", Name: "x"},
		{Archetype: "SimLine", Data: []Field{RefField("a", "x")}},
	}
	assert.Equal(t, 1.0, ParseEntities(records)[2].Data["a"])
}

func TestParsePlainAndGzip(t *testing.T) {
	p := DefaultParser{}
	for name, raw := range map[string][]byte{
		"plain": testdata.LevelJSON(),
		"gzip":  testdata.LevelGzip(),
	} {
		t.Run(name, func(t *testing.T) {
			doc, err := p.Parse(bytes.NewReader(raw))
			require.NoError(t, err)
			assert.Equal(t, 0.25, doc.BgmOffset)
			assert.Len(t, doc.Entities, 15)
			assert.Equal(t, "s0", doc.Entities[5].Name)
		})
	}
}

func TestParseRejectsGarbage(t *testing.T) {
	p := DefaultParser{}
	_, err := p.Parse(bytes.NewReader([]byte("{not json")))
	assert.Error(t, err)
}
