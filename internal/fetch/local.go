package fetch

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/pkg/errors"

	"git.lost.host/meutraa/bandori/internal/convert"
	"git.lost.host/meutraa/bandori/internal/game"
	"git.lost.host/meutraa/bandori/internal/parser"
)

const ItemFile = "item.json"

var (
	itemPattern = "**/" + ItemFile
	dataPattern = "**/{data,level}{.json,.json.gz,.gz}"
	bgmPattern  = "**/bgm.{ogg,mp3}"
	anyAudio    = "**/*.{ogg,mp3}"
)

// Local is a level directory. It holds either an item written by Write or
// raw level data, and the music.
type Local struct {
	Dir  string
	Item string
	Data string
	Bgm  string
}

// FindLocal looks through a level directory for the level and its music.
func FindLocal(dir string) (*Local, error) {
	fsys := os.DirFS(dir)
	l := &Local{Dir: dir}
	first := func(patterns ...string) (string, error) {
		for _, pattern := range patterns {
			matches, err := doublestar.Glob(fsys, pattern)
			if nil != err {
				return "", errors.Wrapf(err, "unable to search %v", dir)
			}
			if len(matches) > 0 {
				return filepath.Join(dir, filepath.FromSlash(matches[0])), nil
			}
		}
		return "", nil
	}

	var err error
	if l.Item, err = first(itemPattern); nil != err {
		return nil, err
	}
	if l.Data, err = first(dataPattern); nil != err {
		return nil, err
	}
	if l.Bgm, err = first(bgmPattern, anyAudio); nil != err {
		return nil, err
	}

	if (l.Item == "" && l.Data == "") || l.Bgm == "" {
		return nil, errors.Errorf("unable to find level data and .mp3/.ogg file in %v", dir)
	}
	return l, nil
}

// Load reads the level and its music. The returned bytes are the level
// as stored, for identifying it.
func (l *Local) Load() (*game.LevelPackage, []byte, error) {
	bgm, err := os.ReadFile(l.Bgm)
	if nil != err {
		return nil, nil, errors.Wrap(err, "unable to read bgm")
	}

	if l.Item != "" {
		data, err := os.ReadFile(l.Item)
		if nil != err {
			return nil, nil, errors.Wrap(err, "unable to read item")
		}
		pkg := &game.LevelPackage{}
		if err := json.Unmarshal(data, pkg); nil != err {
			return nil, nil, errors.Wrapf(err, "unable to parse %v", l.Item)
		}
		if nil == pkg.Data {
			return nil, nil, errors.Errorf("%v has no level data", l.Item)
		}
		pkg.Bgm = bgm
		return pkg, data, nil
	}

	data, err := os.ReadFile(l.Data)
	if nil != err {
		return nil, nil, errors.Wrap(err, "unable to read level data")
	}
	p := &parser.DefaultParser{}
	doc, err := p.Parse(bytes.NewReader(data))
	if nil != err {
		return nil, nil, err
	}
	level, err := convert.Convert(doc)
	if nil != err {
		return nil, nil, err
	}
	name := filepath.Base(l.Dir)
	return &game.LevelPackage{Name: name, Title: name, Bgm: bgm, Data: level}, data, nil
}

// Write stores a level package as a level directory under dir and returns
// its path.
func Write(dir string, pkg *game.LevelPackage) (string, error) {
	out := filepath.Join(dir, pkg.Name)
	if err := os.MkdirAll(out, 0o755); nil != err {
		return "", errors.Wrap(err, "unable to create level directory")
	}

	item, err := json.MarshalIndent(pkg, "", "  ")
	if nil != err {
		return "", errors.Wrap(err, "unable to encode item")
	}
	files := map[string][]byte{
		ItemFile:                          item,
		"bgm" + audioExt(pkg.Bgm):         pkg.Bgm,
		"cover.png":                       pkg.Cover,
		"preview" + audioExt(pkg.Preview): pkg.Preview,
	}
	for name, data := range files {
		if len(data) == 0 {
			continue
		}
		if err := os.WriteFile(filepath.Join(out, name), data, 0o644); nil != err {
			return "", errors.Wrapf(err, "unable to write %v", name)
		}
	}
	return out, nil
}

func audioExt(data []byte) string {
	if bytes.HasPrefix(data, []byte("OggS")) {
		return ".ogg"
	}
	return ".mp3"
}
