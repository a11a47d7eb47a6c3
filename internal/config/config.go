// Package config reads the command line and the optional config file.
package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"
	"gopkg.in/alecthomas/kingpin.v2"
	"gopkg.in/yaml.v3"

	"git.lost.host/meutraa/bandori/internal/game"
)

const Version = "0.3.0"

// Commands
const (
	Convert = "convert"
	Fetch   = "fetch"
	Play    = "play"
	Watch   = "watch"
)

// Judgement names, best first. Miss is appended after the windows.
var Names = []string{"Perfect", "Great", "Good", "Bad"}

// File holds the settings a config file may provide. Flags given on the
// command line win over it.
type File struct {
	Rate          float64         `yaml:"rate"`
	Offset        time.Duration   `yaml:"offset"`
	Delay         time.Duration   `yaml:"delay"`
	NoteDuration  time.Duration   `yaml:"note-duration"`
	HitWidth      float64         `yaml:"hit-width"`
	HoldTolerance float64         `yaml:"hold-tolerance"`
	FlickSpeed    float64         `yaml:"flick-speed"`
	Keys          string          `yaml:"keys"`
	KeyHold       time.Duration   `yaml:"key-hold"`
	Windows       []time.Duration `yaml:"windows"`
	Mirror        bool            `yaml:"mirror"`
	Base          string          `yaml:"base"`
	CacheDir      string          `yaml:"cache-dir"`
	Database      string          `yaml:"database"`
}

func Defaults() File {
	cache, err := os.UserCacheDir()
	if nil != err {
		cache = os.TempDir()
	}
	return File{
		Rate:          1,
		Delay:         1500 * time.Millisecond,
		NoteDuration:  1200 * time.Millisecond,
		HitWidth:      0.75,
		HoldTolerance: 1,
		FlickSpeed:    8,
		Keys:          "sdf jkl",
		KeyHold:       120 * time.Millisecond,
		Windows: []time.Duration{
			50 * time.Millisecond,
			100 * time.Millisecond,
			117 * time.Millisecond,
			133 * time.Millisecond,
		},
		Base:     "https://sonolus.bestdori.com/official/",
		CacheDir: cache + "/bandori",
		Database: "bandori.db",
	}
}

// Load reads a YAML config file over the defaults.
func Load(path string) (File, error) {
	f := Defaults()
	data, err := os.ReadFile(path)
	if nil != err {
		return f, errors.Wrap(err, "unable to read config")
	}
	if err := yaml.Unmarshal(data, &f); nil != err {
		return f, errors.Wrapf(err, "unable to parse config %v", path)
	}
	return f, nil
}

type Config struct {
	Command string
	File    string
	Verbose bool

	// convert
	Source string
	Out    string
	Watch  bool

	// fetch
	Name string
	Base string

	// play, watch
	Directory string

	Rate          float64
	Offset        time.Duration
	Delay         time.Duration
	NoteDuration  time.Duration
	HitWidth      float64
	HoldTolerance float64
	FlickSpeed    float64
	Keys          string
	KeyHold       time.Duration
	Mirror        bool
	CacheDir      string
	Database      string
	Judgements    []game.Judgement
}

// KeyRunes returns one key per stage lane, left to right.
func (c *Config) KeyRunes() []rune {
	return []rune(c.Keys)
}

// KeyLane returns the lane index of a key, or -1.
func (c *Config) KeyLane(r rune) int {
	for i, k := range c.KeyRunes() {
		if r == k {
			return i
		}
	}
	return -1
}

// Parse parses command line arguments, without the program name.
func Parse(args []string) (*Config, error) {
	defaults := Defaults()
	if path := filePath(args); path != "" {
		f, err := Load(path)
		if nil != err {
			return nil, err
		}
		defaults = f
	}

	c := &Config{}
	app := kingpin.New("bandori", "Convert and play BanG Dream! community levels.")
	app.Version(Version)
	app.Flag("config", "YAML file with default settings").Short('c').StringVar(&c.File)
	app.Flag("verbose", "Debug logging").Short('v').BoolVar(&c.Verbose)
	app.Flag("rate", "Playback rate").Default(float(defaults.Rate)).Short('r').Float64Var(&c.Rate)
	app.Flag("offset", "Global offset").Default(defaults.Offset.String()).Short('o').DurationVar(&c.Offset)
	app.Flag("delay", "Start delay").Default(defaults.Delay.String()).Short('d').DurationVar(&c.Delay)
	app.Flag("note-duration", "Time a note is on screen").Default(defaults.NoteDuration.String()).Short('s').DurationVar(&c.NoteDuration)
	app.Flag("hit-width", "Lanes either side of a note that still hit it").Default(float(defaults.HitWidth)).Float64Var(&c.HitWidth)
	app.Flag("hold-tolerance", "Lanes a held key may be away from a hold").Default(float(defaults.HoldTolerance)).Float64Var(&c.HoldTolerance)
	app.Flag("flick-speed", "Lanes per second that count as a flick").Default(float(defaults.FlickSpeed)).Float64Var(&c.FlickSpeed)
	app.Flag("keys", "Keys for the seven lanes").Default(defaults.Keys).Short('k').StringVar(&c.Keys)
	app.Flag("key-hold", "How long a key press is held down").Default(defaults.KeyHold.String()).DurationVar(&c.KeyHold)
	app.Flag("mirror", "Mirror lanes").Default(strconv.FormatBool(defaults.Mirror)).Short('m').BoolVar(&c.Mirror)
	app.Flag("cache-dir", "Downloaded asset cache").Default(defaults.CacheDir).StringVar(&c.CacheDir)
	app.Flag("database", "Play history database").Default(defaults.Database).StringVar(&c.Database)
	windows := app.Flag("window", "Judgement windows, best first").Default(durations(defaults.Windows)...).DurationList()

	convert := app.Command(Convert, "Convert level data to a playable level.")
	convert.Arg("source", "Level data file, plain or gzip").Required().StringVar(&c.Source)
	convert.Flag("out", "Output file, stdout if empty").Short('O').StringVar(&c.Out)
	convert.Flag("watch", "Convert again whenever the source changes").Short('w').BoolVar(&c.Watch)

	fetch := app.Command(Fetch, "Download and convert a level from a server.")
	fetch.Arg("name", "Level name").Required().StringVar(&c.Name)
	fetch.Flag("base", "Server address").Default(defaults.Base).StringVar(&c.Base)

	play := app.Command(Play, "Play a level.")
	play.Arg("directory", "Level directory").Required().ExistingDirVar(&c.Directory)

	watch := app.Command(Watch, "Replay the latest play of a level.")
	watch.Arg("directory", "Level directory").Required().ExistingDirVar(&c.Directory)

	cmd, err := app.Parse(args)
	if nil != err {
		return nil, err
	}
	c.Command = cmd

	if n := len(c.KeyRunes()); n != 7 {
		return nil, errors.Errorf("need 7 keys, got %v", n)
	}
	if len(*windows) != len(Names) {
		return nil, errors.Errorf("need %v judgement windows, got %v", len(Names), len(*windows))
	}
	for i, w := range *windows {
		if i > 0 && w <= (*windows)[i-1] {
			return nil, errors.Errorf("judgement windows must grow, %v after %v", w, (*windows)[i-1])
		}
		c.Judgements = append(c.Judgements, game.Judgement{Time: w, Name: Names[i]})
	}
	c.Judgements = append(c.Judgements, game.Judgement{Name: "Miss"})
	return c, nil
}

// filePath finds the config flag before kingpin runs, so the file can
// supply flag defaults.
func filePath(args []string) string {
	for i, a := range args {
		switch {
		case a == "--":
			return ""
		case a == "--config" || a == "-c":
			if i+1 < len(args) {
				return args[i+1]
			}
		case strings.HasPrefix(a, "--config="):
			return strings.TrimPrefix(a, "--config=")
		}
	}
	return ""
}

func float(f float64) string {
	return strconv.FormatFloat(f, 'g', -1, 64)
}

func durations(ds []time.Duration) []string {
	out := make([]string, len(ds))
	for i, d := range ds {
		out[i] = d.String()
	}
	return out
}
