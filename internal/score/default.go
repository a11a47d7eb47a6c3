package score

import (
	"crypto/sha256"
	"database/sql"
	"encoding/base64"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
	"github.com/pkg/errors"

	"git.lost.host/meutraa/bandori/internal/stream"
)

type DefaultScorer struct {
	Path string
	db   *sql.DB
}

const initStatement = `
	create table if not exists plays
	  (
		  id integer not null primary key,
		  play text not null,
		  sum text not null,
		  rate real,
		  played_at integer,
		  summary blob,
		  streams blob
	  );
	create index if not exists plays_sum on plays(sum);
`

func (s *DefaultScorer) Init() error {
	path := s.Path
	if path == "" {
		path = "./scores.db"
	}
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return errors.Wrap(err, "unable to open score database")
	}

	if _, err = db.Exec(initStatement); nil != err {
		db.Close()
		return errors.Wrap(err, "unable to create score tables")
	}

	s.db = db
	return nil
}

func (s *DefaultScorer) Deinit() {
	if nil != s.db {
		s.db.Close()
	}
}

// Hash identifies a level by its raw level data.
func Hash(data []byte) string {
	sum := sha256.Sum256(data)
	return base64.StdEncoding.EncodeToString(sum[:])
}

func (s *DefaultScorer) Save(sum string, rate float64, tally *Tally, recorder *stream.Recorder) (string, error) {
	summary, err := json.Marshal(tally.Summary())
	if nil != err {
		return "", errors.Wrap(err, "unable to marshal summary")
	}
	streams, err := json.Marshal(recorder.Snapshot())
	if nil != err {
		return "", errors.Wrap(err, "unable to marshal streams")
	}

	id := uuid.NewString()
	_, err = s.db.Exec(
		"insert into plays(play, sum, rate, played_at, summary, streams) values(?, ?, ?, ?, ?, ?)",
		id, sum, rate, time.Now().Unix(), summary, streams,
	)
	if nil != err {
		return "", errors.Wrap(err, "unable to save play")
	}
	return id, nil
}

func (s *DefaultScorer) Load(sum string) ([]History, error) {
	histories := []History{}
	rows, err := s.db.Query("select play, sum, rate, played_at, summary, streams from plays where sum = ? order by id", sum)
	if nil != err {
		return nil, errors.Wrap(err, "unable to load plays")
	}
	defer rows.Close()

	for rows.Next() {
		var h History
		var playedAt int64
		var summary, streams []byte
		if err := rows.Scan(&h.ID, &h.Sum, &h.Rate, &playedAt, &summary, &streams); nil != err {
			return nil, errors.Wrap(err, "unable to scan play")
		}
		if err := json.Unmarshal(summary, &h.Summary); nil != err {
			slog.Warn("unable to unmarshal play summary", "play", h.ID, "err", err)
			continue
		}
		if err := json.Unmarshal(streams, &h.Streams); nil != err {
			slog.Warn("unable to unmarshal play streams", "play", h.ID, "err", err)
			continue
		}
		h.PlayedAt = time.Unix(playedAt, 0)
		histories = append(histories, h)
	}
	return histories, rows.Err()
}

// Latest returns the most recent play of a level.
func (s *DefaultScorer) Latest(sum string) (History, bool, error) {
	histories, err := s.Load(sum)
	if nil != err || len(histories) == 0 {
		return History{}, false, err
	}
	return histories[len(histories)-1], true, nil
}
