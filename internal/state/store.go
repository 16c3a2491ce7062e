package state

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"webcat-submit/internal/components/assert"
	"webcat-submit/internal/components/chrono"
	"webcat-submit/internal/components/telemetry"

	_ "embed"

	"github.com/mazen160/go-random"
	_ "github.com/tursodatabase/libsql-client-go/libsql"
	_ "modernc.org/sqlite"
)

//go:embed schema.sql
var Schema string

const (
	report_store_answers     = "store.answers"
	report_store_submissions = "store.submissions"
)

type Config struct {
	// File is the path of a local sqlite database.
	File string `json:"file"`
	// Url is a remote libsql database, it is used instead of File when set.
	Url       string `json:"url"`
	AuthToken string `json:"auth_token"`
}

func wrapOpenDB(err error) error {
	return fmt.Errorf("open db: %w", err)
}

// OpenDB opens (and creates) a local sqlite database, ":memory:" is allowed.
func OpenDB(path string) (*sql.DB, error) {
	if path != ":memory:" {
		err := os.MkdirAll(filepath.Dir(path), 0700)
		if err != nil {
			return nil, wrapOpenDB(err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, wrapOpenDB(err)
	}

	// sqlite only allows a single writer
	db.SetMaxOpenConns(1)
	_, err = db.Exec("PRAGMA journal_mode=WAL")
	if err != nil {
		return nil, wrapOpenDB(err)
	}

	return db, nil
}

// OpenRemoteDB opens a libsql database over the network.
func OpenRemoteDB(dbUrl, authToken string) (*sql.DB, error) {
	parsed, err := url.Parse(dbUrl)
	if err != nil {
		return nil, wrapOpenDB(err)
	}
	if authToken != "" {
		query := parsed.Query()
		query.Set("authToken", authToken)
		parsed.RawQuery = query.Encode()
	}

	db, err := sql.Open("libsql", parsed.String())
	if err != nil {
		return nil, wrapOpenDB(err)
	}
	return db, nil
}

func (c Config) OpenDB() (*sql.DB, error) {
	if c.Url != "" {
		return OpenRemoteDB(c.Url, c.AuthToken)
	}
	if c.File == "" {
		return nil, wrapOpenDB(fmt.Errorf("neither a file nor a url was specified"))
	}
	return OpenDB(c.File)
}

// Store keeps remembered prompt answers and the submission history.
type Store struct {
	db   *sql.DB
	time chrono.API
	tel  telemetry.API
}

// NewStore creates the tables it needs if they do not exist yet.
func NewStore(ctx context.Context, db *sql.DB, time chrono.API, tel telemetry.API) (Store, error) {
	assert.NotNil(db)
	assert.NotNil(time)
	assert.NotNil(tel)

	// statements are sent one at a time, remote libsql does not take batches
	for _, stmt := range strings.Split(Schema, ";") {
		if strings.TrimSpace(stmt) == "" {
			continue
		}
		_, err := db.ExecContext(ctx, stmt)
		if err != nil {
			return Store{}, fmt.Errorf("migrate: %w", err)
		}
	}

	return Store{
		db:   db,
		time: time,
		tel:  telemetry.NewScopedAPI("state", tel),
	}, nil
}

func (s Store) Close() error {
	return s.db.Close()
}

// Get returns the remembered answer for key, ok is false if there is none.
func (s Store) Get(ctx context.Context, key string) (value string, ok bool, err error) {
	row := s.db.QueryRowContext(ctx, "select value from answers where key = ?", key)
	err = row.Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		s.tel.ReportBroken(report_store_answers, fmt.Errorf("get: %w", err), key)
		return "", false, err
	}
	return value, true, nil
}

func (s Store) Set(ctx context.Context, key, value string) error {
	_, err := s.db.ExecContext(
		ctx,
		`insert into answers(key, value) values (?, ?)
		on conflict(key) do update set value = excluded.value`,
		key, value,
	)
	if err != nil {
		s.tel.ReportBroken(report_store_answers, fmt.Errorf("set: %w", err), key)
		return err
	}
	return nil
}

// Forget removes every remembered answer and returns how many were removed.
func (s Store) Forget(ctx context.Context) (int64, error) {
	res, err := s.db.ExecContext(ctx, "delete from answers")
	if err != nil {
		s.tel.ReportBroken(report_store_answers, fmt.Errorf("forget: %w", err))
		return 0, err
	}
	return res.RowsAffected()
}

type Submission struct {
	Id         string
	Assignment string
	Group      string
	ResultsUrl string
	TotalScore string
	Queued     bool
	CreatedAt  time.Time
}

// AddSubmission stores a submission, Id and CreatedAt are filled in when
// empty. The stored submission is returned.
func (s Store) AddSubmission(ctx context.Context, sub Submission) (Submission, error) {
	if sub.Id == "" {
		id, err := random.String(8)
		if err != nil {
			return Submission{}, err
		}
		sub.Id = id
	}
	if sub.CreatedAt.IsZero() {
		sub.CreatedAt = s.time.Now()
	}

	_, err := s.db.ExecContext(
		ctx,
		`insert into submissions(id, assignment, assignment_group, results_url, total_score, queued, created_at)
		values (?, ?, ?, ?, ?, ?, ?)`,
		sub.Id,
		sub.Assignment,
		sub.Group,
		sub.ResultsUrl,
		sub.TotalScore,
		sub.Queued,
		sub.CreatedAt.Unix(),
	)
	if err != nil {
		s.tel.ReportBroken(report_store_submissions, fmt.Errorf("add: %w", err), sub.Id)
		return Submission{}, err
	}
	s.tel.ReportDebug("added submission", sub.Id, sub.Assignment)
	return sub, nil
}

// UpdateSubmission overwrites the score and queued state of a stored
// submission.
func (s Store) UpdateSubmission(ctx context.Context, id, totalScore string, queued bool) error {
	_, err := s.db.ExecContext(
		ctx,
		"update submissions set total_score = ?, queued = ? where id = ?",
		totalScore, queued, id,
	)
	if err != nil {
		s.tel.ReportBroken(report_store_submissions, fmt.Errorf("update: %w", err), id)
		return err
	}
	return nil
}

// ListSubmissions returns the most recent submissions first, limit <= 0
// means all of them.
func (s Store) ListSubmissions(ctx context.Context, limit int) ([]Submission, error) {
	if limit <= 0 {
		limit = -1
	}
	rows, err := s.db.QueryContext(
		ctx,
		`select id, assignment, assignment_group, results_url, total_score, queued, created_at
		from submissions order by created_at desc, rowid desc limit ?`,
		limit,
	)
	if err != nil {
		s.tel.ReportBroken(report_store_submissions, fmt.Errorf("list: %w", err))
		return nil, err
	}
	defer rows.Close()

	var out []Submission
	for rows.Next() {
		var sub Submission
		var createdAt int64
		err := rows.Scan(
			&sub.Id,
			&sub.Assignment,
			&sub.Group,
			&sub.ResultsUrl,
			&sub.TotalScore,
			&sub.Queued,
			&createdAt,
		)
		if err != nil {
			s.tel.ReportBroken(report_store_submissions, fmt.Errorf("scan: %w", err))
			return nil, err
		}
		sub.CreatedAt = time.Unix(createdAt, 0).In(s.time.Location())
		out = append(out, sub)
	}
	return out, rows.Err()
}
