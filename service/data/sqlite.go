package data

import (
	"database/sql"
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"golang.org/x/xerrors"

	"github.com/khaledhikmat/gaze-go/model"
	"github.com/khaledhikmat/gaze-go/service/config"
)

const sqliteFile = "gaze.db"

type sqliteService struct {
	conn *sql.DB
	mu   sync.RWMutex
}

// NewSqlite opens (and migrates) gaze.db in the data folder.
func NewSqlite(cfgsvc config.IService) (IService, error) {
	folder := cfgsvc.GetDataFolder()
	err := os.MkdirAll(folder, 0755)
	if err != nil {
		return nil, xerrors.Errorf("create data folder: %w", err)
	}

	conn, err := sql.Open("sqlite3", filepath.Join(folder, sqliteFile)+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, xerrors.Errorf("failed to open database: %w", err)
	}

	conn.SetMaxOpenConns(1)
	conn.SetMaxIdleConns(1)
	conn.SetConnMaxLifetime(0)

	svc := &sqliteService{conn: conn}
	if err := svc.migrate(); err != nil {
		conn.Close()
		return nil, xerrors.Errorf("failed to migrate database: %w", err)
	}

	return svc, nil
}

func (svc *sqliteService) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS sessions (
		id TEXT PRIMARY KEY,
		started_at INTEGER NOT NULL,
		completed_at INTEGER NOT NULL,
		house TEXT NOT NULL,
		answers TEXT NOT NULL,
		scores TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS errors (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		timestamp INTEGER NOT NULL,
		processor TEXT NOT NULL,
		inner_error TEXT,
		message TEXT,
		stack_trace TEXT,
		misc TEXT
	);

	CREATE TABLE IF NOT EXISTS stats (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		kind TEXT NOT NULL,
		timestamp INTEGER NOT NULL,
		payload TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_stats_kind ON stats(kind);
	CREATE INDEX IF NOT EXISTS idx_sessions_completed_at ON sessions(completed_at);
	`

	_, err := svc.conn.Exec(schema)
	return err
}

func (svc *sqliteService) NewSession(rec model.SessionRecord) error {
	answers, err := json.Marshal(rec.Answers)
	if err != nil {
		return xerrors.Errorf("marshal answers: %w", err)
	}

	scores, err := json.Marshal(rec.Scores)
	if err != nil {
		return xerrors.Errorf("marshal scores: %w", err)
	}

	svc.mu.Lock()
	defer svc.mu.Unlock()

	_, err = svc.conn.Exec(`
		INSERT OR REPLACE INTO sessions (id, started_at, completed_at, house, answers, scores)
		VALUES (?, ?, ?, ?, ?, ?)
	`, rec.ID, rec.StartedAt, rec.CompletedAt, rec.House, string(answers), string(scores))
	if err != nil {
		return xerrors.Errorf("failed to insert session: %w", err)
	}

	return nil
}

func (svc *sqliteService) RetrieveSessions() ([]model.SessionRecord, error) {
	svc.mu.RLock()
	defer svc.mu.RUnlock()

	rows, err := svc.conn.Query(`
		SELECT id, started_at, completed_at, house, answers, scores
		FROM sessions ORDER BY completed_at, id
	`)
	if err != nil {
		return nil, xerrors.Errorf("failed to query sessions: %w", err)
	}
	defer rows.Close()

	sessions := []model.SessionRecord{}
	for rows.Next() {
		var rec model.SessionRecord
		var answers, scores string
		if err := rows.Scan(&rec.ID, &rec.StartedAt, &rec.CompletedAt, &rec.House, &answers, &scores); err != nil {
			return nil, xerrors.Errorf("failed to scan session: %w", err)
		}
		if err := json.Unmarshal([]byte(answers), &rec.Answers); err != nil {
			return nil, xerrors.Errorf("unmarshal answers: %w", err)
		}
		if err := json.Unmarshal([]byte(scores), &rec.Scores); err != nil {
			return nil, xerrors.Errorf("unmarshal scores: %w", err)
		}
		sessions = append(sessions, rec)
	}

	return sessions, rows.Err()
}

func (svc *sqliteService) NewError(err interface{}) error {
	rec := toErrorRecord(err, time.Now().Unix())

	misc, mErr := json.Marshal(rec.Misc)
	if mErr != nil {
		return xerrors.Errorf("marshal misc: %w", mErr)
	}

	svc.mu.Lock()
	defer svc.mu.Unlock()

	_, dbErr := svc.conn.Exec(`
		INSERT INTO errors (timestamp, processor, inner_error, message, stack_trace, misc)
		VALUES (?, ?, ?, ?, ?, ?)
	`, rec.Timestamp, rec.Processor, rec.Inner, rec.Message, rec.StackTrace, string(misc))
	if dbErr != nil {
		return xerrors.Errorf("failed to insert error: %w", dbErr)
	}

	return nil
}

func (svc *sqliteService) NewAgentStats(stats model.AgentStats) error {
	stats.Timestamp = time.Now().Unix()
	return svc.newStats("agent", stats.Timestamp, stats)
}

func (svc *sqliteService) NewFramerStats(stats model.FramerStats) error {
	stats.Timestamp = time.Now().Unix()
	return svc.newStats("framer", stats.Timestamp, stats)
}

func (svc *sqliteService) NewStreamerStats(stats model.StreamerStats) error {
	stats.Timestamp = time.Now().Unix()
	return svc.newStats("streamer", stats.Timestamp, stats)
}

func (svc *sqliteService) NewReporterStats(stats model.ReporterStats) error {
	stats.Timestamp = time.Now().Unix()
	return svc.newStats("reporter", stats.Timestamp, stats)
}

func (svc *sqliteService) newStats(kind string, timestamp int64, stats interface{}) error {
	payload, err := json.Marshal(stats)
	if err != nil {
		return xerrors.Errorf("marshal %s stats: %w", kind, err)
	}

	svc.mu.Lock()
	defer svc.mu.Unlock()

	_, err = svc.conn.Exec(`INSERT INTO stats (kind, timestamp, payload) VALUES (?, ?, ?)`, kind, timestamp, string(payload))
	if err != nil {
		return xerrors.Errorf("failed to insert %s stats: %w", kind, err)
	}

	return nil
}

func (svc *sqliteService) Close() error {
	return svc.conn.Close()
}
