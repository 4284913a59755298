package history

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/kisekinoumi/mzzbscore-edit/internal/contract"
	"github.com/kisekinoumi/mzzbscore-edit/schema"
)

// Store implements contract.HistoryStore on top of database/sql.
type Store struct {
	db      *sql.DB
	backend schema.DatabaseBackend
}

var _ contract.HistoryStore = &Store{} // Compile-time check

// NewStore opens the history store for backend and creates its tables.
// NoneBackend yields a store that records nothing.
func NewStore(backend schema.DatabaseBackend, connStr string) (*Store, error) {
	if backend == schema.NoneBackend || backend == "" {
		return &Store{backend: schema.NoneBackend}, nil
	}

	db, err := openDB(backend, connStr)
	if err != nil {
		return nil, err
	}
	if err := createTables(db, backend); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create history tables: %w", err)
	}
	return &Store{db: db, backend: backend}, nil
}

// createTables creates the run history tables if they do not exist.
func createTables(db *sql.DB, backend schema.DatabaseBackend) error {
	tables := []struct {
		name  string
		query string
	}{
		{runsTable, createRunsQuery(backend)},
		{titleRanksTable, createTitleRanksQuery(backend)},
	}
	for _, table := range tables {
		if _, err := db.Exec(table.query); err != nil {
			return fmt.Errorf("failed to create table %s: %w", table.name, err)
		}
	}
	return nil
}

// createRunsQuery returns the CREATE TABLE query for mzzbscore_runs.
func createRunsQuery(backend schema.DatabaseBackend) string {
	quoted := quoteTableName(runsTable, backend)

	switch backend {
	case schema.MySQLBackend:
		return fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS %s (
				run_id BIGINT AUTO_INCREMENT PRIMARY KEY,
				operation VARCHAR(20) NOT NULL,
				input_file VARCHAR(1024) NOT NULL,
				output_file VARCHAR(1024),
				start_time DATETIME(6) NOT NULL,
				end_time DATETIME(6),
				run_duration_ms INT,
				total_processed INT NOT NULL DEFAULT 0,
				total_valid INT NOT NULL DEFAULT 0,
				total_excluded INT NOT NULL DEFAULT 0,
				error_count INT NOT NULL DEFAULT 0,
				warning_count INT NOT NULL DEFAULT 0,
				config_params TEXT
			);
		`, quoted)

	case schema.PostgreSQLBackend:
		return fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS %s (
				run_id BIGSERIAL PRIMARY KEY,
				operation TEXT NOT NULL,
				input_file TEXT NOT NULL,
				output_file TEXT,
				start_time TIMESTAMPTZ NOT NULL,
				end_time TIMESTAMPTZ,
				run_duration_ms INT,
				total_processed INT NOT NULL DEFAULT 0,
				total_valid INT NOT NULL DEFAULT 0,
				total_excluded INT NOT NULL DEFAULT 0,
				error_count INT NOT NULL DEFAULT 0,
				warning_count INT NOT NULL DEFAULT 0,
				config_params TEXT
			);
		`, quoted)

	default: // SQLite
		return fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS %s (
				run_id INTEGER PRIMARY KEY AUTOINCREMENT,
				operation TEXT NOT NULL,
				input_file TEXT NOT NULL,
				output_file TEXT,
				start_time TEXT NOT NULL,
				end_time TEXT,
				run_duration_ms INTEGER,
				total_processed INTEGER NOT NULL DEFAULT 0,
				total_valid INTEGER NOT NULL DEFAULT 0,
				total_excluded INTEGER NOT NULL DEFAULT 0,
				error_count INTEGER NOT NULL DEFAULT 0,
				warning_count INTEGER NOT NULL DEFAULT 0,
				config_params TEXT
			);
		`, quoted)
	}
}

// createTitleRanksQuery returns the CREATE TABLE query for mzzbscore_title_ranks.
func createTitleRanksQuery(backend schema.DatabaseBackend) string {
	quoted := quoteTableName(titleRanksTable, backend)

	switch backend {
	case schema.MySQLBackend:
		return fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS %s (
				run_id BIGINT NOT NULL,
				title_key VARCHAR(512) NOT NULL,
				excluded BOOLEAN NOT NULL,
				composite_score DOUBLE,
				composite_rank INT,
				bangumi_rank INT,
				anilist_rank INT,
				myanimelist_rank INT,
				filmarks_rank INT,
				PRIMARY KEY (run_id, title_key)
			);
		`, quoted)

	case schema.PostgreSQLBackend:
		return fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS %s (
				run_id BIGINT NOT NULL,
				title_key TEXT NOT NULL,
				excluded BOOLEAN NOT NULL,
				composite_score DOUBLE PRECISION,
				composite_rank INT,
				bangumi_rank INT,
				anilist_rank INT,
				myanimelist_rank INT,
				filmarks_rank INT,
				PRIMARY KEY (run_id, title_key)
			);
		`, quoted)

	default: // SQLite
		return fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS %s (
				run_id INTEGER NOT NULL,
				title_key TEXT NOT NULL,
				excluded INTEGER NOT NULL,
				composite_score REAL,
				composite_rank INTEGER,
				bangumi_rank INTEGER,
				anilist_rank INTEGER,
				myanimelist_rank INTEGER,
				filmarks_rank INTEGER,
				PRIMARY KEY (run_id, title_key)
			);
		`, quoted)
	}
}

func (s *Store) disabled() bool {
	return s.backend == schema.NoneBackend || s.db == nil
}

// BeginRun creates a new run and returns its unique ID.
func (s *Store) BeginRun(startTime time.Time, operation schema.OperationKind, inputFile string, configParams map[string]any) (int64, error) {
	if s.disabled() {
		return 0, nil
	}

	configJSON, err := json.Marshal(configParams)
	if err != nil {
		return 0, fmt.Errorf("failed to marshal config params: %w", err)
	}

	quoted := quoteTableName(runsTable, s.backend)
	args := []any{string(operation), inputFile, formatTime(startTime, s.backend), string(configJSON)}

	var runID int64
	switch s.backend {
	case schema.PostgreSQLBackend:
		query := fmt.Sprintf(`INSERT INTO %s (operation, input_file, start_time, config_params) VALUES (%s) RETURNING run_id`,
			quoted, placeholders(s.backend, 1, len(args)))
		err = s.db.QueryRow(query, args...).Scan(&runID)
	default: // SQLite and MySQL
		query := fmt.Sprintf(`INSERT INTO %s (operation, input_file, start_time, config_params) VALUES (%s)`,
			quoted, placeholders(s.backend, 1, len(args)))
		var result sql.Result
		result, err = s.db.Exec(query, args...)
		if err == nil {
			runID, err = result.LastInsertId()
		}
	}
	if err != nil {
		return 0, fmt.Errorf("failed to insert run: %w", err)
	}
	return runID, nil
}

// EndRun stores the end time, destination and counts of a run.
func (s *Store) EndRun(runID int64, endTime time.Time, outputFile string, summary schema.RankingSummary) error {
	if s.disabled() {
		return nil
	}

	quoted := quoteTableName(runsTable, s.backend)
	row := s.db.QueryRow(fmt.Sprintf(`SELECT start_time FROM %s WHERE run_id = %s`, quoted, placeholders(s.backend, 1, 1)), runID)
	startTime, err := s.scanTime(row)
	if err != nil {
		return fmt.Errorf("failed to get start_time for run %d: %w", runID, err)
	}

	output := sql.NullString{String: outputFile, Valid: outputFile != ""}
	args := []any{
		formatTime(endTime, s.backend),
		endTime.Sub(startTime).Milliseconds(),
		output,
		summary.TotalProcessed,
		summary.TotalValid,
		summary.TotalExcluded,
		len(summary.Errors),
		len(summary.Warnings),
		runID,
	}

	var query string
	if s.backend == schema.PostgreSQLBackend {
		query = fmt.Sprintf(`UPDATE %s SET end_time = $1, run_duration_ms = $2, output_file = $3, total_processed = $4,
			total_valid = $5, total_excluded = $6, error_count = $7, warning_count = $8 WHERE run_id = $9`, quoted)
	} else {
		query = fmt.Sprintf(`UPDATE %s SET end_time = ?, run_duration_ms = ?, output_file = ?, total_processed = ?,
			total_valid = ?, total_excluded = ?, error_count = ?, warning_count = ? WHERE run_id = ?`, quoted)
	}
	if _, err := s.db.Exec(query, args...); err != nil {
		return fmt.Errorf("failed to update run: %w", err)
	}
	return nil
}

// RecordTitle stores the ranks of one title. A second record for the same run
// and title is ignored.
func (s *Store) RecordTitle(record schema.TitleRankRecord) error {
	if s.disabled() {
		return nil
	}

	quoted := quoteTableName(titleRanksTable, s.backend)
	columns := `run_id, title_key, excluded, composite_score, composite_rank, bangumi_rank, anilist_rank, myanimelist_rank, filmarks_rank`
	args := []any{
		record.RunID, record.TitleKey, record.Excluded,
		record.CompositeScore, record.CompositeRank,
		record.BangumiRank, record.AnilistRank, record.MyAnimeListRank, record.FilmarksRank,
	}
	values := placeholders(s.backend, 1, len(args))

	var query string
	switch s.backend {
	case schema.MySQLBackend:
		query = fmt.Sprintf(`INSERT IGNORE INTO %s (%s) VALUES (%s)`, quoted, columns, values)
	case schema.PostgreSQLBackend:
		query = fmt.Sprintf(`INSERT INTO %s (%s) VALUES (%s) ON CONFLICT (run_id, title_key) DO NOTHING`, quoted, columns, values)
	default: // SQLite
		query = fmt.Sprintf(`INSERT OR IGNORE INTO %s (%s) VALUES (%s)`, quoted, columns, values)
	}

	if _, err := s.db.Exec(query, args...); err != nil {
		return fmt.Errorf("failed to insert title rank: %w", err)
	}
	return nil
}

// GetStatus returns status information about the history store.
func (s *Store) GetStatus() (schema.HistoryStatus, error) {
	status := schema.HistoryStatus{
		Backend:    string(s.backend),
		Connected:  s.db != nil,
		TableSizes: make(map[string]int64),
	}
	if s.disabled() {
		return status, nil
	}

	runs := quoteTableName(runsTable, s.backend)
	if err := s.db.QueryRow(fmt.Sprintf("SELECT COUNT(*) FROM %s", runs)).Scan(&status.TotalRuns); err != nil {
		return status, fmt.Errorf("failed to get total runs: %w", err)
	}

	if status.TotalRuns > 0 {
		row := s.db.QueryRow(fmt.Sprintf("SELECT run_id FROM %s ORDER BY run_id DESC LIMIT 1", runs))
		if err := row.Scan(&status.LastRunID); err != nil {
			return status, fmt.Errorf("failed to get last run info: %w", err)
		}
		last, err := s.scanTime(s.db.QueryRow(fmt.Sprintf("SELECT start_time FROM %s ORDER BY run_id DESC LIMIT 1", runs)))
		if err != nil {
			return status, fmt.Errorf("failed to get last run time: %w", err)
		}
		status.LastRunTime = last

		oldest, err := s.scanTime(s.db.QueryRow(fmt.Sprintf("SELECT start_time FROM %s ORDER BY run_id ASC LIMIT 1", runs)))
		if err != nil {
			return status, fmt.Errorf("failed to get oldest run time: %w", err)
		}
		status.OldestRunTime = oldest

		titles := quoteTableName(titleRanksTable, s.backend)
		if err := s.db.QueryRow(fmt.Sprintf("SELECT COUNT(DISTINCT title_key) FROM %s", titles)).Scan(&status.TotalTitles); err != nil {
			return status, fmt.Errorf("failed to get total titles: %w", err)
		}
	}

	for _, table := range historyTables {
		var count int64
		if err := s.db.QueryRow(fmt.Sprintf("SELECT COUNT(*) FROM %s", quoteTableName(table, s.backend))).Scan(&count); err != nil {
			return status, fmt.Errorf("failed to get count for table %s: %w", table, err)
		}
		status.TableSizes[table] = count
	}
	return status, nil
}

// GetAllRuns returns every stored run, oldest first.
func (s *Store) GetAllRuns() ([]schema.RunRecord, error) {
	if s.disabled() {
		return nil, nil
	}

	query := fmt.Sprintf(`SELECT run_id, operation, input_file, output_file, start_time, end_time, run_duration_ms,
		total_processed, total_valid, total_excluded, error_count, warning_count, config_params
		FROM %s ORDER BY run_id`, quoteTableName(runsTable, s.backend))
	rows, err := s.db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("failed to query runs: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var results []schema.RunRecord
	for rows.Next() {
		var record schema.RunRecord
		var start, end any
		if err := rows.Scan(&record.RunID, &record.Operation, &record.InputFile, &record.OutputFile, &start, &end,
			&record.RunDurationMs, &record.TotalProcessed, &record.TotalValid, &record.TotalExcluded,
			&record.ErrorCount, &record.WarningCount, &record.ConfigParams); err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		if record.StartTime, err = parseTime(start); err != nil {
			return nil, fmt.Errorf("failed to parse start_time: %w", err)
		}
		if end != nil {
			endTime, err := parseTime(end)
			if err != nil {
				return nil, fmt.Errorf("failed to parse end_time: %w", err)
			}
			record.EndTime = &endTime
		}
		results = append(results, record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating runs: %w", err)
	}
	return results, nil
}

// GetAllTitleRanks returns every stored title rank, ordered by run and title.
func (s *Store) GetAllTitleRanks() ([]schema.TitleRankRecord, error) {
	if s.disabled() {
		return nil, nil
	}

	query := fmt.Sprintf(`SELECT run_id, title_key, excluded, composite_score, composite_rank,
		bangumi_rank, anilist_rank, myanimelist_rank, filmarks_rank
		FROM %s ORDER BY run_id, title_key`, quoteTableName(titleRanksTable, s.backend))
	rows, err := s.db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("failed to query title ranks: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var results []schema.TitleRankRecord
	for rows.Next() {
		var record schema.TitleRankRecord
		if err := rows.Scan(&record.RunID, &record.TitleKey, &record.Excluded, &record.CompositeScore, &record.CompositeRank,
			&record.BangumiRank, &record.AnilistRank, &record.MyAnimeListRank, &record.FilmarksRank); err != nil {
			return nil, fmt.Errorf("failed to scan title rank: %w", err)
		}
		results = append(results, record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating title ranks: %w", err)
	}
	return results, nil
}

// Close closes the underlying connection.
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// scanTime reads one timestamp column, which SQLite keeps as text.
func (s *Store) scanTime(row *sql.Row) (time.Time, error) {
	var v any
	if err := row.Scan(&v); err != nil {
		return time.Time{}, err
	}
	return parseTime(v)
}

// parseTime accepts the native time of MySQL/PostgreSQL or the RFC 3339 text of SQLite.
func parseTime(v any) (time.Time, error) {
	switch t := v.(type) {
	case time.Time:
		return t, nil
	case string:
		return time.Parse(time.RFC3339Nano, t)
	case []byte:
		return time.Parse(time.RFC3339Nano, string(t))
	default:
		return time.Time{}, fmt.Errorf("unexpected time value %T", v)
	}
}

// formatTime converts a time.Time to the appropriate format for the backend.
func formatTime(t time.Time, backend schema.DatabaseBackend) any {
	if backend == schema.SQLiteBackend {
		return t.Format(time.RFC3339Nano)
	}
	return t
}
