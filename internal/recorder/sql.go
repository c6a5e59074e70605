package recorder

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/rs/zerolog/log"
	_ "modernc.org/sqlite"

	"ChartSentinel/internal/model"
)

func init() {
	// modernc registers as "sqlite", which sqlx does not know by default.
	sqlx.BindDriver("sqlite", sqlx.QUESTION)
}

// SQLRecorder persists frames through sqlx to SQLite or Postgres.
type SQLRecorder struct {
	db     *sqlx.DB
	driver string
	mu     sync.Mutex
}

// NewSQLiteRecorder opens (or creates) the SQLite database and runs migrations.
func NewSQLiteRecorder(dbPath string) (*SQLRecorder, error) {
	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create db dir: %w", err)
		}
	}
	db, err := sqlx.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	// WAL mode lets the API read while a report cycle writes.
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}
	if _, err := db.Exec("PRAGMA busy_timeout=5000"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set busy timeout: %w", err)
	}

	r := &SQLRecorder{db: db, driver: "sqlite"}
	if err := r.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	log.Info().Str("path", dbPath).Msg("sqlite recorder opened")
	return r, nil
}

// NewPostgresRecorder connects with lib/pq and runs migrations.
func NewPostgresRecorder(ctx context.Context, dsn string) (*SQLRecorder, error) {
	db, err := sqlx.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	db.SetMaxOpenConns(10)
	db.SetConnMaxIdleTime(5 * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}

	r := &SQLRecorder{db: db, driver: "postgres"}
	if err := r.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	log.Info().Msg("postgres recorder opened")
	return r, nil
}

func (r *SQLRecorder) migrate() error {
	for i, s := range migrations() {
		if _, err := r.db.Exec(s); err != nil {
			return fmt.Errorf("migration %d: %w", i, err)
		}
	}
	return nil
}

type candleRecord struct {
	Symbol string  `db:"symbol"`
	TF     string  `db:"tf"`
	TS     int64   `db:"ts"`
	Open   float64 `db:"open"`
	High   float64 `db:"high"`
	Low    float64 `db:"low"`
	Close  float64 `db:"close"`
	Volume float64 `db:"volume"`
}

type indicatorRecord struct {
	Symbol string `db:"symbol"`
	TF     string `db:"tf"`
	TS     int64  `db:"ts"`
	model.IndicatorRow
}

// indicatorSelect adds the joined candle close to the stored row.
type indicatorSelect struct {
	indicatorRecord
	CandleClose *float64 `db:"candle_close"`
}

// RecordCandles upserts every bar of series.
func (r *SQLRecorder) RecordCandles(ctx context.Context, series *model.CandleSeries) error {
	recs := make([]any, len(series.Bars))
	for i, b := range series.Bars {
		recs[i] = &candleRecord{
			Symbol: series.Symbol, TF: series.Interval.String(), TS: b.Time.UnixMilli(),
			Open: b.Open, High: b.High, Low: b.Low, Close: b.Close, Volume: b.Volume,
		}
	}
	if err := r.upsertAll(ctx, upsertQuery("candles", candleColumns), recs); err != nil {
		return fmt.Errorf("record candles %s %s: %w", series.Symbol, series.Interval, err)
	}
	log.Info().Str("symbol", series.Symbol).Str("interval", series.Interval.String()).Int("rows", len(recs)).Msg("stored historical data")
	return nil
}

// RecordIndicators upserts one row per frame row. Undefined values are stored as NULL.
func (r *SQLRecorder) RecordIndicators(ctx context.Context, frame *model.IndicatorFrame) error {
	recs := make([]any, len(frame.Rows))
	for i := range frame.Rows {
		recs[i] = &indicatorRecord{
			Symbol:       frame.Symbol,
			TF:           frame.Interval.String(),
			TS:           frame.Rows[i].Time.UnixMilli(),
			IndicatorRow: frame.Rows[i],
		}
	}
	if err := r.upsertAll(ctx, upsertQuery("indicators", indicatorColumnNames()), recs); err != nil {
		return fmt.Errorf("record indicators %s %s: %w", frame.Symbol, frame.Interval, err)
	}
	log.Info().Str("symbol", frame.Symbol).Str("interval", frame.Interval.String()).Int("rows", len(recs)).Msg("stored indicators data")
	return nil
}

func (r *SQLRecorder) upsertAll(ctx context.Context, query string, recs []any) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	stmt, err := tx.PrepareNamedContext(ctx, query)
	if err != nil {
		tx.Rollback()
		return fmt.Errorf("prepare: %w", err)
	}
	defer stmt.Close()
	for i, rec := range recs {
		if _, err := stmt.ExecContext(ctx, rec); err != nil {
			tx.Rollback()
			return fmt.Errorf("row %d: %w", i, err)
		}
	}
	return tx.Commit()
}

// RecordReport stores one report record.
func (r *SQLRecorder) RecordReport(ctx context.Context, rec *ReportRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now().UTC()
	}
	rec.Created = rec.CreatedAt.UnixMilli()
	_, err := r.db.NamedExecContext(ctx, `INSERT INTO reports
		(run_id, symbol, tf, created_at, close, bias_score, bias_label, summary, narrative, delivered)
		VALUES (:run_id, :symbol, :tf, :created_at, :close, :bias_score, :bias_label, :summary, :narrative, :delivered)
		ON CONFLICT (run_id, symbol, tf) DO UPDATE SET
		summary = excluded.summary, narrative = excluded.narrative, delivered = excluded.delivered`, rec)
	if err != nil {
		return fmt.Errorf("record report %s %s: %w", rec.Symbol, rec.Interval, err)
	}
	return nil
}

// LatestIndicators returns up to limit most recent rows, oldest first.
func (r *SQLRecorder) LatestIndicators(ctx context.Context, symbol string, interval model.Interval, limit int) ([]model.IndicatorRow, error) {
	cols := make([]string, len(indicatorColumns))
	for i, c := range indicatorColumns {
		cols[i] = "i." + c.name
	}
	query := r.db.Rebind(fmt.Sprintf(`SELECT i.symbol, i.tf, i.ts, %s, c.close AS candle_close
		FROM indicators i
		LEFT JOIN candles c ON c.symbol = i.symbol AND c.tf = i.tf AND c.ts = i.ts
		WHERE i.symbol = ? AND i.tf = ?
		ORDER BY i.ts DESC
		LIMIT ?`, strings.Join(cols, ", ")))

	var recs []indicatorSelect
	if err := r.db.SelectContext(ctx, &recs, query, symbol, interval.String(), limit); err != nil {
		return nil, fmt.Errorf("select indicators %s %s: %w", symbol, interval, err)
	}
	rows := make([]model.IndicatorRow, len(recs))
	for i, rec := range recs {
		row := rec.IndicatorRow
		row.Time = time.UnixMilli(rec.TS).UTC()
		if rec.CandleClose != nil {
			row.Close = *rec.CandleClose
		}
		rows[len(recs)-1-i] = row
	}
	return rows, nil
}

// LatestReports returns up to limit most recent reports, newest first.
func (r *SQLRecorder) LatestReports(ctx context.Context, symbol string, interval model.Interval, limit int) ([]ReportRecord, error) {
	query := r.db.Rebind(`SELECT run_id, symbol, tf, created_at, close, bias_score, bias_label, summary, narrative, delivered
		FROM reports WHERE symbol = ? AND tf = ? ORDER BY created_at DESC LIMIT ?`)
	var recs []ReportRecord
	if err := r.db.SelectContext(ctx, &recs, query, symbol, interval.String(), limit); err != nil {
		return nil, fmt.Errorf("select reports %s %s: %w", symbol, interval, err)
	}
	for i := range recs {
		recs[i].CreatedAt = time.UnixMilli(recs[i].Created).UTC()
	}
	return recs, nil
}

func (r *SQLRecorder) Close() error {
	log.Info().Str("driver", r.driver).Msg("closing recorder")
	return r.db.Close()
}
