package storage

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "github.com/lib/pq"

	"flight-fare-tracker/models"
)

// PostgresWriter mirrors the cleaned dataset into PostgreSQL so it can
// be queried without re-parsing CSV files.
type PostgresWriter struct {
	db *sql.DB
}

// NewPostgresWriter opens a connection to PostgreSQL, runs schema
// migrations, and returns a ready-to-use PostgresWriter.
func NewPostgresWriter(dsn string) (*PostgresWriter, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("postgres: open: %w", err)
	}

	for i := 0; i < 10; i++ {
		if err = db.Ping(); err == nil {
			break
		}
		time.Sleep(2 * time.Second)
	}
	if err != nil {
		return nil, fmt.Errorf("postgres: ping failed after retries: %w", err)
	}

	pw := &PostgresWriter{db: db}
	if err := pw.migrate(); err != nil {
		return nil, fmt.Errorf("postgres: migrate: %w", err)
	}

	return pw, nil
}

func (pw *PostgresWriter) migrate() error {
	_, err := pw.db.Exec(`
		CREATE TABLE IF NOT EXISTS fares (
			id               SERIAL PRIMARY KEY,
			from_code        VARCHAR(8)  NOT NULL,
			to_code          VARCHAR(8)  NOT NULL,
			date             DATE        NOT NULL,
			duration_minutes INTEGER,
			stops            INTEGER,
			price            NUMERIC(10,2),
			co2_emissions    NUMERIC(12,2),
			imputed          BOOLEAN     NOT NULL DEFAULT FALSE,
			created_at       TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			UNIQUE (from_code, to_code, date)
		);

		CREATE INDEX IF NOT EXISTS idx_fares_price ON fares(price);
		CREATE INDEX IF NOT EXISTS idx_fares_date  ON fares(date);
		CREATE INDEX IF NOT EXISTS idx_fares_route ON fares(from_code, to_code);
	`)
	return err
}

// Clear deletes all existing fares from the table.
func (pw *PostgresWriter) Clear() error {
	_, err := pw.db.Exec("DELETE FROM fares")
	if err != nil {
		return fmt.Errorf("postgres: clear: %w", err)
	}
	return nil
}

// Write batch-inserts the full cleaned dataset, clearing old data first.
// The cleaning pass is a full recompute, so the mirror is too.
func (pw *PostgresWriter) Write(rows []*models.CleanedObservation) error {
	if len(rows) == 0 {
		return nil
	}

	if err := pw.Clear(); err != nil {
		return err
	}

	const batchSize = 50
	for i := 0; i < len(rows); i += batchSize {
		end := i + batchSize
		if end > len(rows) {
			end = len(rows)
		}
		if err := pw.insertBatch(rows[i:end]); err != nil {
			return err
		}
	}
	return nil
}

func (pw *PostgresWriter) insertBatch(batch []*models.CleanedObservation) error {
	valueStrings := make([]string, 0, len(batch))
	valueArgs := make([]interface{}, 0, len(batch)*8)

	for idx, r := range batch {
		base := idx * 8
		valueStrings = append(valueStrings,
			fmt.Sprintf("($%d,$%d,$%d,$%d,$%d,$%d,$%d,$%d)",
				base+1, base+2, base+3, base+4, base+5, base+6, base+7, base+8))
		valueArgs = append(valueArgs,
			r.Key.From, r.Key.To, r.Key.Date,
			nullableInt(r.DurationMinutes), nullableInt(r.Stops),
			nullableFloat(r.Price), nullableFloat(r.CO2),
			r.Imputed)
	}

	query := fmt.Sprintf(`
		INSERT INTO fares (from_code, to_code, date, duration_minutes, stops, price, co2_emissions, imputed)
		VALUES %s
		ON CONFLICT (from_code, to_code, date) DO NOTHING
	`, strings.Join(valueStrings, ","))

	_, err := pw.db.Exec(query, valueArgs...)
	return err
}

func (pw *PostgresWriter) Close() error {
	return pw.db.Close()
}

// FetchAll retrieves all stored fares in (from_code, date) order — used
// by the insight service.
func (pw *PostgresWriter) FetchAll() ([]*models.CleanedObservation, error) {
	rows, err := pw.db.Query(`
		SELECT from_code, to_code, to_char(date, 'YYYY-MM-DD'),
		       duration_minutes, stops, price, co2_emissions, imputed
		FROM fares
		ORDER BY from_code, date
	`)
	if err != nil {
		return nil, fmt.Errorf("postgres: fetch all: %w", err)
	}
	defer rows.Close()

	var fares []*models.CleanedObservation
	for rows.Next() {
		r := &models.CleanedObservation{}
		var duration, stops sql.NullInt64
		var price, co2 sql.NullFloat64
		if err := rows.Scan(
			&r.Key.From, &r.Key.To, &r.Key.Date,
			&duration, &stops, &price, &co2, &r.Imputed,
		); err != nil {
			return nil, fmt.Errorf("postgres: scan row: %w", err)
		}
		if duration.Valid {
			r.DurationMinutes = models.KnownInt(int(duration.Int64))
		}
		if stops.Valid {
			r.Stops = models.KnownInt(int(stops.Int64))
		}
		if price.Valid {
			r.Price = models.KnownFloat(price.Float64)
		}
		if co2.Valid {
			r.CO2 = models.KnownFloat(co2.Float64)
		}
		fares = append(fares, r)
	}
	return fares, rows.Err()
}

func nullableInt(f models.IntField) interface{} {
	if !f.Known {
		return nil
	}
	return f.Val
}

func nullableFloat(f models.FloatField) interface{} {
	if !f.Known {
		return nil
	}
	return f.Val
}
