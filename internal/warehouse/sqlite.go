package warehouse

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/ascentvc/diligence-cli/internal/model"
)

// SQLiteWarehouse implements Warehouse using modernc.org/sqlite, for
// single-analyst use without a Postgres instance.
type SQLiteWarehouse struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at the given path and configures WAL mode.
func NewSQLite(dsn string) (*SQLiteWarehouse, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteWarehouse{db: db}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS companies (
	id         TEXT PRIMARY KEY,
	name       TEXT NOT NULL UNIQUE,
	sector     TEXT NOT NULL DEFAULT '',
	stage      TEXT NOT NULL DEFAULT '',
	profile    TEXT NOT NULL,
	created_at DATETIME NOT NULL DEFAULT (datetime('now')),
	updated_at DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE INDEX IF NOT EXISTS idx_companies_sector ON companies(sector);

CREATE TABLE IF NOT EXISTS analyses (
	id                TEXT PRIMARY KEY,
	company_id        TEXT NOT NULL,
	company_name      TEXT NOT NULL,
	kind              TEXT NOT NULL,
	score             REAL NOT NULL DEFAULT 0,
	summary           TEXT NOT NULL DEFAULT '',
	detail            TEXT NOT NULL,
	processing_status TEXT NOT NULL DEFAULT 'complete',
	created_at        DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE INDEX IF NOT EXISTS idx_analyses_company_kind_created ON analyses(company_id, kind, created_at);
CREATE INDEX IF NOT EXISTS idx_analyses_company_name ON analyses(company_name);
`

func (w *SQLiteWarehouse) Migrate(ctx context.Context) error {
	_, err := w.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (w *SQLiteWarehouse) Ping(ctx context.Context) error {
	return eris.Wrap(w.db.PingContext(ctx), "sqlite: ping")
}

func (w *SQLiteWarehouse) Close() error {
	return w.db.Close()
}

func (w *SQLiteWarehouse) SaveAnalysis(ctx context.Context, rec *Record) error {
	if rec.ID == "" {
		rec.ID = uuid.New().String()
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now().UTC()
	}
	if rec.ProcessingStatus == "" {
		rec.ProcessingStatus = string(model.RunStatusComplete)
	}

	_, err := w.db.ExecContext(ctx,
		`INSERT INTO analyses (id, company_id, company_name, kind, score, summary, detail, processing_status, created_at) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.ID, rec.CompanyID, rec.CompanyName, string(rec.Kind),
		rec.Score, rec.Summary, string(rec.Detail), rec.ProcessingStatus, rec.CreatedAt,
	)
	return eris.Wrapf(err, "sqlite: insert %s analysis for %s", rec.Kind, rec.CompanyName)
}

func (w *SQLiteWarehouse) LatestAnalysis(ctx context.Context, companyID string, kind Kind) (*Record, error) {
	var rec Record
	var detail string
	err := w.db.QueryRowContext(ctx,
		`SELECT id, company_id, company_name, kind, score, summary, detail, processing_status, created_at FROM analyses
		 WHERE company_id = ? AND kind = ?
		 ORDER BY created_at DESC LIMIT 1`,
		companyID, string(kind),
	).Scan(&rec.ID, &rec.CompanyID, &rec.CompanyName, &rec.Kind,
		&rec.Score, &rec.Summary, &detail, &rec.ProcessingStatus, &rec.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: latest %s analysis for %s", kind, companyID)
	}
	rec.Detail = []byte(detail)
	return &rec, nil
}

func (w *SQLiteWarehouse) CreateCompany(ctx context.Context, company model.Company) (string, error) {
	now := time.Now().UTC()

	profileJSON, err := json.Marshal(company)
	if err != nil {
		return "", eris.Wrap(err, "sqlite: marshal company")
	}

	// Keep the existing id when the company is already registered.
	var existing string
	err = w.db.QueryRowContext(ctx,
		`SELECT id FROM companies WHERE LOWER(name) = LOWER(?) LIMIT 1`,
		company.Name,
	).Scan(&existing)
	switch {
	case err == sql.ErrNoRows:
		id := uuid.New().String()
		_, err = w.db.ExecContext(ctx,
			`INSERT INTO companies (id, name, sector, stage, profile, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?, ?)`,
			id, company.Name, company.Sector, company.Stage, string(profileJSON), now, now,
		)
		if err != nil {
			return "", eris.Wrapf(err, "sqlite: insert company %s", company.Name)
		}
		return id, nil
	case err != nil:
		return "", eris.Wrapf(err, "sqlite: lookup company %s", company.Name)
	}

	_, err = w.db.ExecContext(ctx,
		`UPDATE companies SET sector = ?, stage = ?, profile = ?, updated_at = ? WHERE id = ?`,
		company.Sector, company.Stage, string(profileJSON), now, existing,
	)
	if err != nil {
		return "", eris.Wrapf(err, "sqlite: update company %s", company.Name)
	}
	return existing, nil
}

func (w *SQLiteWarehouse) GetCompany(ctx context.Context, name string) (*model.Company, error) {
	var profileJSON string
	err := w.db.QueryRowContext(ctx,
		`SELECT profile FROM companies WHERE LOWER(name) = LOWER(?) LIMIT 1`,
		name,
	).Scan(&profileJSON)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: get company %s", name)
	}

	var company model.Company
	if err := json.Unmarshal([]byte(profileJSON), &company); err != nil {
		return nil, eris.Wrap(err, "sqlite: unmarshal company")
	}
	return &company, nil
}

func (w *SQLiteWarehouse) ListCompanies(ctx context.Context, filter CompanyFilter) ([]model.Company, error) {
	query := `SELECT profile FROM companies WHERE 1=1`
	var args []any

	if filter.Sector != "" {
		query += ` AND sector = ?`
		args = append(args, filter.Sector)
	}
	query += ` ORDER BY name ASC`

	limit := filter.Limit
	if limit <= 0 {
		limit = 100
	}
	query += ` LIMIT ?`
	args = append(args, limit)

	rows, err := w.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list companies")
	}
	defer rows.Close()

	var companies []model.Company
	for rows.Next() {
		var profileJSON string
		if err := rows.Scan(&profileJSON); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan company")
		}
		var company model.Company
		if err := json.Unmarshal([]byte(profileJSON), &company); err != nil {
			return nil, eris.Wrap(err, "sqlite: unmarshal company")
		}
		companies = append(companies, company)
	}
	return companies, eris.Wrap(rows.Err(), "sqlite: list companies iterate")
}

func (w *SQLiteWarehouse) CompanyID(ctx context.Context, name string) (string, error) {
	var id string
	err := w.db.QueryRowContext(ctx,
		`SELECT id FROM companies WHERE LOWER(name) = LOWER(?) LIMIT 1`,
		name,
	).Scan(&id)
	if err == sql.ErrNoRows {
		return FallbackCompanyID(name), nil
	}
	if err != nil {
		return "", eris.Wrapf(err, "sqlite: resolve company id %s", name)
	}
	return id, nil
}
