package warehouse

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"

	"github.com/ascentvc/diligence-cli/internal/model"
)

// Pool is the subset of pgxpool.Pool the warehouse needs. pgxmock
// satisfies it in tests.
type Pool interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Ping(ctx context.Context) error
	Close()
}

// PostgresWarehouse implements Warehouse using pgxpool.
type PostgresWarehouse struct {
	pool Pool
}

// PoolConfig holds optional connection pool tuning parameters.
type PoolConfig struct {
	MaxConns int32 `yaml:"max_conns" mapstructure:"max_conns"`
	MinConns int32 `yaml:"min_conns" mapstructure:"min_conns"`
}

// preparedStatements lists queries to prepare on each new connection for
// the hot path of saving and retrieving analyses.
var preparedStatements = map[string]string{
	"insert_analysis": `INSERT INTO analyses (id, company_id, company_name, kind, score, summary, detail, processing_status, created_at) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
	"latest_analysis": `SELECT id, company_id, company_name, kind, score, summary, detail, processing_status, created_at FROM analyses WHERE company_id = $1 AND kind = $2 ORDER BY created_at DESC LIMIT 1`,
	"company_id":      `SELECT id FROM companies WHERE LOWER(name) = LOWER($1) LIMIT 1`,
	"get_company":     `SELECT profile FROM companies WHERE LOWER(name) = LOWER($1) LIMIT 1`,
}

// NewPostgres creates a PostgresWarehouse with a connection pool.
func NewPostgres(ctx context.Context, connString string, poolCfg *PoolConfig) (*PostgresWarehouse, error) {
	pgxCfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, eris.Wrap(err, "warehouse: parse config")
	}

	maxConns := int32(10)
	minConns := int32(2)
	if poolCfg != nil {
		if poolCfg.MaxConns > 0 {
			maxConns = poolCfg.MaxConns
		}
		if poolCfg.MinConns > 0 {
			minConns = poolCfg.MinConns
		}
	}
	pgxCfg.MaxConns = maxConns
	pgxCfg.MinConns = minConns
	pgxCfg.MaxConnLifetime = 30 * time.Minute
	pgxCfg.MaxConnIdleTime = 5 * time.Minute

	pgxCfg.AfterConnect = func(ctx context.Context, conn *pgx.Conn) error {
		for name, sql := range preparedStatements {
			if _, err := conn.Prepare(ctx, name, sql); err != nil {
				return eris.Wrapf(err, "warehouse: prepare %s", name)
			}
		}
		return nil
	}

	pool, err := pgxpool.NewWithConfig(ctx, pgxCfg)
	if err != nil {
		return nil, eris.Wrap(err, "warehouse: create pool")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "warehouse: ping")
	}
	return &PostgresWarehouse{pool: pool}, nil
}

const postgresMigration = `
CREATE TABLE IF NOT EXISTS companies (
	id         TEXT PRIMARY KEY DEFAULT gen_random_uuid()::text,
	name       TEXT NOT NULL UNIQUE,
	sector     TEXT NOT NULL DEFAULT '',
	stage      TEXT NOT NULL DEFAULT '',
	profile    JSONB NOT NULL,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_companies_lower_name ON companies(LOWER(name));
CREATE INDEX IF NOT EXISTS idx_companies_sector ON companies(sector);

CREATE TABLE IF NOT EXISTS analyses (
	id                TEXT PRIMARY KEY DEFAULT gen_random_uuid()::text,
	company_id        TEXT NOT NULL,
	company_name      TEXT NOT NULL,
	kind              TEXT NOT NULL,
	score             DOUBLE PRECISION NOT NULL DEFAULT 0,
	summary           TEXT NOT NULL DEFAULT '',
	detail            JSONB NOT NULL,
	processing_status TEXT NOT NULL DEFAULT 'complete',
	created_at        TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_analyses_company_kind_created ON analyses(company_id, kind, created_at DESC);
CREATE INDEX IF NOT EXISTS idx_analyses_company_name ON analyses(company_name);
`

func (w *PostgresWarehouse) Ping(ctx context.Context) error {
	_, err := w.pool.Exec(ctx, "SELECT 1")
	return eris.Wrap(err, "warehouse: ping")
}

func (w *PostgresWarehouse) Migrate(ctx context.Context) error {
	_, err := w.pool.Exec(ctx, postgresMigration)
	return eris.Wrap(err, "warehouse: migrate")
}

func (w *PostgresWarehouse) Close() error {
	if w.pool != nil {
		w.pool.Close()
	}
	return nil
}

func (w *PostgresWarehouse) SaveAnalysis(ctx context.Context, rec *Record) error {
	if rec.ID == "" {
		rec.ID = uuid.New().String()
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now().UTC()
	}
	if rec.ProcessingStatus == "" {
		rec.ProcessingStatus = string(model.RunStatusComplete)
	}

	_, err := w.pool.Exec(ctx,
		`INSERT INTO analyses (id, company_id, company_name, kind, score, summary, detail, processing_status, created_at) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		rec.ID, rec.CompanyID, rec.CompanyName, string(rec.Kind),
		rec.Score, rec.Summary, rec.Detail, rec.ProcessingStatus, rec.CreatedAt,
	)
	return eris.Wrapf(err, "warehouse: insert %s analysis for %s", rec.Kind, rec.CompanyName)
}

func (w *PostgresWarehouse) LatestAnalysis(ctx context.Context, companyID string, kind Kind) (*Record, error) {
	var rec Record
	err := w.pool.QueryRow(ctx,
		`SELECT id, company_id, company_name, kind, score, summary, detail, processing_status, created_at FROM analyses
		 WHERE company_id = $1 AND kind = $2
		 ORDER BY created_at DESC LIMIT 1`,
		companyID, string(kind),
	).Scan(&rec.ID, &rec.CompanyID, &rec.CompanyName, &rec.Kind,
		&rec.Score, &rec.Summary, &rec.Detail, &rec.ProcessingStatus, &rec.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, eris.Wrapf(err, "warehouse: latest %s analysis for %s", kind, companyID)
	}
	return &rec, nil
}

func (w *PostgresWarehouse) CreateCompany(ctx context.Context, company model.Company) (string, error) {
	id := uuid.New().String()
	now := time.Now().UTC()

	profileJSON, err := json.Marshal(company)
	if err != nil {
		return "", eris.Wrap(err, "warehouse: marshal company")
	}

	var returnedID string
	err = w.pool.QueryRow(ctx,
		`INSERT INTO companies (id, name, sector, stage, profile, created_at, updated_at) VALUES ($1, $2, $3, $4, $5, $6, $7)
		 ON CONFLICT (name) DO UPDATE SET sector = $3, stage = $4, profile = $5, updated_at = $7
		 RETURNING id`,
		id, company.Name, company.Sector, company.Stage, profileJSON, now, now,
	).Scan(&returnedID)
	if err != nil {
		return "", eris.Wrapf(err, "warehouse: upsert company %s", company.Name)
	}
	return returnedID, nil
}

func (w *PostgresWarehouse) GetCompany(ctx context.Context, name string) (*model.Company, error) {
	var profileJSON []byte
	err := w.pool.QueryRow(ctx,
		`SELECT profile FROM companies WHERE LOWER(name) = LOWER($1) LIMIT 1`,
		name,
	).Scan(&profileJSON)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, eris.Wrapf(err, "warehouse: get company %s", name)
	}

	var company model.Company
	if err := json.Unmarshal(profileJSON, &company); err != nil {
		return nil, eris.Wrap(err, "warehouse: unmarshal company")
	}
	return &company, nil
}

func (w *PostgresWarehouse) ListCompanies(ctx context.Context, filter CompanyFilter) ([]model.Company, error) {
	query := `SELECT profile FROM companies WHERE true`
	args := []any{}
	argIdx := 1

	if filter.Sector != "" {
		query += fmt.Sprintf(` AND sector = $%d`, argIdx)
		args = append(args, filter.Sector)
		argIdx++
	}
	query += ` ORDER BY name ASC`

	limit := filter.Limit
	if limit <= 0 {
		limit = 100
	}
	query += fmt.Sprintf(` LIMIT $%d`, argIdx)
	args = append(args, limit)

	rows, err := w.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "warehouse: list companies")
	}
	defer rows.Close()

	var companies []model.Company
	for rows.Next() {
		var profileJSON []byte
		if err := rows.Scan(&profileJSON); err != nil {
			return nil, eris.Wrap(err, "warehouse: scan company")
		}
		var company model.Company
		if err := json.Unmarshal(profileJSON, &company); err != nil {
			return nil, eris.Wrap(err, "warehouse: unmarshal company")
		}
		companies = append(companies, company)
	}
	return companies, eris.Wrap(rows.Err(), "warehouse: list companies iterate")
}

// CompanyID resolves a company name to its registry id. Unregistered
// companies get a deterministic placeholder id so analyses are still
// grouped per company.
func (w *PostgresWarehouse) CompanyID(ctx context.Context, name string) (string, error) {
	var id string
	err := w.pool.QueryRow(ctx,
		`SELECT id FROM companies WHERE LOWER(name) = LOWER($1) LIMIT 1`,
		name,
	).Scan(&id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return FallbackCompanyID(name), nil
		}
		return "", eris.Wrapf(err, "warehouse: resolve company id %s", name)
	}
	return id, nil
}
