package source

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"strings"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib" // pgx database/sql driver
	"github.com/leapstack-labs/leapcatalog/internal/model"
)

// PostgresConfig holds connection settings for a PostgreSQL source.
type PostgresConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	Database string
	SSLMode  string
}

// Postgres lists stored procedures and functions from a PostgreSQL
// database via the system catalogs.
type Postgres struct {
	db     *sql.DB
	cfg    PostgresConfig
	logger *slog.Logger
}

// NewPostgres creates a postgres source. Connect must be called before
// listing. If logger is nil, a discard logger is used.
func NewPostgres(cfg PostgresConfig, logger *slog.Logger) *Postgres {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Postgres{cfg: cfg, logger: logger}
}

// NewPostgresWithDB wraps an existing connection. Used by tests.
func NewPostgresWithDB(db *sql.DB, logger *slog.Logger) *Postgres {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Postgres{db: db, logger: logger}
}

// Connect opens and verifies the database connection.
func (p *Postgres) Connect(ctx context.Context) error {
	dsn := buildDSN(p.cfg)

	p.logger.Debug("connecting to postgres", slog.String("host", p.cfg.Host), slog.String("database", p.cfg.Database))

	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return fmt.Errorf("failed to open postgres connection: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return fmt.Errorf("failed to ping postgres: %w", err)
	}

	p.db = db
	return nil
}

func buildDSN(cfg PostgresConfig) string {
	host := cfg.Host
	if host == "" {
		host = "localhost"
	}
	port := cfg.Port
	if port == 0 {
		port = 5432
	}
	sslmode := cfg.SSLMode
	if sslmode == "" {
		sslmode = "disable"
	}

	dsn := fmt.Sprintf("host=%s port=%d dbname=%s sslmode=%s", host, port, cfg.Database, sslmode)
	if cfg.User != "" {
		dsn += fmt.Sprintf(" user=%s", cfg.User)
	}
	if cfg.Password != "" {
		dsn += fmt.Sprintf(" password=%s", cfg.Password)
	}
	return dsn
}

const listProceduresQuery = `
	SELECT
		n.nspname,
		p.proname,
		l.lanname,
		pg_get_functiondef(p.oid),
		COALESCE(d.description, ''),
		pg_get_userbyid(p.proowner),
		COALESCE(pg_get_function_result(p.oid), ''),
		pg_get_function_arguments(p.oid)
	FROM pg_proc p
	JOIN pg_namespace n ON n.oid = p.pronamespace
	JOIN pg_language l ON l.oid = p.prolang
	LEFT JOIN pg_description d ON d.objoid = p.oid
	WHERE p.prokind IN ('p', 'f')
	  AND n.nspname NOT IN ('pg_catalog', 'information_schema')
	ORDER BY n.nspname, p.proname
`

// ListProcedures implements Source.
func (p *Postgres) ListProcedures(ctx context.Context, db string) ([]Procedure, error) {
	if p.db == nil {
		return nil, fmt.Errorf("postgres source not connected")
	}

	start := time.Now()
	rows, err := p.db.QueryContext(ctx, listProceduresQuery)
	if err != nil {
		return nil, fmt.Errorf("failed to list procedures: %w", err)
	}
	defer rows.Close()

	var procs []Procedure
	for rows.Next() {
		var proc Procedure
		var args string
		if err := rows.Scan(&proc.Schema, &proc.Name, &proc.Language, &proc.Definition,
			&proc.Comment, &proc.Owner, &proc.ReturnType, &args); err != nil {
			return nil, fmt.Errorf("failed to scan procedure row: %w", err)
		}
		proc.Parameters = parseArguments(args)
		procs = append(procs, proc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate procedure rows: %w", err)
	}

	p.logger.Debug("listed procedures",
		slog.String("database", db),
		slog.Int("count", len(procs)),
		slog.Duration("elapsed", time.Since(start)))

	return procs, nil
}

// Close implements Source.
func (p *Postgres) Close() error {
	if p.db != nil {
		return p.db.Close()
	}
	return nil
}

// parseArguments parses the pg_get_function_arguments output, e.g.
// "IN product_id integer, OUT total numeric DEFAULT 0".
func parseArguments(args string) []model.ProcedureParameter {
	args = strings.TrimSpace(args)
	if args == "" {
		return nil
	}

	var params []model.ProcedureParameter
	for _, part := range splitTopLevel(args) {
		words := strings.Fields(part)
		if len(words) == 0 {
			continue
		}

		var param model.ProcedureParameter
		switch strings.ToUpper(words[0]) {
		case "IN", "OUT", "INOUT", "VARIADIC":
			param.Direction = strings.ToUpper(words[0])
			words = words[1:]
		}
		if len(words) == 0 {
			continue
		}

		param.Name = words[0]
		words = words[1:]

		// Anything up to DEFAULT is the type.
		var typeWords []string
		for i := 0; i < len(words); i++ {
			if strings.EqualFold(words[i], "DEFAULT") {
				param.DefaultValue = strings.Join(words[i+1:], " ")
				break
			}
			typeWords = append(typeWords, words[i])
		}
		param.Type = strings.Join(typeWords, " ")

		params = append(params, param)
	}
	return params
}

// splitTopLevel splits on commas outside parentheses, so types like
// numeric(10,2) stay intact.
func splitTopLevel(s string) []string {
	var parts []string
	depth, start := 0, 0
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '(':
			depth++
		case ')':
			depth--
		case ',':
			if depth == 0 {
				parts = append(parts, strings.TrimSpace(s[start:i]))
				start = i + 1
			}
		}
	}
	parts = append(parts, strings.TrimSpace(s[start:]))
	return parts
}
