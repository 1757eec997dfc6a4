package db

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
)

// JobColumns maps the logical job fields onto the physical columns of one job
// table. An empty field means the table has no such column and the query
// selects a typed NULL instead.
type JobColumns struct {
	Table        string
	Present      bool
	Title        string
	Company      string
	Location     string
	LocationType string
	IsRemote     string
	Experience   string
	JobType      string
	ApplyURL     string
	CreatedAt    string
	NotifySent   string
	NotifySentAt string
}

// columnCandidates lists known physical names for each logical field, most
// common first.
var columnCandidates = struct {
	Title, Company, Location, LocationType, IsRemote, Experience, JobType, ApplyURL, CreatedAt, NotifySent, NotifySentAt []string
}{
	Title:        []string{"title", "job_title"},
	Company:      []string{"company_name", "company", "employer"},
	Location:     []string{"location", "job_location"},
	LocationType: []string{"location_type", "work_mode", "workplace_type"},
	IsRemote:     []string{"is_remote", "remote"},
	Experience:   []string{"experience_level", "experience", "experience_required"},
	JobType:      []string{"job_type", "employment_type", "type"},
	ApplyURL:     []string{"apply_url", "job_url", "url", "link"},
	CreatedAt:    []string{"created_at", "posted_at"},
	NotifySent:   []string{"notify_sent", "notification_sent"},
	NotifySentAt: []string{"notify_sent_at", "notification_sent_at"},
}

// defaultJobColumns is used when schema introspection fails.
var defaultJobColumns = map[string]JobColumns{
	tableJobs: {
		Table:        tableJobs,
		Present:      true,
		Title:        "title",
		Company:      "company_name",
		Location:     "location",
		LocationType: "location_type",
		IsRemote:     "is_remote",
		Experience:   "experience_level",
		JobType:      "job_type",
		ApplyURL:     "apply_url",
		CreatedAt:    "created_at",
		NotifySent:   "notify_sent",
		NotifySentAt: "notify_sent_at",
	},
	tableAIJobs: {
		Table:        tableAIJobs,
		Present:      true,
		Title:        "job_title",
		Company:      "company",
		Location:     "location",
		LocationType: "work_mode",
		Experience:   "experience",
		JobType:      "employment_type",
		ApplyURL:     "job_url",
		CreatedAt:    "created_at",
		NotifySent:   "notify_sent",
		NotifySentAt: "notify_sent_at",
	},
}

// ResolveJobColumns builds the column mapping of table from the set of column
// names the table actually has. A table with no columns is reported as not
// present. The notify and created-at columns fall back to the defaults so a
// schema without them fails loudly instead of matching every row.
func ResolveJobColumns(table string, present map[string]bool) JobColumns {
	def := defaultJobColumns[table]
	if len(present) == 0 {
		return JobColumns{Table: table}
	}

	pick := func(candidates []string) string {
		for _, c := range candidates {
			if present[c] {
				return c
			}
		}

		return ""
	}

	cols := JobColumns{
		Table:        table,
		Present:      true,
		Title:        pick(columnCandidates.Title),
		Company:      pick(columnCandidates.Company),
		Location:     pick(columnCandidates.Location),
		LocationType: pick(columnCandidates.LocationType),
		IsRemote:     pick(columnCandidates.IsRemote),
		Experience:   pick(columnCandidates.Experience),
		JobType:      pick(columnCandidates.JobType),
		ApplyURL:     pick(columnCandidates.ApplyURL),
		CreatedAt:    pick(columnCandidates.CreatedAt),
		NotifySent:   pick(columnCandidates.NotifySent),
		NotifySentAt: pick(columnCandidates.NotifySentAt),
	}

	if cols.CreatedAt == "" {
		cols.CreatedAt = def.CreatedAt
	}

	if cols.NotifySent == "" {
		cols.NotifySent = def.NotifySent
	}

	return cols
}

// jobColumns returns the cached mapping for table, introspecting the schema on
// first use.
func (db *DB) jobColumns(ctx context.Context, table string) JobColumns {
	db.columnsOnce.Do(func() {
		db.columns = db.introspectJobColumns(ctx)
	})

	return db.columns[table]
}

func (db *DB) introspectJobColumns(ctx context.Context) map[string]JobColumns {
	out := make(map[string]JobColumns, len(defaultJobColumns))

	present, err := db.listColumns(ctx, tableJobs, tableAIJobs)
	if err != nil {
		db.Logger.Warn().Err(err).Msg("column introspection failed, using default job columns")

		for table, cols := range defaultJobColumns {
			out[table] = cols
		}

		return out
	}

	for table := range defaultJobColumns {
		cols := ResolveJobColumns(table, present[table])
		out[table] = cols

		db.Logger.Debug().
			Str(logFieldTable, table).
			Bool("present", cols.Present).
			Str("experience", cols.Experience).
			Str("apply_url", cols.ApplyURL).
			Msg("resolved job columns")
	}

	return out
}

func (db *DB) listColumns(ctx context.Context, tables ...string) (map[string]map[string]bool, error) {
	rows, err := db.Pool.Query(ctx, `
		SELECT table_name, column_name
		FROM information_schema.columns
		WHERE table_schema = current_schema()
		  AND table_name = ANY($1)
	`, tables)
	if err != nil {
		return nil, fmt.Errorf("query information_schema columns: %w", err)
	}
	defer rows.Close()

	out := make(map[string]map[string]bool, len(tables))

	for rows.Next() {
		var table, column string
		if err := rows.Scan(&table, &column); err != nil {
			return nil, fmt.Errorf("scan column row: %w", err)
		}

		if out[table] == nil {
			out[table] = make(map[string]bool)
		}

		out[table][strings.ToLower(column)] = true
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate column rows: %w", err)
	}

	return out, nil
}

func quoteIdent(name string) string {
	return pgx.Identifier{name}.Sanitize()
}

func textExpr(column string) string {
	if column == "" {
		return "''"
	}

	return "COALESCE(" + quoteIdent(column) + "::text, '')"
}

func boolExpr(column string) string {
	if column == "" {
		return "false"
	}

	return "COALESCE(" + quoteIdent(column) + ", false)"
}

func timestampExpr(column string) string {
	if column == "" {
		return "NULL::timestamptz"
	}

	return quoteIdent(column)
}
