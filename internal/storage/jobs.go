package db

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgtype"

	"github.com/lueurxax/job-digest-notifier/internal/core/domain"
	"github.com/lueurxax/job-digest-notifier/internal/core/ports"
)

var _ ports.JobRepository = (*DB)(nil)

// buildPendingJobsQuery selects unnotified rows of one job table, oldest
// first. Parameters: $1 limit, $2 created-after (only when withCutoff).
func buildPendingJobsQuery(cols JobColumns, withCutoff bool) string {
	var sb strings.Builder

	sb.WriteString("SELECT id, ")
	sb.WriteString(textExpr(cols.Title) + ", ")
	sb.WriteString(textExpr(cols.Company) + ", ")
	sb.WriteString(textExpr(cols.Location) + ", ")
	sb.WriteString(textExpr(cols.LocationType) + ", ")
	sb.WriteString(boolExpr(cols.IsRemote) + ", ")
	sb.WriteString(textExpr(cols.Experience) + ", ")
	sb.WriteString(textExpr(cols.JobType) + ", ")
	sb.WriteString(textExpr(cols.ApplyURL) + ", ")
	sb.WriteString(timestampExpr(cols.CreatedAt) + ", ")
	sb.WriteString(timestampExpr(cols.NotifySentAt))
	sb.WriteString(" FROM " + quoteIdent(cols.Table))
	sb.WriteString(pendingWhere(cols, withCutoff, "$2"))
	sb.WriteString(" ORDER BY " + quoteIdent(cols.CreatedAt) + " ASC, id ASC LIMIT $1")

	return sb.String()
}

func buildCountPendingQuery(cols JobColumns, withCutoff bool) string {
	return "SELECT COUNT(*)::int FROM " + quoteIdent(cols.Table) + pendingWhere(cols, withCutoff, "$1")
}

func pendingWhere(cols JobColumns, withCutoff bool, cutoffParam string) string {
	where := " WHERE COALESCE(" + quoteIdent(cols.NotifySent) + ", false) = false"
	if withCutoff {
		where += " AND " + quoteIdent(cols.CreatedAt) + " >= " + cutoffParam
	}

	return where
}

// buildMarkNotifiedQuery flips the notify flag for the ids in $1 that are not
// yet notified, so repeated calls are no-ops.
func buildMarkNotifiedQuery(cols JobColumns) string {
	set := quoteIdent(cols.NotifySent) + " = true"
	if cols.NotifySentAt != "" {
		set += ", " + quoteIdent(cols.NotifySentAt) + " = NOW()"
	}

	return "UPDATE " + quoteIdent(cols.Table) + " SET " + set +
		" WHERE id = ANY($1) AND COALESCE(" + quoteIdent(cols.NotifySent) + ", false) = false"
}

// FetchPendingJobs reads unnotified jobs from both tables, tags them with their
// source and returns at most q.Limit of them, oldest first.
func (db *DB) FetchPendingJobs(ctx context.Context, q ports.PendingJobsQuery) ([]domain.Job, error) {
	var all []domain.Job

	for _, source := range domain.Sources {
		cols := db.jobColumns(ctx, sourceTables[source])
		if !cols.Present {
			db.Logger.Debug().Str(logFieldSource, string(source)).Msg("job table absent, skipping source")

			continue
		}

		jobs, err := db.fetchPendingFrom(ctx, source, cols, q)
		if err != nil {
			return nil, err
		}

		all = append(all, jobs...)
	}

	domain.SortOldestFirst(all)

	if q.Limit > 0 && len(all) > q.Limit {
		all = all[:q.Limit]
	}

	return all, nil
}

func (db *DB) fetchPendingFrom(ctx context.Context, source domain.Source, cols JobColumns, q ports.PendingJobsQuery) ([]domain.Job, error) {
	limit := q.Limit
	if limit <= 0 {
		limit = defaultPendingLimit
	}

	args := []any{limit}
	if q.CreatedAfter != nil {
		args = append(args, *q.CreatedAfter)
	}

	rows, err := db.Pool.Query(ctx, buildPendingJobsQuery(cols, q.CreatedAfter != nil), args...)
	if err != nil {
		return nil, fmt.Errorf("query pending %s jobs: %w", source, err)
	}
	defer rows.Close()

	jobs := make([]domain.Job, 0, limit)

	for rows.Next() {
		job := domain.Job{Source: source}

		var createdAt, notifySentAt pgtype.Timestamptz

		if err := rows.Scan(
			&job.ID,
			&job.Title,
			&job.CompanyName,
			&job.Location,
			&job.LocationType,
			&job.IsRemote,
			&job.Experience,
			&job.JobType,
			&job.ApplyURL,
			&createdAt,
			&notifySentAt,
		); err != nil {
			return nil, fmt.Errorf("scan pending %s job: %w", source, err)
		}

		job.CreatedAt = fromTimestamptz(createdAt)

		if notifySentAt.Valid {
			t := notifySentAt.Time
			job.NotifySentAt = &t
		}

		jobs = append(jobs, normalizeJob(job))
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate pending %s jobs: %w", source, err)
	}

	return jobs, nil
}

// normalizeJob trims text fields and derives IsRemote from the location type
// when the table has no boolean column for it.
func normalizeJob(job domain.Job) domain.Job {
	job.Title = strings.TrimSpace(job.Title)
	job.CompanyName = strings.TrimSpace(job.CompanyName)
	job.Location = strings.TrimSpace(job.Location)
	job.LocationType = strings.TrimSpace(job.LocationType)
	job.Experience = strings.TrimSpace(job.Experience)
	job.JobType = strings.TrimSpace(job.JobType)
	job.ApplyURL = strings.TrimSpace(job.ApplyURL)

	if !job.IsRemote && strings.Contains(strings.ToLower(job.LocationType), "remote") {
		job.IsRemote = true
	}

	return job
}

// CountPendingJobs counts the unnotified backlog per table.
func (db *DB) CountPendingJobs(ctx context.Context, createdAfter *time.Time) (domain.PendingCounts, error) {
	var counts domain.PendingCounts

	for _, source := range domain.Sources {
		cols := db.jobColumns(ctx, sourceTables[source])
		if !cols.Present {
			continue
		}

		var args []any
		if createdAfter != nil {
			args = append(args, *createdAfter)
		}

		var n int
		if err := db.Pool.QueryRow(ctx, buildCountPendingQuery(cols, createdAfter != nil), args...).Scan(&n); err != nil {
			return domain.PendingCounts{}, fmt.Errorf("count pending %s jobs: %w", source, err)
		}

		if source == domain.SourcePrimary {
			counts.Jobs = n
		} else {
			counts.AIJobs = n
		}
	}

	counts.Total = counts.Jobs + counts.AIJobs

	return counts, nil
}

// MarkJobsNotified sets the notify flag for exactly the ids given, one UPDATE
// per source inside a single transaction. Already-notified ids are skipped.
func (db *DB) MarkJobsNotified(ctx context.Context, ids domain.JobIDsBySource) (map[domain.Source]int, error) {
	updated := make(map[domain.Source]int, len(ids))

	if ids.Total() == 0 {
		return updated, nil
	}

	tx, err := db.Pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin transaction: %w", err)
	}

	defer func() {
		_ = tx.Rollback(ctx) //nolint:errcheck // rollback after commit returns error, this is best-effort cleanup
	}()

	for _, source := range domain.Sources {
		list := ids[source]
		if len(list) == 0 {
			continue
		}

		cols := db.jobColumns(ctx, sourceTables[source])
		if !cols.Present {
			return nil, fmt.Errorf("mark %s jobs notified: table %s not found", source, cols.Table)
		}

		tag, err := tx.Exec(ctx, buildMarkNotifiedQuery(cols), list)
		if err != nil {
			return nil, fmt.Errorf("mark %s jobs notified: %w", source, err)
		}

		updated[source] = int(tag.RowsAffected())

		db.Logger.Debug().
			Str(logFieldSource, string(source)).
			Int(logFieldCount, updated[source]).
			Str("ids", joinIDs(list)).
			Msg("marked jobs notified")
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit transaction: %w", err)
	}

	return updated, nil
}

func joinIDs(ids []int64) string {
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = strconv.FormatInt(id, 10)
	}

	return strings.Join(parts, ",")
}
