package duckdb

import (
	"context"
	"database/sql/driver"
	"fmt"
	"time"

	"github.com/google/uuid"
	goduckdb "github.com/marcboeker/go-duckdb"

	"github.com/vstaneva/familyvcf2fasta/internal/haplotype"
	"github.com/vstaneva/familyvcf2fasta/internal/phase"
	"github.com/vstaneva/familyvcf2fasta/internal/window"
)

// Run is one completed phasing of a child's variants.
type Run struct {
	ID         string
	CreatedAt  time.Time
	Window     window.Window
	PhaserMode string
	Correct    int
	Incorrect  int
	NoTruth    int
	HetApplied int
	Unmatched  int
}

// NewRun creates a run record from a phasing report. The run gets a fresh id.
func NewRun(w window.Window, mode string, r *phase.Report) Run {
	return Run{
		ID:         uuid.NewString(),
		CreatedAt:  time.Now().UTC(),
		Window:     w,
		PhaserMode: mode,
		Correct:    r.Correct,
		Incorrect:  r.Incorrect,
		NoTruth:    r.NoTruth,
		HetApplied: r.HetApplied,
		Unmatched:  r.Unmatched,
	}
}

// RecordRun stores a run and its inputs in one transaction, then
// bulk-appends its votes.
func (s *Store) RecordRun(ctx context.Context, run Run, inputs []Input, votes []phase.Vote) error {
	if _, err := uuid.Parse(run.ID); err != nil {
		return fmt.Errorf("invalid run id %q: %w", run.ID, err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin run: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `INSERT INTO runs VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		run.ID, run.CreatedAt, run.Window.Chrom, run.Window.Start, run.Window.End, run.PhaserMode,
		run.Correct, run.Incorrect, run.NoTruth, run.HetApplied, run.Unmatched,
	); err != nil {
		return fmt.Errorf("insert run: %w", err)
	}

	for _, in := range inputs {
		if _, err := tx.ExecContext(ctx, `INSERT INTO run_inputs VALUES (?, ?, ?, ?, ?, ?)`,
			run.ID, in.Member, in.Role, in.Path, in.Size, in.ModTime.UTC(),
		); err != nil {
			return fmt.Errorf("insert run input: %w", err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit run: %w", err)
	}

	return s.appendVotes(ctx, run.ID, votes)
}

// appendVotes batch-inserts votes using the Appender API.
func (s *Store) appendVotes(ctx context.Context, runID string, votes []phase.Vote) error {
	if len(votes) == 0 {
		return nil
	}

	conn, err := s.db.Conn(ctx)
	if err != nil {
		return fmt.Errorf("get connection: %w", err)
	}
	defer conn.Close()

	var appender *goduckdb.Appender
	if err := conn.Raw(func(driverConn any) error {
		var err error
		appender, err = goduckdb.NewAppenderFromConn(driverConn.(driver.Conn), "", "votes")
		return err
	}); err != nil {
		return fmt.Errorf("create appender: %w", err)
	}
	defer appender.Close()

	for _, v := range votes {
		if err := appender.AppendRow(
			runID, int64(v.ID), v.Chrom, v.Pos, int64(v.Tally),
			v.Before, v.After, string(v.Outcome),
		); err != nil {
			return fmt.Errorf("append vote: %w", err)
		}
	}

	return appender.Flush()
}

// Runs returns all stored runs, newest first.
func (s *Store) Runs(ctx context.Context) ([]Run, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT
		run_id, created_at, chrom, win_start, win_end, phaser_mode,
		correct, incorrect, no_truth, het_applied, unmatched
		FROM runs
		ORDER BY created_at DESC, run_id`)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var r Run
		if err := rows.Scan(
			&r.ID, &r.CreatedAt, &r.Window.Chrom, &r.Window.Start, &r.Window.End, &r.PhaserMode,
			&r.Correct, &r.Incorrect, &r.NoTruth, &r.HetApplied, &r.Unmatched,
		); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		runs = append(runs, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate runs: %w", err)
	}
	return runs, nil
}

// Inputs returns the fingerprinted inputs of a run ordered by member and role.
func (s *Store) Inputs(ctx context.Context, runID string) ([]Input, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT member, role, path, size, mod_time
		FROM run_inputs
		WHERE run_id=?
		ORDER BY member, role`, runID)
	if err != nil {
		return nil, fmt.Errorf("query run inputs: %w", err)
	}
	defer rows.Close()

	var inputs []Input
	for rows.Next() {
		var in Input
		if err := rows.Scan(&in.Member, &in.Role, &in.Path, &in.Size, &in.ModTime); err != nil {
			return nil, fmt.Errorf("scan run input: %w", err)
		}
		inputs = append(inputs, in)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate run inputs: %w", err)
	}
	return inputs, nil
}

// Votes returns the votes of a run in variant id order.
func (s *Store) Votes(ctx context.Context, runID string) ([]phase.Vote, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT variant_id, chrom, pos, tally, before_gt, after_gt, outcome
		FROM votes
		WHERE run_id=?
		ORDER BY variant_id`, runID)
	if err != nil {
		return nil, fmt.Errorf("query votes: %w", err)
	}
	defer rows.Close()

	var votes []phase.Vote
	for rows.Next() {
		var (
			v       phase.Vote
			id      int64
			tally   int64
			outcome string
		)
		if err := rows.Scan(&id, &v.Chrom, &v.Pos, &tally, &v.Before, &v.After, &outcome); err != nil {
			return nil, fmt.Errorf("scan vote: %w", err)
		}
		v.ID = haplotype.VariantID(id)
		v.Tally = int(tally)
		v.Outcome = phase.Outcome(outcome)
		votes = append(votes, v)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate votes: %w", err)
	}
	return votes, nil
}

// DeleteRun removes a run with its inputs and votes.
func (s *Store) DeleteRun(ctx context.Context, runID string) error {
	for _, table := range []string{"votes", "run_inputs", "runs"} {
		if _, err := s.db.ExecContext(ctx, "DELETE FROM "+table+" WHERE run_id=?", runID); err != nil {
			return fmt.Errorf("delete from %s: %w", table, err)
		}
	}
	return nil
}
