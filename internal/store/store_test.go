package store_test

import (
	"errors"
	"reflect"
	"testing"
	"time"

	"text2cypher/internal/generate"
	"text2cypher/internal/result"
	"text2cypher/internal/runner"
	"text2cypher/internal/score"
	"text2cypher/internal/store"
	"text2cypher/internal/store/storetest"
	"text2cypher/internal/testutil"
)

func sampleRun(runID string, cfg generate.Config, finished time.Time) store.RunInput {
	records := []score.Record{
		{
			QuestionID: "q2", Query: "MATCH (p:Person) RETURN p.name", ConfigID: cfg.ID(), Outcome: score.OutcomeWrongDirection, Flipped: []string{"KNOWS"}, Attempts: 1, ExecutionAttempts: 1, Rows: 3,
			Candidate: result.NormalizeRows([]any{"Ana"}, []any{"Bo"}, []any{nil}),
			Gold:      result.NormalizeRows([]any{"Mahinda"}),
		},
		{
			QuestionID: "q1", Query: "MATCH (n) RETURN count(n)", ConfigID: cfg.ID(), Outcome: score.OutcomeCorrect, Correct: true, Attempts: 2, ExecutionAttempts: 1, Rows: 1,
			Candidate: result.NormalizeRows([]any{5}),
			Gold:      result.NormalizeRows([]any{5}),
		},
		{QuestionID: "q3", ConfigID: cfg.ID(), Outcome: score.OutcomeExecutionError, Failure: score.FailureGenerationFailed, Message: "model unavailable", Attempts: 3, Gold: result.NormalizeRows([]any{1.5})},
	}
	return store.RunInput{
		RunID:      runID,
		Benchmark:  "social",
		Config:     cfg,
		Summary:    runner.Summarize(cfg.ID(), records),
		StartedAt:  finished.Add(-time.Minute),
		FinishedAt: finished,
	}
}

func TestSaveRunRoundTrip(t *testing.T) {
	db := storetest.Open(t)
	ctx := testutil.Context(t, 0)
	cfg := generate.DefaultConfig()
	finished := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	input := sampleRun("20260301T120000Z-aabbccdd", cfg, finished)

	if err := db.SaveRun(ctx, input); err != nil {
		t.Fatalf("save run: %v", err)
	}

	runs, err := db.ListRuns(ctx, 0)
	if err != nil {
		t.Fatalf("list runs: %v", err)
	}
	if len(runs) != 1 {
		t.Fatalf("expected 1 run, got %d", len(runs))
	}
	run := runs[0]
	if run.ConfigID != cfg.ID() || run.Total != 3 || run.Correct != 1 || run.Benchmark != "social" {
		t.Fatalf("unexpected run %+v", run)
	}
	if !run.FinishedAt.Equal(finished) {
		t.Fatalf("expected finished_at %v, got %v", finished, run.FinishedAt)
	}
	if !reflect.DeepEqual(run.Histogram, input.Summary.Histogram) {
		t.Fatalf("histogram mismatch: %v vs %v", run.Histogram, input.Summary.Histogram)
	}

	records, err := db.RunRecords(ctx, input.RunID)
	if err != nil {
		t.Fatalf("run records: %v", err)
	}
	if !reflect.DeepEqual(records, input.Summary.PerItem) {
		t.Fatalf("records mismatch:\n got %+v\nwant %+v", records, input.Summary.PerItem)
	}

	loaded, err := db.LoadConfig(ctx, cfg.ID())
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if loaded.ID() != cfg.ID() {
		t.Fatalf("config id changed after round trip: %s vs %s", loaded.ID(), cfg.ID())
	}
}

func TestSaveRunFingerprintsCandidates(t *testing.T) {
	db := storetest.Open(t)
	ctx := testutil.Context(t, 0)
	cfg := generate.DefaultConfig()
	base := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	for i, id := range []string{"run-a", "run-b"} {
		if err := db.SaveRun(ctx, sampleRun(id, cfg, base.Add(time.Duration(i)*time.Hour))); err != nil {
			t.Fatalf("save %s: %v", id, err)
		}
	}
	rows, err := db.DB().QueryContext(ctx,
		`SELECT question_id, count(DISTINCT candidate_fingerprint), count(candidate_fingerprint)
		 FROM score_records GROUP BY question_id ORDER BY question_id`)
	if err != nil {
		t.Fatalf("query fingerprints: %v", err)
	}
	defer rows.Close()
	got := map[string][2]int64{}
	for rows.Next() {
		var questionID string
		var distinct, total int64
		if err := rows.Scan(&questionID, &distinct, &total); err != nil {
			t.Fatalf("scan: %v", err)
		}
		got[questionID] = [2]int64{distinct, total}
	}
	if err := rows.Err(); err != nil {
		t.Fatalf("rows: %v", err)
	}
	want := map[string][2]int64{"q1": {1, 2}, "q2": {1, 2}, "q3": {0, 0}}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("expected identical candidates to share a fingerprint and failures to have none, got %v", got)
	}
}

func TestSaveConfigIsIdempotent(t *testing.T) {
	db := storetest.Open(t)
	ctx := testutil.Context(t, 0)
	cfg := generate.DefaultConfig().WithExemplars([]generate.Exemplar{{Question: "How many people?", Query: "MATCH (p:Person) RETURN count(p)"}})

	first, err := db.SaveConfig(ctx, cfg)
	if err != nil {
		t.Fatalf("save config: %v", err)
	}
	second, err := db.SaveConfig(ctx, cfg)
	if err != nil {
		t.Fatalf("save config again: %v", err)
	}
	if first != second {
		t.Fatalf("expected the same row id, got %s and %s", first, second)
	}
	other, err := db.SaveConfig(ctx, cfg.Next())
	if err != nil {
		t.Fatalf("save next config: %v", err)
	}
	if other == first {
		t.Fatalf("expected a new row for a new version")
	}
}

func TestListRunsNewestFirstWithLimit(t *testing.T) {
	db := storetest.Open(t)
	ctx := testutil.Context(t, 0)
	cfg := generate.DefaultConfig()
	base := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	for i, id := range []string{"run-a", "run-b", "run-c"} {
		if err := db.SaveRun(ctx, sampleRun(id, cfg, base.Add(time.Duration(i)*time.Hour))); err != nil {
			t.Fatalf("save %s: %v", id, err)
		}
	}
	runs, err := db.ListRuns(ctx, 2)
	if err != nil {
		t.Fatalf("list runs: %v", err)
	}
	if len(runs) != 2 || runs[0].RunID != "run-c" || runs[1].RunID != "run-b" {
		t.Fatalf("unexpected order %+v", runs)
	}

	counts, err := db.OutcomeCounts(ctx)
	if err != nil {
		t.Fatalf("outcome counts: %v", err)
	}
	if counts[cfg.ID()][score.OutcomeCorrect] != 3 || counts[cfg.ID()][score.OutcomeExecutionError] != 3 {
		t.Fatalf("unexpected counts %v", counts[cfg.ID()])
	}
}

func TestSaveRunRejectsDuplicateRunID(t *testing.T) {
	db := storetest.Open(t)
	ctx := testutil.Context(t, 0)
	input := sampleRun("run-dup", generate.DefaultConfig(), time.Now())
	if err := db.SaveRun(ctx, input); err != nil {
		t.Fatalf("save run: %v", err)
	}
	if err := db.SaveRun(ctx, input); err == nil {
		t.Fatalf("expected duplicate run id to fail")
	}
	records, err := db.RunRecords(ctx, "run-dup")
	if err != nil {
		t.Fatalf("run records: %v", err)
	}
	if len(records) != 3 {
		t.Fatalf("expected the failed save to roll back, got %d records", len(records))
	}
}

func TestNotFound(t *testing.T) {
	db := storetest.Open(t)
	ctx := testutil.Context(t, 0)
	if _, err := db.RunRecords(ctx, "missing"); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if _, err := db.LoadConfig(ctx, "missing"); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestCanonicalJSONSortsKeys(t *testing.T) {
	left, err := store.CanonicalJSON(map[string]any{"b": 1, "a": []any{map[string]any{"y": true, "x": nil}}})
	if err != nil {
		t.Fatalf("canonical: %v", err)
	}
	if string(left) != `{"a":[{"x":null,"y":true}],"b":1}` {
		t.Fatalf("unexpected canonical json %s", left)
	}
	first, _ := store.FingerprintJSON(map[string]int{"a": 1, "b": 2})
	second, _ := store.FingerprintJSON([]byte(`{"b":2,"a":1}`))
	if first != second || len(first) != 64 {
		t.Fatalf("fingerprints differ: %s %s", first, second)
	}
}

func TestSchemaConstraints(t *testing.T) {
	db := storetest.Open(t)
	ctx := testutil.Context(t, 0)
	_, err := db.DB().ExecContext(ctx,
		`INSERT INTO runs (run_id, config_id, benchmark, total, correct, accuracy, histogram, started_at, finished_at)
		 VALUES ('bad', 'c', 'b', 1, 2, 2.0, '{}', now(), now())`)
	if err == nil {
		t.Fatalf("expected check constraint violation")
	}
	_, err = db.DB().ExecContext(ctx,
		`INSERT INTO score_records (run_id, question_id, outcome, correct, query, attempts, execution_attempts, row_count)
		 VALUES ('r', 'q', 'mystery', false, '', 0, 0, 0)`)
	if err == nil {
		t.Fatalf("expected outcome check violation")
	}
}
