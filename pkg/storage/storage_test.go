package storage

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/adlint/adlint/pkg/checks"
	"github.com/adlint/adlint/pkg/report"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := Open(filepath.Join(t.TempDir(), "history.sqlite"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func sampleResult(name string, summary checks.Severity) report.BundleResult {
	return report.BundleResult{
		BundleID:        "bundle-" + name,
		BundleName:      name,
		Primary:         "index.html",
		TotalBytes:      1000,
		InitialBytes:    800,
		SubsequentBytes: 200,
		ZippedBytes:     400,
		InitialRequests: 3,
		Summary:         summary,
		Findings: []checks.Finding{
			{ID: "packaging", Title: "Packaging hygiene", Severity: checks.Pass,
				Messages: []string{"All files are accepted types"}},
			{ID: "orphanAssets", Title: "Orphaned assets", Severity: summary,
				Messages:  []string{"1 file(s) not reachable"},
				Offenders: []checks.Offender{{Path: "unused.png", Detail: "never referenced"}}},
		},
		GeneratedAt: time.Now().UTC(),
	}
}

func TestSaveAndListRuns(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	runID, err := db.SaveResult(ctx, sampleResult("creative-a.zip", checks.Warn))
	if err != nil {
		t.Fatalf("SaveResult: %v", err)
	}
	if _, err := db.SaveResult(ctx, sampleResult("creative-b.zip", checks.Pass)); err != nil {
		t.Fatalf("SaveResult: %v", err)
	}

	runs, err := db.ListRuns(ctx, ListOptions{})
	if err != nil {
		t.Fatalf("ListRuns: %v", err)
	}
	if len(runs) != 2 {
		t.Fatalf("got %d runs", len(runs))
	}

	runs, err = db.ListRuns(ctx, ListOptions{BundleFilter: "creative-a"})
	if err != nil {
		t.Fatalf("ListRuns filtered: %v", err)
	}
	if len(runs) != 1 || runs[0].BundleName != "creative-a.zip" {
		t.Errorf("filtered runs = %+v", runs)
	}
	if runs[0].Summary != "WARN" || runs[0].InitialBytes != 800 {
		t.Errorf("run record = %+v", runs[0])
	}

	runs, err = db.ListRuns(ctx, ListOptions{Severity: "PASS"})
	if err != nil {
		t.Fatalf("ListRuns by severity: %v", err)
	}
	if len(runs) != 1 || runs[0].BundleName != "creative-b.zip" {
		t.Errorf("severity runs = %+v", runs)
	}

	findings, err := db.RunFindings(ctx, runID)
	if err != nil {
		t.Fatalf("RunFindings: %v", err)
	}
	if len(findings) != 2 {
		t.Fatalf("got %d findings", len(findings))
	}
	if findings[1].CheckID != "orphanAssets" || findings[1].Severity != "WARN" {
		t.Errorf("finding = %+v", findings[1])
	}
	if findings[1].Offenders != "unused.png: never referenced" {
		t.Errorf("offenders = %q", findings[1].Offenders)
	}
}

func TestGetStats(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	for _, s := range []checks.Severity{checks.Pass, checks.Pass, checks.Fail} {
		if _, err := db.SaveResult(ctx, sampleResult("c.zip", s)); err != nil {
			t.Fatalf("SaveResult: %v", err)
		}
	}
	stats, err := db.GetStats(ctx)
	if err != nil {
		t.Fatalf("GetStats: %v", err)
	}
	byStatus := map[string]int{}
	for _, s := range stats {
		byStatus[s.Summary] = s.RunCount
	}
	if byStatus["PASS"] != 2 || byStatus["FAIL"] != 1 {
		t.Errorf("stats = %v", byStatus)
	}
}

func TestListRunsLimit(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	for i := 0; i < 5; i++ {
		if _, err := db.SaveResult(ctx, sampleResult("c.zip", checks.Pass)); err != nil {
			t.Fatalf("SaveResult: %v", err)
		}
	}
	runs, err := db.ListRuns(ctx, ListOptions{Limit: 2})
	if err != nil {
		t.Fatalf("ListRuns: %v", err)
	}
	if len(runs) != 2 {
		t.Errorf("limit ignored: %d runs", len(runs))
	}
}
