package cli

import (
	"bufio"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/ppiankov/factgate/internal/model"
)

func TestLoadInputs(t *testing.T) {
	dir := t.TempDir()

	draft := model.ArticleDraft{
		Title:        "Test draft",
		Body:         "Body text. [S1]",
		Regulations:  []string{"GDPR"},
		QualityScore: 80,
	}
	evidence := []model.EvidenceItem{
		{ID: "S1", URL: "https://example.com", Domain: "example.com"},
	}

	draftPath := filepath.Join(dir, "draft.json")
	evidencePath := filepath.Join(dir, "evidence.json")
	writeJSON(t, draftPath, draft)
	writeJSON(t, evidencePath, evidence)

	gotDraft, gotEvidence, err := loadInputs(draftPath, evidencePath)
	if err != nil {
		t.Fatalf("loadInputs failed: %v", err)
	}
	if gotDraft.Title != "Test draft" || gotDraft.QualityScore != 80 {
		t.Errorf("unexpected draft: %+v", gotDraft)
	}
	if len(gotEvidence) != 1 || gotEvidence[0].ID != "S1" {
		t.Errorf("unexpected evidence: %+v", gotEvidence)
	}
}

func TestLoadInputs_Errors(t *testing.T) {
	dir := t.TempDir()
	good := filepath.Join(dir, "good.json")
	writeJSON(t, good, model.ArticleDraft{Title: "x"})

	bad := filepath.Join(dir, "bad.json")
	if err := os.WriteFile(bad, []byte("not json"), 0644); err != nil {
		t.Fatal(err)
	}

	if _, _, err := loadInputs(filepath.Join(dir, "missing.json"), good); err == nil {
		t.Error("expected error for missing draft file")
	}
	if _, _, err := loadInputs(bad, good); err == nil {
		t.Error("expected error for malformed draft JSON")
	}
	if _, _, err := loadInputs(good, bad); err == nil {
		t.Error("expected error for malformed evidence JSON")
	}
}

func TestFileCorrectionLog_AppendsJSONL(t *testing.T) {
	path := filepath.Join(t.TempDir(), "corrections.jsonl")
	log := &fileCorrectionLog{path: path}

	entries := []model.CorrectionEntry{
		{ID: "1", Slug: "first-article", Kind: model.CorrectionHold, Reasons: []string{"r1"}, CreatedAt: time.Now().UTC()},
		{ID: "2", Slug: "second-article", Kind: model.CorrectionContradiction, Reasons: []string{"r2"}, CreatedAt: time.Now().UTC()},
	}
	for _, e := range entries {
		if err := log.Append(context.Background(), e); err != nil {
			t.Fatalf("Append failed: %v", err)
		}
	}

	file, err := os.Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer file.Close()

	var got []model.CorrectionEntry
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		var e model.CorrectionEntry
		if err := json.Unmarshal(scanner.Bytes(), &e); err != nil {
			t.Fatalf("line is not valid JSON: %v", err)
		}
		got = append(got, e)
	}

	if len(got) != 2 {
		t.Fatalf("expected 2 lines, got %d", len(got))
	}
	if got[0].Slug != "first-article" || got[1].Slug != "second-article" {
		t.Errorf("entries out of order or corrupted: %+v", got)
	}
}

func TestWriteReport_ToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "report.json")
	report := &model.ReviewReport{
		RunID: "run-1",
		Title: "Test",
		Slug:  "test",
		Decision: model.PublishDecision{
			Decision: model.DecisionPublish,
			Reasons:  []string{"all publish thresholds met"},
		},
	}

	if err := writeReport(report, path); err != nil {
		t.Fatalf("writeReport failed: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	var got model.ReviewReport
	if err := json.Unmarshal(data, &got); err != nil {
		t.Fatalf("report is not valid JSON: %v", err)
	}
	if got.RunID != "run-1" || got.Decision.Decision != model.DecisionPublish {
		t.Errorf("unexpected report round-trip: %+v", got)
	}
}

func writeJSON(t *testing.T, path string, v interface{}) {
	t.Helper()
	data, err := json.Marshal(v)
	if err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		t.Fatal(err)
	}
}
