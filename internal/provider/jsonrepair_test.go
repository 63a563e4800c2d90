package provider

import (
	"encoding/json"
	"errors"
	"testing"
)

func TestRepair_StrictJSONPassthrough(t *testing.T) {
	in := `{"confidence": 80, "cost_feedback": "it's fine"}`
	out, err := Repair(in)
	if err != nil {
		t.Fatalf("Repair failed: %v", err)
	}
	if out != in {
		t.Errorf("valid JSON must pass through untouched, got %q", out)
	}
}

func TestRepair_CodeFences(t *testing.T) {
	in := "Here is the result:\n```json\n{\"confidence\": 75}\n```\nHope that helps."
	out, err := Repair(in)
	if err != nil {
		t.Fatalf("Repair failed: %v", err)
	}

	var payload struct {
		Confidence int `json:"confidence"`
	}
	if err := json.Unmarshal([]byte(out), &payload); err != nil {
		t.Fatalf("repaired output does not parse: %v\noutput: %s", err, out)
	}
	if payload.Confidence != 75 {
		t.Errorf("expected confidence 75, got %d", payload.Confidence)
	}
}

func TestRepair_SurroundingProse(t *testing.T) {
	in := `Sure! The verdict object is {"confidence": 60} as requested.`
	out, err := Repair(in)
	if err != nil {
		t.Fatalf("Repair failed: %v", err)
	}
	if out != `{"confidence": 60}` {
		t.Errorf("expected bare object, got %q", out)
	}
}

func TestRepair_PythonLiterals(t *testing.T) {
	in := `{'confidence': 90, 'factual_errors': None, 'ok': True, 'bad': False,}`
	out, err := Repair(in)
	if err != nil {
		t.Fatalf("Repair failed: %v", err)
	}
	if !json.Valid([]byte(out)) {
		t.Fatalf("repaired output is not valid JSON: %s", out)
	}

	var payload map[string]interface{}
	if err := json.Unmarshal([]byte(out), &payload); err != nil {
		t.Fatal(err)
	}
	if payload["ok"] != true || payload["bad"] != false {
		t.Errorf("boolean normalization failed: %v", payload)
	}
	if _, present := payload["factual_errors"]; !present {
		t.Error("None should become null, not disappear")
	}
}

func TestRepair_NestedBracesInsideStrings(t *testing.T) {
	in := `{"cost_feedback": "uses {braces} and \"quotes\"", "confidence": 50} trailing {`
	out, err := Repair(in)
	if err != nil {
		t.Fatalf("Repair failed: %v", err)
	}

	var payload struct {
		CostFeedback string `json:"cost_feedback"`
	}
	if err := json.Unmarshal([]byte(out), &payload); err != nil {
		t.Fatalf("repaired output does not parse: %v", err)
	}
	if payload.CostFeedback != `uses {braces} and "quotes"` {
		t.Errorf("string content mangled: %q", payload.CostFeedback)
	}
}

func TestRepair_NoObject(t *testing.T) {
	if _, err := Repair("I cannot review this article."); err == nil {
		t.Error("expected error for prose with no JSON object")
	}
	if _, err := Repair(`{"unterminated": `); err == nil {
		t.Error("expected error for unbalanced braces")
	}
}

func TestParseVerdict_ClampsConfidence(t *testing.T) {
	v, err := parseVerdict("openai", `{"confidence": 250}`)
	if err != nil {
		t.Fatalf("parseVerdict failed: %v", err)
	}
	if v.Confidence != 100 {
		t.Errorf("confidence should clamp to 100, got %d", v.Confidence)
	}

	v, err = parseVerdict("openai", `{"confidence": -5}`)
	if err != nil {
		t.Fatalf("parseVerdict failed: %v", err)
	}
	if v.Confidence != 0 {
		t.Errorf("confidence should clamp to 0, got %d", v.Confidence)
	}
}

func TestParseVerdict_GarbageIsParseFailure(t *testing.T) {
	_, err := parseVerdict("openai", "total nonsense with no braces")
	if err == nil {
		t.Fatal("expected error")
	}
	var pf *ParseFailure
	if !errors.As(err, &pf) {
		t.Fatalf("expected *ParseFailure, got %T", err)
	}
	if pf.Provider != "openai" {
		t.Errorf("parse failure should carry the provider id, got %q", pf.Provider)
	}
}
