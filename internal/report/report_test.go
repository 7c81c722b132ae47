package report

import (
	"encoding/json"
	"reflect"
	"strings"
	"testing"
)

func validResult() Result {
	return Result{
		Summary:            "Creative writer",
		SummaryExplanation: "Captures small everyday moments.",
		PersonalityCode:    "ENFP",
		AxisExplanations: map[Axis]string{
			AxisEI: "energized by people",
			AxisSN: "big picture",
			AxisTF: "values first",
			AxisJP: "spontaneous",
		},
		Keywords: []string{"#essay", "#travel"},
		Quotes: []Quote{
			{Quote: "q", QuoteExplanation: "e", SourceLink: "https://blog.example.com/a"},
		},
		ContentRatio: map[Category]Percent{
			CategoryExpertise:       15,
			CategoryEssay:           45,
			CategoryTravel:          30,
			CategorySelfImprovement: 10,
		},
	}
}

func TestValidateAcceptsWellFormedResult(t *testing.T) {
	r := validResult()
	if err := r.Validate(); err != nil {
		t.Fatalf("expected valid result, got %v", err)
	}
}

func TestValidateRejectsContractViolations(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(r *Result)
		wantErr string
	}{
		{name: "empty explanation", mutate: func(r *Result) { r.SummaryExplanation = "  " }, wantErr: "summary_explanation"},
		{name: "short code", mutate: func(r *Result) { r.PersonalityCode = "ENF" }, wantErr: "4 characters"},
		{name: "wrong axis letter", mutate: func(r *Result) { r.PersonalityCode = "ENXP" }, wantErr: "position 3"},
		{name: "axis out of order", mutate: func(r *Result) { r.PersonalityCode = "NEFP" }, wantErr: "position 1"},
		{name: "missing axis explanation", mutate: func(r *Result) { delete(r.AxisExplanations, AxisJP) }, wantErr: "J/P"},
		{name: "empty keyword", mutate: func(r *Result) { r.Keywords = append(r.Keywords, "") }, wantErr: "keywords[2]"},
		{name: "relative source link", mutate: func(r *Result) { r.Quotes[0].SourceLink = "/posts/1" }, wantErr: "source_link"},
		{name: "missing category", mutate: func(r *Result) { delete(r.ContentRatio, CategoryTravel) }, wantErr: "travel"},
		{name: "unknown category", mutate: func(r *Result) { r.ContentRatio["food"] = 1 }, wantErr: "food"},
		{name: "ratio above 100", mutate: func(r *Result) { r.ContentRatio[CategoryEssay] = 101 }, wantErr: "between 0 and 100"},
		{name: "ratio below 0", mutate: func(r *Result) { r.ContentRatio[CategoryEssay] = -1 }, wantErr: "between 0 and 100"},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			r := validResult()
			tt.mutate(&r)
			err := r.Validate()
			if err == nil {
				t.Fatalf("expected error containing %q", tt.wantErr)
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Fatalf("expected error containing %q, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestRatioSumAboveHundredIsOnlyAWarning(t *testing.T) {
	r := validResult()
	r.ContentRatio[CategoryEssay] = 90
	if err := r.Validate(); err != nil {
		t.Fatalf("sum above 100 must not invalidate result: %v", err)
	}
	warnings := r.Warnings()
	if len(warnings) != 1 || !strings.Contains(warnings[0], "145%") {
		t.Fatalf("expected ratio warning, got %v", warnings)
	}
	if got := validResult().Warnings(); len(got) != 0 {
		t.Fatalf("expected no warnings for sum of 100, got %v", got)
	}
}

func TestPercentRoundTrip(t *testing.T) {
	for _, n := range []int{0, 10, 15, 45, 100} {
		label := FormatPercent(n)
		if label != strings.TrimSpace(label) || !strings.HasSuffix(label, "%") {
			t.Fatalf("unexpected label %q", label)
		}
		back, err := ParsePercent(label)
		if err != nil {
			t.Fatalf("parse %q: %v", label, err)
		}
		if back != n {
			t.Fatalf("round trip %d -> %q -> %d", n, label, back)
		}
	}
	if got := FormatPercent(45); got != "45%" {
		t.Fatalf("expected 45%%, got %q", got)
	}
	if _, err := ParsePercent("%"); err == nil {
		t.Fatalf("expected error for empty percent")
	}
	if _, err := ParsePercent("abc%"); err == nil {
		t.Fatalf("expected error for non-numeric percent")
	}
}

func TestDecodeAcceptsStringAndNumericRatios(t *testing.T) {
	payload := `{
  "summary": "Creative writer",
  "summary_explanation": "Captures small everyday moments.",
  "mbti": "ENFP",
  "mbti_explanation": {"E/I": "a", "S/N": "b", "T/F": "c", "J/P": "d"},
  "keywords": ["#essay"],
  "quotes": [{"quote": "q", "quote_explanation": "e", "source_link": "https://blog.example.com/a"}],
  "content_ratio": {"expertise": "15%", "essay": 45, "travel": "30", "self_improvement": "10%"}
}`
	got, err := Decode([]byte(payload))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	want := map[Category]Percent{
		CategoryExpertise:       15,
		CategoryEssay:           45,
		CategoryTravel:          30,
		CategorySelfImprovement: 10,
	}
	if !reflect.DeepEqual(got.ContentRatio, want) {
		t.Fatalf("unexpected ratios: %#v", got.ContentRatio)
	}

	encoded, err := json.Marshal(got)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if !strings.Contains(string(encoded), `"essay":"45%"`) {
		t.Fatalf("expected percent wire form, got %s", encoded)
	}
}

func TestDecodeRejectsMalformedPayload(t *testing.T) {
	if _, err := Decode([]byte(`{not-json`)); err == nil || !strings.Contains(err.Error(), "report parse") {
		t.Fatalf("expected parse error, got %v", err)
	}
	if _, err := Decode([]byte(`{"mbti": "ENFP"}`)); err == nil || !strings.Contains(err.Error(), "report invalid") {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestCloneDoesNotShareState(t *testing.T) {
	r := validResult()
	c := r.Clone()
	c.Keywords[0] = "#changed"
	c.AxisExplanations[AxisEI] = "changed"
	c.ContentRatio[CategoryEssay] = 0
	c.Quotes[0].Quote = "changed"
	if !reflect.DeepEqual(r, validResult()) {
		t.Fatalf("clone mutated the original: %#v", r)
	}
}
