package report

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strings"
)

// Validate checks the result against the report contract. Summary may be
// empty; everything else listed here is required.
func (r *Result) Validate() error {
	if r == nil {
		return errors.New("analysis result is nil")
	}
	if strings.TrimSpace(r.SummaryExplanation) == "" {
		return errors.New("summary_explanation is required")
	}
	if _, err := ParseCode(r.PersonalityCode); err != nil {
		return fmt.Errorf("mbti: %w", err)
	}
	for _, axis := range Axes {
		if _, ok := r.AxisExplanations[axis]; !ok {
			return fmt.Errorf("mbti_explanation.%s is required", axis)
		}
	}
	for axis := range r.AxisExplanations {
		if !knownAxis(axis) {
			return fmt.Errorf("mbti_explanation.%s is not a known axis", axis)
		}
	}
	for i, kw := range r.Keywords {
		if strings.TrimSpace(kw) == "" {
			return fmt.Errorf("keywords[%d] is empty", i)
		}
	}
	for i, q := range r.Quotes {
		if !isAbsoluteURL(q.SourceLink) {
			return fmt.Errorf("quotes[%d].source_link must be an absolute URL", i)
		}
	}
	for _, cat := range Categories {
		v, ok := r.ContentRatio[cat]
		if !ok {
			return fmt.Errorf("content_ratio.%s is required", cat)
		}
		if v < 0 || v > 100 {
			return fmt.Errorf("content_ratio.%s must be between 0 and 100", cat)
		}
	}
	for cat := range r.ContentRatio {
		if !knownCategory(cat) {
			return fmt.Errorf("content_ratio.%s is not a known category", cat)
		}
	}
	return nil
}

// Warnings reports soft contract properties that do not invalidate a result.
func (r Result) Warnings() []string {
	var out []string
	if total := r.RatioTotal(); total > 100 {
		out = append(out, fmt.Sprintf("content_ratio sums to %d%%", total))
	}
	return out
}

// Decode parses a provider payload and validates it.
func Decode(raw []byte) (Result, error) {
	var res Result
	if err := json.Unmarshal(raw, &res); err != nil {
		return Result{}, fmt.Errorf("report parse: %w", err)
	}
	if err := res.Validate(); err != nil {
		return Result{}, fmt.Errorf("report invalid: %w", err)
	}
	return res, nil
}

func knownAxis(a Axis) bool {
	for _, axis := range Axes {
		if axis == a {
			return true
		}
	}
	return false
}

func knownCategory(c Category) bool {
	for _, cat := range Categories {
		if cat == c {
			return true
		}
	}
	return false
}

func isAbsoluteURL(raw string) bool {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return false
	}
	return u.IsAbs() && u.Host != ""
}
