package report

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// Percent is a whole-number percentage. It is transmitted as "45%" and also
// accepted as a bare number.
type Percent int

// FormatPercent renders n as "n%".
func FormatPercent(n int) string {
	return strconv.Itoa(n) + "%"
}

// ParsePercent parses "n%" (or "n") back into n.
func ParsePercent(raw string) (int, error) {
	s := strings.TrimSpace(raw)
	s = strings.TrimSpace(strings.TrimSuffix(s, "%"))
	if s == "" {
		return 0, fmt.Errorf("percent %q is empty", raw)
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("percent %q: %w", raw, err)
	}
	return n, nil
}

func (p Percent) String() string {
	return FormatPercent(int(p))
}

// MarshalJSON writes the percentage in its "n%" wire form.
func (p Percent) MarshalJSON() ([]byte, error) {
	return json.Marshal(p.String())
}

// UnmarshalJSON accepts "n%", "n" or a JSON number.
func (p *Percent) UnmarshalJSON(data []byte) error {
	var num json.Number
	if err := json.Unmarshal(data, &num); err == nil {
		n, err := strconv.Atoi(num.String())
		if err != nil {
			return fmt.Errorf("percent %s: %w", num, err)
		}
		*p = Percent(n)
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("percent must be a string or number: %w", err)
	}
	n, err := ParsePercent(s)
	if err != nil {
		return err
	}
	*p = Percent(n)
	return nil
}

// MarshalYAML keeps the YAML rendering aligned with the JSON wire form.
func (p Percent) MarshalYAML() (interface{}, error) {
	return p.String(), nil
}
