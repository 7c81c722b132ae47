package report

import "testing"

func TestAxisLeaningsFollowCodeLetters(t *testing.T) {
	tests := []struct {
		code    string
		letters string
		sides   []Side
	}{
		{code: "ENFP", letters: "ENFP", sides: []Side{SideFirst, SideSecond, SideSecond, SideSecond}},
		{code: "ISTJ", letters: "ISTJ", sides: []Side{SideSecond, SideFirst, SideFirst, SideFirst}},
		{code: "infj", letters: "INFJ", sides: []Side{SideSecond, SideSecond, SideSecond, SideFirst}},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.code, func(t *testing.T) {
			got := AxisLeanings(tt.code)
			if len(got) != len(Axes) {
				t.Fatalf("expected %d leanings, got %d", len(Axes), len(got))
			}
			for i, l := range got {
				if l.Axis != Axes[i] {
					t.Fatalf("leaning %d axis = %s, want %s", i, l.Axis, Axes[i])
				}
				if l.Letter != string(tt.letters[i]) {
					t.Fatalf("leaning %s letter = %s, want %c", l.Axis, l.Letter, tt.letters[i])
				}
				if l.Side != tt.sides[i] {
					t.Fatalf("leaning %s side = %s, want %s", l.Axis, l.Side, tt.sides[i])
				}
				if l.Fallback {
					t.Fatalf("leaning %s unexpectedly used fallback", l.Axis)
				}
			}
		})
	}
}

func TestAxisLeaningsFallBackToFirstSide(t *testing.T) {
	got := AxisLeanings("EN")
	if got[2].Letter != "T" || got[2].Side != SideFirst || !got[2].Fallback {
		t.Fatalf("expected T/F fallback to T, got %+v", got[2])
	}
	if got[3].Letter != "J" || !got[3].Fallback {
		t.Fatalf("expected J/P fallback to J, got %+v", got[3])
	}
	if got[0].Fallback || got[1].Fallback {
		t.Fatalf("present letters must not use fallback: %+v", got[:2])
	}
}

func TestAxisLeaningsIgnoreExplanations(t *testing.T) {
	r := validResult()
	r.AxisExplanations[AxisEI] = "clearly introverted (I)"
	view := NewView(r)
	if view.Leanings[0].Letter != "E" {
		t.Fatalf("explanation text must not affect leaning, got %+v", view.Leanings[0])
	}
}

func TestNewViewFormatsRatiosInCategoryOrder(t *testing.T) {
	view := NewView(validResult())
	want := []string{"15%", "45%", "30%", "10%"}
	if len(view.Ratios) != len(want) {
		t.Fatalf("expected %d ratios, got %d", len(want), len(view.Ratios))
	}
	for i, entry := range view.Ratios {
		if entry.Category != Categories[i] {
			t.Fatalf("ratio %d category = %s, want %s", i, entry.Category, Categories[i])
		}
		if entry.Label != want[i] {
			t.Fatalf("ratio %s label = %s, want %s", entry.Category, entry.Label, want[i])
		}
		back, err := ParsePercent(entry.Label)
		if err != nil || back != entry.Value {
			t.Fatalf("ratio %s label %q does not parse back to %d", entry.Category, entry.Label, entry.Value)
		}
	}
}

func TestParseCode(t *testing.T) {
	for _, code := range []string{"ENFP", "ISTJ", "ESFJ", "INTP"} {
		if _, err := ParseCode(code); err != nil {
			t.Fatalf("ParseCode(%q): %v", code, err)
		}
	}
	for _, code := range []string{"", "ENF", "ENFPX", "XNFP", "enfp"} {
		if _, err := ParseCode(code); err == nil {
			t.Fatalf("ParseCode(%q) expected error", code)
		}
	}
}
