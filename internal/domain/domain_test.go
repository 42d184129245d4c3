package domain

import (
	"encoding/json"
	"errors"
	"testing"
)

func TestParseFlipMode(t *testing.T) {
	testCases := []struct {
		in      string
		want    FlipMode
		wantErr bool
	}{
		{"front", FlipFront, false},
		{"back", FlipBack, false},
		{"both", FlipBoth, false},
		{"Front", 0, true},
		{"", 0, true},
	}
	for _, tc := range testCases {
		t.Run(tc.in, func(t *testing.T) {
			got, err := ParseFlipMode(tc.in)
			if tc.wantErr {
				if !errors.Is(err, ErrInvalidFlipMode) {
					t.Fatalf("ParseFlipMode(%q) error = %v, want ErrInvalidFlipMode", tc.in, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseFlipMode(%q) returned an unexpected error: %v", tc.in, err)
			}
			if got != tc.want {
				t.Errorf("ParseFlipMode(%q) = %v, want %v", tc.in, got, tc.want)
			}
		})
	}
}

func TestDeckJSONUsesFlipToken(t *testing.T) {
	deck := Deck{ID: 3, Name: "Verbs", RevisionLength: 10, FlipMode: FlipBoth}
	data, err := json.Marshal(deck)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if raw["flip_mode"] != "both" {
		t.Errorf("flip_mode = %v, want \"both\"", raw["flip_mode"])
	}

	var back Deck
	if err := json.Unmarshal([]byte(`{"flip_mode":"sideways"}`), &back); !errors.Is(err, ErrInvalidFlipMode) {
		t.Errorf("expected ErrInvalidFlipMode for unknown token, got %v", err)
	}
}

func TestFlipModeScan(t *testing.T) {
	var m FlipMode
	if err := m.Scan([]byte("back")); err != nil || m != FlipBack {
		t.Errorf("Scan([]byte) = %v, %v", m, err)
	}
	if err := m.Scan(int64(1)); err == nil {
		t.Error("expected Scan to reject integers")
	}
}

func TestParseFeedback(t *testing.T) {
	for _, name := range []string{"fail", "hard", "good", "easy"} {
		f, ok := ParseFeedback(name)
		if !ok || f.String() != name {
			t.Errorf("ParseFeedback(%q) = %v, %v", name, f, ok)
		}
	}
	for _, name := range []string{"bogus", "", "FAIL"} {
		if _, ok := ParseFeedback(name); ok {
			t.Errorf("ParseFeedback(%q) should not be ok", name)
		}
	}
}
