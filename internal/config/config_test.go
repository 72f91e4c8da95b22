package config

import (
	"errors"
	"strings"
	"testing"
)

func TestLoad_ScoreDefaults(t *testing.T) {
	t.Setenv("SCORE_CORRECT", "")
	t.Setenv("SCORE_INCORRECT", "")
	t.Setenv("SCORE_NONE", "")

	d, err := Load().ScoreDefaults()
	if err != nil {
		t.Fatalf("ScoreDefaults: %v", err)
	}
	if d.Correct != 1.0 || d.Incorrect != -0.5 || d.None != 0.0 {
		t.Errorf("unexpected defaults: %+v", d)
	}
}

func TestLoad_ScoreOverrides(t *testing.T) {
	t.Setenv("SCORE_CORRECT", "2")
	t.Setenv("SCORE_INCORRECT", " -1.25 ")
	t.Setenv("SCORE_NONE", "")

	d, err := Load().ScoreDefaults()
	if err != nil {
		t.Fatalf("ScoreDefaults: %v", err)
	}
	if d.Correct != 2 {
		t.Errorf("Expected correct 2, got %v", d.Correct)
	}
	if d.Incorrect != -1.25 {
		t.Errorf("Expected incorrect -1.25, got %v", d.Incorrect)
	}
	if d.None != 0 {
		t.Errorf("Expected default 0 for unset none, got %v", d.None)
	}
}

func TestLoad_MalformedScoreRejected(t *testing.T) {
	t.Setenv("SCORE_CORRECT", "1,0")
	t.Setenv("SCORE_INCORRECT", "-0.5")
	t.Setenv("SCORE_NONE", "zero")

	_, err := Load().ScoreDefaults()
	if !errors.Is(err, ErrInvalidScore) {
		t.Fatalf("Expected ErrInvalidScore, got %v", err)
	}
	for _, key := range []string{"SCORE_CORRECT", "SCORE_NONE"} {
		if !strings.Contains(err.Error(), key) {
			t.Errorf("Expected error to name %s, got %q", key, err)
		}
	}
	if strings.Contains(err.Error(), "SCORE_INCORRECT") {
		t.Errorf("Valid SCORE_INCORRECT reported as malformed: %q", err)
	}
}

func TestParseOrigins(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want []string
	}{
		{"empty", "", nil},
		{"single", "http://a", []string{"http://a"}},
		{"trimmed", " http://a , ,http://b ", []string{"http://a", "http://b"}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := parseOrigins(tc.in)
			if len(got) != len(tc.want) {
				t.Fatalf("Expected %v, got %v", tc.want, got)
			}
			for i := range got {
				if got[i] != tc.want[i] {
					t.Errorf("Expected %v, got %v", tc.want, got)
				}
			}
		})
	}
}
