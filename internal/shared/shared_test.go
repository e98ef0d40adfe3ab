package shared

import (
	"strings"
	"testing"
)

func TestFormatDuration(t *testing.T) {
	tc := []struct {
		name    string
		seconds float64
		want    string
	}{
		{
			name:    "under a minute",
			seconds: 42,
			want:    "0:42",
		},
		{
			name:    "minutes and seconds",
			seconds: 225,
			want:    "3:45",
		},
		{
			name:    "rounds fractional seconds",
			seconds: 59.7,
			want:    "1:00",
		},
		{
			name:    "over an hour",
			seconds: 3723,
			want:    "1:02:03",
		},
		{
			name:    "negative clamps to zero",
			seconds: -5,
			want:    "0:00",
		},
	}

	for _, tt := range tc {
		t.Run(tt.name, func(t *testing.T) {
			got := FormatDuration(tt.seconds)
			if got != tt.want {
				t.Errorf("FormatDuration(%v) = %v, want %v", tt.seconds, got, tt.want)
			}
		})
	}
}

func TestMarshalJSON(t *testing.T) {
	payload := map[string]any{"title": "Night Drive"}

	compact, err := MarshalJSON(payload, false)
	if err != nil {
		t.Fatalf("compact marshal failed: %v", err)
	}
	if strings.Contains(string(compact), "\n") {
		t.Errorf("compact output should not contain newlines: %q", compact)
	}

	pretty, err := MarshalJSON(payload, true)
	if err != nil {
		t.Fatalf("pretty marshal failed: %v", err)
	}
	if !strings.Contains(string(pretty), "\n") {
		t.Errorf("pretty output should be indented: %q", pretty)
	}
}

func TestGenerateID(t *testing.T) {
	a := GenerateID()
	b := GenerateID()

	if a == b {
		t.Error("consecutive IDs should differ")
	}
	if len(a) != 36 {
		t.Errorf("expected UUID string length 36, got %d", len(a))
	}
}

func TestOpenBrowser(t *testing.T) {
	t.Run("unsupported platform", func(t *testing.T) {
		original := getRuntime
		defer func() { getRuntime = original }()
		getRuntime = func() string { return "plan9" }

		err := OpenBrowser("http://127.0.0.1:3000")
		if err == nil {
			t.Fatal("expected error on unsupported platform")
		}
		if !strings.Contains(err.Error(), "unsupported platform") {
			t.Errorf("expected platform error, got %v", err)
		}
	})
}
