// SPDX-License-Identifier: MPL-2.0

package cueutil

import (
	"errors"
	"strings"
	"testing"
)

func TestFormatError(t *testing.T) {
	t.Parallel()

	t.Run("nil error returns nil", func(t *testing.T) {
		t.Parallel()
		if err := FormatError(nil, "module.cue"); err != nil {
			t.Errorf("expected nil, got %v", err)
		}
	})

	t.Run("non-CUE error is wrapped with filepath", func(t *testing.T) {
		t.Parallel()
		original := errors.New("boom")
		err := FormatError(original, "module.cue")
		if !errors.Is(err, original) {
			t.Errorf("FormatError should wrap the original error, got %v", err)
		}
		if !strings.HasPrefix(err.Error(), "module.cue: ") {
			t.Errorf("error should start with the filepath, got %q", err)
		}
	})
}

func TestFormatPath(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		path []string
		want string
	}{
		{name: "empty", path: nil, want: ""},
		{name: "single", path: []string{"id"}, want: "id"},
		{name: "nested", path: []string{"host", "range"}, want: "host.range"},
		{name: "index", path: []string{"requires", "0", "id"}, want: "requires[0].id"},
		{name: "trailing index", path: []string{"members", "3"}, want: "members[3]"},
		{name: "leading numeric", path: []string{"0", "id"}, want: "0.id"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := formatPath(tt.path); got != tt.want {
				t.Errorf("formatPath(%v) = %q, want %q", tt.path, got, tt.want)
			}
		})
	}
}

func TestCheckFileSize(t *testing.T) {
	t.Parallel()

	if err := CheckFileSize(make([]byte, 100), 100, "a.cue"); err != nil {
		t.Errorf("data at the limit should pass, got %v", err)
	}

	err := CheckFileSize(make([]byte, 101), 100, "a.cue")
	if err == nil {
		t.Fatal("expected error for oversized data")
	}
	for _, want := range []string{"a.cue", "101", "100"} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("error %q should contain %q", err, want)
		}
	}
}
