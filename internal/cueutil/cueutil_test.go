// SPDX-License-Identifier: MPL-2.0

package cueutil

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"testing"
)

const testSchema = `
#Config: {
	name?:  string
	count?: int & >=0
	tags?: [...string]
}
`

func TestDecodeMap(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		data    string
		wantErr string
	}{
		{name: "valid", data: `name: "x", count: 2, tags: ["a"]`},
		{name: "empty document", data: ``},
		{name: "wrong type", data: `count: "two"`, wantErr: "count"},
		{name: "constraint", data: `count: -1`, wantErr: "count"},
		{name: "unknown field", data: `colour: "red"`, wantErr: "colour"},
		{name: "list element", data: `tags: ["a", 3]`, wantErr: "tags[1]"},
		{name: "syntax", data: `name: `, wantErr: "test.cue"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			m, err := DecodeMap(testSchema, []byte(tt.data), "#Config", "test.cue")
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("DecodeMap() error = %v", err)
				}
				if tt.data != "" && m["name"] != "x" {
					t.Errorf("DecodeMap() = %v", m)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Fatalf("DecodeMap() error = %v, want mention of %q", err, tt.wantErr)
			}
		})
	}
}

func TestFormatError_NonCUE(t *testing.T) {
	t.Parallel()

	if FormatError(nil, "x.cue") != nil {
		t.Error("FormatError(nil) should be nil")
	}
	orig := errors.New("boom")
	err := FormatError(orig, "x.cue")
	if !errors.Is(err, orig) || !strings.HasPrefix(err.Error(), "x.cue: ") {
		t.Errorf("FormatError() = %v", err)
	}

	wrapped := FormatError(fmt.Errorf("read config: %w", fs.ErrNotExist), "x.cue")
	if !errors.Is(wrapped, fs.ErrNotExist) {
		t.Errorf("FormatError() = %v, lost the wrapped cause", wrapped)
	}
}

func TestFormatPath(t *testing.T) {
	t.Parallel()

	tests := []struct {
		path []string
		want string
	}{
		{nil, ""},
		{[]string{"container_engine"}, "container_engine"},
		{[]string{"user", "groups", "1"}, "user.groups[1]"},
		{[]string{"registry", "platform"}, "registry.platform"},
	}
	for _, tt := range tests {
		if got := formatPath(tt.path); got != tt.want {
			t.Errorf("formatPath(%q) = %q, want %q", tt.path, got, tt.want)
		}
	}
}

func TestCheckFileSize(t *testing.T) {
	t.Parallel()

	if err := CheckFileSize(make([]byte, 100), 100, "a.cue"); err != nil {
		t.Errorf("at limit: %v", err)
	}
	err := CheckFileSize(make([]byte, 101), 100, "a.cue")
	if err == nil || !strings.Contains(err.Error(), "101") || !strings.Contains(err.Error(), "a.cue") {
		t.Errorf("over limit: %v", err)
	}
}
