// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (C) 2026 Skiff Authors

package manifest

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/Masterminds/semver/v3"
)

func writeManifest(t *testing.T, content string) string {
	t.Helper()
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, FileName), []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return dir
}

const validManifest = `
name = "greeter"
description = "Greets things"
author = "Example Author"
license = "MIT"

[depends]
formatter = "^1.0.0"
clock = ">=2.1"

[optional_depends]
emoji = "~0.3"
`

func TestLoadFromDir(t *testing.T) {
	dir := writeManifest(t, validManifest)

	m, info, err := LoadFromDir(dir)
	if err != nil {
		t.Fatalf("LoadFromDir: %v", err)
	}

	if m.Name != "greeter" || m.Author != "Example Author" || m.License != "MIT" {
		t.Errorf("unexpected manifest: %+v", m)
	}

	if len(info.Depends) != 2 {
		t.Fatalf("Depends = %v, want 2 entries", info.Depends)
	}
	// Sorted by id.
	if info.Depends[0].ID != "clock" || info.Depends[1].ID != "formatter" {
		t.Errorf("Depends order = %s, %s", info.Depends[0].ID, info.Depends[1].ID)
	}
	v := semver.MustParse("1.2.3")
	if !info.Depends[1].Requirement.Check(v) {
		t.Errorf("formatter ^1.0.0 should admit 1.2.3")
	}
	if info.Depends[1].Requirement.Check(semver.MustParse("2.0.0")) {
		t.Errorf("formatter ^1.0.0 should reject 2.0.0")
	}

	if len(info.OptionalDepends) != 1 || info.OptionalDepends[0].ID != "emoji" {
		t.Errorf("OptionalDepends = %v", info.OptionalDepends)
	}
}

func TestLoadMissingFile(t *testing.T) {
	_, _, err := LoadFromDir(t.TempDir())
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("missing manifest error = %v, want ErrNotFound", err)
	}
}

func TestLoadInvalid(t *testing.T) {
	tests := []struct {
		name    string
		content string
		errText string
	}{
		{
			name:    "not toml",
			content: "{ name: nope }",
			errText: "invalid manifest",
		},
		{
			name: "unknown field",
			content: `
name = "x"
description = "y"
author = "z"
sneaky = true
`,
			errText: "invalid manifest",
		},
		{
			name: "missing name",
			content: `
description = "y"
author = "z"
`,
			errText: "name is required",
		},
		{
			name: "missing description",
			content: `
name = "x"
author = "z"
`,
			errText: "description is required",
		},
		{
			name: "missing author",
			content: `
name = "x"
description = "y"
`,
			errText: "author is required",
		},
		{
			name: "bad version requirement",
			content: `
name = "x"
description = "y"
author = "z"

[depends]
other = "not-a-version"
`,
			errText: "bad version requirement",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := writeManifest(t, tt.content)
			_, _, err := LoadFromDir(dir)
			if err == nil {
				t.Fatal("expected error")
			}
			if !errors.Is(err, ErrInvalidFormat) {
				t.Errorf("error = %v, want ErrInvalidFormat", err)
			}
			if !strings.Contains(err.Error(), tt.errText) {
				t.Errorf("error = %q, want substring %q", err, tt.errText)
			}
		})
	}
}

func TestNoDependsSections(t *testing.T) {
	dir := writeManifest(t, `
name = "solo"
description = "No deps"
author = "a"
`)
	_, info, err := LoadFromDir(dir)
	if err != nil {
		t.Fatalf("LoadFromDir: %v", err)
	}
	if info.Depends != nil || info.OptionalDepends != nil {
		t.Errorf("expected empty info, got %+v", info)
	}
}
