package main

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/absfs/ampzip"
)

// buildFixture writes a nested archive of 1000 KiB units into dir
func buildFixture(t *testing.T, dir string) string {
	t.Helper()
	resetFlags()
	output := filepath.Join(dir, "nested.zip")
	if _, err := captureOutput(t, func() error {
		return runBuild(ampzip.ModeNested, []string{"1000", output})
	}); err != nil {
		t.Fatalf("failed to build fixture: %v", err)
	}
	return output
}

func TestInspectCommand(t *testing.T) {
	archive := buildFixture(t, t.TempDir())

	tests := []struct {
		name        string
		setup       func()
		args        []string
		wantErr     bool
		wantJSON    bool
		wantContain []string
	}{
		{
			name: "nested archive",
			args: []string{archive},
			wantContain: []string{
				"Format: zip",
				"Entries: 3",
				"Nesting levels: 4",
				"Containers: 40",
				"(1,050,624 bytes)",
				"3-0.zip",
				"[archive]",
			},
		},
		{
			name:        "json",
			setup:       func() { jsonOut = true },
			args:        []string{archive},
			wantJSON:    true,
			wantContain: []string{`"ExpandedSize": 1050624`},
		},
		{
			name:        "depth limit",
			setup:       func() { inspectMaxDepth = 1 },
			args:        []string{archive},
			wantContain: []string{"Nesting levels: 1", "limits reached"},
		},
		{
			name:        "entry limit",
			setup:       func() { inspectLimit = 1 },
			args:        []string{archive},
			wantContain: []string{"... 2 more"},
		},
		{
			name:    "missing archive",
			args:    []string{filepath.Join(t.TempDir(), "missing.zip")},
			wantErr: true,
		},
		{
			name:    "invalid max entry bytes",
			setup:   func() { inspectMaxEntry = "huge" },
			args:    []string{archive},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resetFlags()
			if tt.setup != nil {
				tt.setup()
			}

			output, err := captureOutput(t, func() error {
				return runInspect(tt.args)
			})

			if (err != nil) != tt.wantErr {
				t.Errorf("runInspect() error = %v, wantErr %v\nOutput: %s", err, tt.wantErr, output)
				return
			}
			if tt.wantJSON && !tt.wantErr {
				assertJSON(t, output)
			}
			assertContains(t, output, tt.wantContain)
		})
	}
}

func TestInspectTextFile(t *testing.T) {
	resetFlags()
	name := writeFile(t, t.TempDir(), "notes.txt", "not an archive")

	_, err := captureOutput(t, func() error {
		return runInspect([]string{name})
	})
	if err == nil {
		t.Fatal("expected an error for a plain text file")
	}
}

func TestPlanCommand(t *testing.T) {
	tests := []struct {
		name        string
		setup       func()
		args        []string
		wantErr     bool
		wantContain []string
	}{
		{
			name:        "nested",
			args:        []string{"nested", "1000"},
			wantContain: []string{"Mode: nested", "Depth: 3", "Leaf size: 38 KB", "Size After Decompression: 1026 KB", "Containers written: 4"},
		},
		{
			name:        "flat",
			args:        []string{"flat", "1234"},
			wantContain: []string{"Mode: flat", "Filler files: 12 x 102 KB + 10 KB", "Size After Decompression: 1234 KB"},
		},
		{
			name:        "routed",
			args:        []string{"nested", "300"},
			wantContain: []string{"Mode: flat", "nested requested"},
		},
		{
			name:        "megabytes",
			setup:       func() { unitSize = "" },
			args:        []string{"nested", "1048576"},
			wantContain: []string{"Size After Decompression:", "MB (1.0 TiB)"},
		},
		{
			name:    "unknown mode",
			args:    []string{"spiral", "1000"},
			wantErr: true,
		},
		{
			name:    "too small",
			args:    []string{"flat", "10"},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resetFlags()
			if tt.setup != nil {
				tt.setup()
			}
			dir := t.TempDir()
			workDir = dir

			output, err := captureOutput(t, func() error {
				return runPlan(tt.args)
			})

			if (err != nil) != tt.wantErr {
				t.Errorf("runPlan() error = %v, wantErr %v\nOutput: %s", err, tt.wantErr, output)
				return
			}
			assertContains(t, output, tt.wantContain)

			entries, _ := os.ReadDir(dir)
			if len(entries) != 0 {
				t.Errorf("plan wrote %d files", len(entries))
			}
		})
	}
}

func TestVersionCommand(t *testing.T) {
	output, err := captureOutput(t, func() error {
		versionCmd.Run(versionCmd, nil)
		return nil
	})
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(output, "ampzip dev") {
		t.Errorf("unexpected version output: %s", output)
	}
}

func TestUnitName(t *testing.T) {
	tests := map[int64]string{
		1 << 10: "KB",
		1 << 20: "MB",
		1 << 30: "GB",
		4096:    "x 4.0 KiB",
	}
	for unit, want := range tests {
		if got := unitName(unit); got != want {
			t.Errorf("unitName(%d) = %q, want %q", unit, got, want)
		}
	}
}
