// SPDX-License-Identifier: MPL-2.0

package cargo

import (
	"path/filepath"
	"slices"
	"testing"

	"github.com/archcrate/archcrate/internal/testutil"
	"github.com/archcrate/archcrate/pkg/types"
)

func TestLoadEnvFile(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	abs := testutil.MustWriteFile(t, dir, filepath.Join("env", "cargo.env"), `# release tuning
RUSTFLAGS="-C target-cpu=x86-64-v2"
CARGO_TARGET_DIR=/tmp/target
export CARGO_INCREMENTAL=0
`)
	want := []string{
		"CARGO_INCREMENTAL=0",
		"CARGO_TARGET_DIR=/tmp/target",
		"RUSTFLAGS=-C target-cpu=x86-64-v2",
	}

	tests := []struct {
		name string
		path string
	}{
		{name: "relative", path: "env/cargo.env"},
		{name: "absolute", path: abs},
		{name: "optional present", path: "env/cargo.env?"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			env, err := LoadEnvFile(tt.path, types.FilesystemPath(dir))
			if err != nil {
				t.Fatalf("LoadEnvFile() error = %v", err)
			}
			if !slices.Equal(env, want) {
				t.Errorf("LoadEnvFile() = %q, want %q", env, want)
			}
		})
	}
}

func TestLoadEnvFile_Missing(t *testing.T) {
	t.Parallel()

	dir := types.FilesystemPath(t.TempDir())
	if _, err := LoadEnvFile("nope.env", dir); err == nil {
		t.Error("LoadEnvFile() succeeded for a missing file")
	}
	env, err := LoadEnvFile("nope.env?", dir)
	if err != nil || len(env) != 0 {
		t.Errorf("LoadEnvFile(optional) = %q, %v; want empty, nil", env, err)
	}
}
