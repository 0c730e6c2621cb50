// SPDX-License-Identifier: MPL-2.0

package cargo

import (
	"errors"
	"fmt"
	"io/fs"
	"maps"
	"path/filepath"
	"slices"
	"strings"

	"github.com/joho/godotenv"

	"github.com/archcrate/archcrate/pkg/types"
)

// LoadEnvFile reads a dotenv file and returns its entries as sorted
// KEY=VALUE strings for Options.Env. A relative path is resolved against
// baseDir. A trailing '?' marks the file optional: when it is missing the
// result is empty and the error nil.
func LoadEnvFile(path string, baseDir types.FilesystemPath) ([]string, error) {
	optional := strings.HasSuffix(path, "?")
	path = strings.TrimSuffix(path, "?")

	full := filepath.FromSlash(path)
	if !filepath.IsAbs(full) {
		full = string(baseDir.Join(full))
	}

	vars, err := godotenv.Read(full)
	if err != nil {
		if optional && errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read env file '%s': %w", path, err)
	}
	env := make([]string, 0, len(vars))
	for _, k := range slices.Sorted(maps.Keys(vars)) {
		env = append(env, k+"="+vars[k])
	}
	return env, nil
}
