package migrate

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"regexp"
	"strings"

	"go.uber.org/multierr"
)

// migrationName is YYYYMMDDHHMMSS_snake_case.sql; the timestamp is goose's version.
var migrationName = regexp.MustCompile(`^(\d{14})_[a-z0-9_]+\.sql$`)

var requiredAnnotations = []string{"-- +goose Up", "-- +goose Down"}

// ValidateDir checks a migrations directory on disk before it is committed.
func ValidateDir(dir string) error {
	if dir == "" {
		return errors.New("migrations dir is required")
	}
	return ValidateFS(os.DirFS(dir), ".")
}

// ValidateEmbedded checks the migrations compiled into the binary.
func ValidateEmbedded() error {
	return ValidateFS(Migrations, embeddedDir)
}

// ValidateFS returns every naming, version and annotation problem in dir,
// combined with multierr.
func ValidateFS(fsys fs.FS, dir string) error {
	entries, err := fs.ReadDir(fsys, dir)
	if err != nil {
		return fmt.Errorf("list migrations in %q: %w", dir, err)
	}

	var problems error
	owners := make(map[string]string)
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || path.Ext(name) != ".sql" {
			continue
		}
		match := migrationName.FindStringSubmatch(name)
		if match == nil {
			problems = multierr.Append(problems, fmt.Errorf("%s: name must look like YYYYMMDDHHMMSS_name.sql", name))
			continue
		}
		if first, taken := owners[match[1]]; taken {
			problems = multierr.Append(problems, fmt.Errorf("%s: version %s already used by %s", name, match[1], first))
		} else {
			owners[match[1]] = name
		}
		problems = multierr.Append(problems, checkAnnotations(fsys, path.Join(dir, name)))
	}
	return problems
}

func checkAnnotations(fsys fs.FS, file string) error {
	body, err := fs.ReadFile(fsys, file)
	if err != nil {
		return fmt.Errorf("%s: %w", path.Base(file), err)
	}
	var missing []string
	for _, marker := range requiredAnnotations {
		if !strings.Contains(string(body), marker) {
			missing = append(missing, fmt.Sprintf("%q", marker))
		}
	}
	if len(missing) == 0 {
		return nil
	}
	return fmt.Errorf("%s: missing %s", path.Base(file), strings.Join(missing, ", "))
}
