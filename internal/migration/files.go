package migration

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/loykin/fsapi/internal/apperr"
	"github.com/loykin/fsapi/internal/constants"
)

// Template is the content of a freshly created migration file.
const Template = constants.UpMarker + `
-- Write your UP migration here


` + constants.DownMarker + `
-- Write your DOWN migration here (for rollback)

`

// File describes a migration on disk. Up and Down are only populated by Load.
type File struct {
	Name string
	Path string
	Up   string
	Down string
}

// HasDown reports whether the file can be rolled back
func (f File) HasDown() bool { return f.Down != "" }

// Repository discovers, reads and scaffolds migration files in one directory.
type Repository struct {
	Dir string
	Ext string
	Now func() time.Time
}

// NewRepository returns a repository for dir with the .sql extension.
func NewRepository(dir string) *Repository {
	if dir == "" {
		dir = constants.DefaultMigrationsDir
	}
	return &Repository{Dir: dir, Ext: constants.MigrationExt, Now: time.Now}
}

func (r *Repository) ext() string {
	if r.Ext == "" {
		return constants.MigrationExt
	}
	return r.Ext
}

func (r *Repository) now() time.Time {
	if r.Now == nil {
		return time.Now()
	}
	return r.Now()
}

// List returns the migration files sorted by file name. The directory is
// created when it does not exist yet.
func (r *Repository) List() ([]File, error) {
	if err := os.MkdirAll(r.Dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create migrations directory %s: %w", r.Dir, err)
	}
	entries, err := os.ReadDir(r.Dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read migrations directory %s: %w", r.Dir, err)
	}

	ext := r.ext()
	files := make([]File, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ext) {
			continue
		}
		files = append(files, File{Name: e.Name(), Path: filepath.Join(r.Dir, e.Name())})
	}
	sort.Slice(files, func(i, j int) bool { return files[i].Name < files[j].Name })
	return files, nil
}

// Parse splits content on the first DOWN marker. The UP marker is stripped
// from the apply section; both sections are trimmed.
func Parse(content string) (up, down string) {
	before, after, found := strings.Cut(content, constants.DownMarker)
	up = strings.TrimSpace(strings.ReplaceAll(before, constants.UpMarker, ""))
	if found {
		down = strings.TrimSpace(after)
	}
	return up, down
}

// Load reads f from disk and fills in its sections.
func (r *Repository) Load(f File) (File, error) {
	b, err := os.ReadFile(f.Path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return f, apperr.New(apperr.ErrNotFound, "migration file not found: "+f.Name, err)
		}
		return f, fmt.Errorf("failed to read migration %s: %w", f.Name, err)
	}
	f.Up, f.Down = Parse(string(b))
	return f, nil
}

// Find locates a migration by exact file name and loads it.
func (r *Repository) Find(name string) (File, error) {
	if name == "" || filepath.Base(name) != name {
		return File{}, apperr.InvalidArgument("invalid migration name %q", name)
	}
	return r.Load(File{Name: name, Path: filepath.Join(r.Dir, name)})
}

// NormalizeName turns a human migration name into the file name suffix:
// runs of whitespace become "_" and case is kept as given.
func NormalizeName(name string) string {
	return strings.Join(strings.Fields(name), "_")
}

// Create writes a new migration named {timestamp}_{name}{ext} containing the
// two section markers and returns its path. An existing file is never
// overwritten.
func (r *Repository) Create(name string) (string, error) {
	normalized := NormalizeName(name)
	if normalized == "" {
		return "", apperr.InvalidArgument("migration name is required")
	}
	if strings.ContainsAny(normalized, `/\`) {
		return "", apperr.InvalidArgument("migration name %q must not contain path separators", name)
	}
	if err := os.MkdirAll(r.Dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create migrations directory %s: %w", r.Dir, err)
	}

	filename := fmt.Sprintf("%s_%s%s", r.now().Format(constants.MigrationTimestampLayout), normalized, r.ext())
	path := filepath.Join(r.Dir, filename)

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		if errors.Is(err, fs.ErrExist) {
			return "", fmt.Errorf("migration %s already exists", filename)
		}
		return "", fmt.Errorf("failed to create migration %s: %w", filename, err)
	}
	if _, err := f.WriteString(Template); err != nil {
		_ = f.Close()
		return "", fmt.Errorf("failed to write migration %s: %w", filename, err)
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("failed to write migration %s: %w", filename, err)
	}
	return path, nil
}
