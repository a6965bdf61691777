package migration

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"text/template"
	"time"
)

const (
	upSuffix      = ".up.sql"
	downSuffix    = ".down.sql"
	versionLayout = "20060102150405"
)

const upTemplate = `-- Migration: {{.Name}}
-- Created: {{.Created}}
-- Description: {{.Description}}

BEGIN;

COMMIT;
`

const downTemplate = `-- Migration: {{.Name}} (rollback)
-- Created: {{.Created}}
-- Description: Rollback for {{.Description}}

BEGIN;

COMMIT;
`

// File is one versioned up/down pair in the migrations directory.
type File struct {
	Version     uint
	Name        string
	Description string
	Created     string
	UpPath      string
	DownPath    string
}

// BaseName is the shared prefix of the pair, e.g. 20260901090000_create_stock_ledger.
func (f File) BaseName() string {
	return fmt.Sprintf("%d_%s", f.Version, f.Name)
}

// Scaffolder writes new migration pairs.
type Scaffolder struct {
	Dir string
	Now func() time.Time
}

// NewScaffolder returns a Scaffolder rooted at dir using UTC wall time.
func NewScaffolder(dir string) *Scaffolder {
	return &Scaffolder{
		Dir: dir,
		Now: func() time.Time { return time.Now().UTC() },
	}
}

// Create writes an empty up/down pair named after name. A version already present in Dir
// is rejected so two developers cannot produce colliding files in the same second.
func (s *Scaffolder) Create(name, description string) (*File, error) {
	slug := slugify(name)
	if slug == "" {
		return nil, errors.New("migration name must contain at least one letter or digit")
	}
	if err := os.MkdirAll(s.Dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create migrations directory: %w", err)
	}

	now := s.Now()
	version, err := strconv.ParseUint(now.Format(versionLayout), 10, 64)
	if err != nil {
		return nil, fmt.Errorf("failed to derive version: %w", err)
	}

	existing, err := List(s.Dir)
	if err != nil {
		return nil, err
	}
	for _, f := range existing {
		if f.Version == uint(version) {
			return nil, fmt.Errorf("migration version %d already exists (%s)", version, f.BaseName())
		}
	}

	f := &File{
		Version:     uint(version),
		Name:        slug,
		Description: description,
		Created:     now.Format(time.RFC3339),
	}
	f.UpPath = filepath.Join(s.Dir, f.BaseName()+upSuffix)
	f.DownPath = filepath.Join(s.Dir, f.BaseName()+downSuffix)

	if err := render(f.UpPath, upTemplate, f); err != nil {
		return nil, fmt.Errorf("failed to create up migration: %w", err)
	}
	if err := render(f.DownPath, downTemplate, f); err != nil {
		_ = os.Remove(f.UpPath)
		return nil, fmt.Errorf("failed to create down migration: %w", err)
	}
	return f, nil
}

func render(path, content string, data *File) error {
	tmpl, err := template.New(filepath.Base(path)).Parse(content)
	if err != nil {
		return fmt.Errorf("failed to parse template: %w", err)
	}

	out, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return fmt.Errorf("failed to create file %s: %w", path, err)
	}
	defer out.Close()

	return tmpl.Execute(out, data)
}

// List returns the migration pairs in dir ordered by version. A missing directory yields
// no files. An up file without its down counterpart is an error: every schema change in
// this service must be reversible.
func List(dir string) ([]File, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read migrations directory: %w", err)
	}

	downs := make(map[string]bool)
	for _, entry := range entries {
		if !entry.IsDir() && strings.HasSuffix(entry.Name(), downSuffix) {
			downs[strings.TrimSuffix(entry.Name(), downSuffix)] = true
		}
	}

	files := make([]File, 0)
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), upSuffix) {
			continue
		}
		base := strings.TrimSuffix(entry.Name(), upSuffix)
		version, name, ok := parseBaseName(base)
		if !ok {
			return nil, fmt.Errorf("malformed migration file name %q", entry.Name())
		}
		if !downs[base] {
			return nil, fmt.Errorf("migration %s has no down file", base)
		}
		files = append(files, File{
			Version:  version,
			Name:     name,
			UpPath:   filepath.Join(dir, base+upSuffix),
			DownPath: filepath.Join(dir, base+downSuffix),
		})
	}

	sort.Slice(files, func(i, j int) bool { return files[i].Version < files[j].Version })
	return files, nil
}

func parseBaseName(base string) (uint, string, bool) {
	head, name, found := strings.Cut(base, "_")
	if !found || name == "" {
		return 0, "", false
	}
	version, err := strconv.ParseUint(head, 10, 64)
	if err != nil {
		return 0, "", false
	}
	return uint(version), name, true
}

func slugify(name string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(name) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == ' ' || r == '-' || r == '_':
			s := b.String()
			if len(s) > 0 && s[len(s)-1] != '_' {
				b.WriteByte('_')
			}
		}
	}
	return strings.TrimSuffix(b.String(), "_")
}
