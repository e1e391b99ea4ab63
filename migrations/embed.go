// SPDX-License-Identifier: Apache-2.0

// Package migrations embeds the SQL schema files applied at startup.
// Files are named NNNN_description.sql and applied in lexical order.
package migrations

import (
	"embed"
	"fmt"
	"io/fs"
	"regexp"
	"sort"
	"strings"
)

//go:embed *.sql
var embeddedFiles embed.FS

var fileNamePattern = regexp.MustCompile(`^(\d{4})_[a-z0-9_]+\.sql$`)

type File struct {
	Name    string
	Version string
	SQL     string
}

func Ordered() ([]File, error) {
	return ordered(embeddedFiles)
}

func ordered(fsys fs.FS) ([]File, error) {
	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return nil, err
	}

	files := make([]File, 0, len(entries))
	versions := make(map[string]string, len(entries))
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".sql") {
			continue
		}

		m := fileNamePattern.FindStringSubmatch(entry.Name())
		if m == nil {
			return nil, fmt.Errorf("migration %s: name must match NNNN_description.sql", entry.Name())
		}
		if prev, dup := versions[m[1]]; dup {
			return nil, fmt.Errorf("migration %s: version %s already used by %s", entry.Name(), m[1], prev)
		}
		versions[m[1]] = entry.Name()

		body, err := fs.ReadFile(fsys, entry.Name())
		if err != nil {
			return nil, err
		}
		if strings.TrimSpace(string(body)) == "" {
			return nil, fmt.Errorf("migration %s is empty", entry.Name())
		}

		files = append(files, File{
			Name:    entry.Name(),
			Version: m[1],
			SQL:     string(body),
		})
	}

	sort.Slice(files, func(i, j int) bool {
		return files[i].Name < files[j].Name
	})

	return files, nil
}
