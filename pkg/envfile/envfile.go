// Package envfile loads, parses, validates, and merges the dotenv-style
// configuration files a deployment reads. Files are resolved by a fixed
// priority order; the most specific existing file wins for any key.
package envfile

import (
	"bufio"
	"bytes"
	"fmt"
	"os"
	"regexp"
	"strings"
	"time"
)

// Managed file names, most to least specific. Priority 1 is the highest
// precedence during merge.
const (
	NameLocal      = ".env.local"
	NameProduction = ".env.production"
	NameSimple     = ".env.simple"
	NameDefault    = ".env"
	NameExample    = ".env.example"
)

// fileSpec pairs a managed file name with its merge priority.
type fileSpec struct {
	name     string
	priority int
}

var managedFiles = []fileSpec{
	{NameLocal, 1},
	{NameProduction, 2},
	{NameSimple, 3},
	{NameDefault, 4},
	{NameExample, 5},
}

// ManagedNames returns the managed file names in priority order.
func ManagedNames() []string {
	names := make([]string, len(managedFiles))
	for i, spec := range managedFiles {
		names[i] = spec.name
	}
	return names
}

// File is one on-disk configuration source. Constructed fresh on every
// load and never mutated afterwards.
type File struct {
	Name      string            `json:"name"`
	Path      string            `json:"path"`
	Priority  int               `json:"priority"`
	Exists    bool              `json:"exists"`
	Variables map[string]string `json:"variables,omitempty"`
	ModTime   time.Time         `json:"mod_time"`
	Size      int64             `json:"size"`
	Valid     bool              `json:"valid"`
	Errors    []string          `json:"errors,omitempty"`
}

// envLine matches KEY=VALUE with an optional export prefix. Keys are
// letters, digits, and underscores, starting with a letter or underscore.
var envLine = regexp.MustCompile(`^(?:export\s+)?([A-Za-z_][A-Za-z0-9_]*)=(.*)$`)

// parseEnvFile parses dotenv content into vars. Blank lines and lines
// starting with # are ignored; matching surrounding quotes are stripped
// from values. Malformed lines are returned as diagnostics and do not
// stop the parse.
func parseEnvFile(content []byte, vars map[string]string) []string {
	var diags []string

	scanner := bufio.NewScanner(bytes.NewReader(content))
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		m := envLine.FindStringSubmatch(line)
		if m == nil {
			diags = append(diags, fmt.Sprintf("line %d: invalid syntax: %s", lineNo, truncate(line, 60)))
			continue
		}

		key := m[1]
		value := strings.TrimSpace(m[2])
		vars[key] = unquote(value)
	}

	if err := scanner.Err(); err != nil {
		diags = append(diags, fmt.Sprintf("read error: %v", err))
	}

	return diags
}

// unquote strips one pair of matching single or double quotes.
func unquote(value string) string {
	if len(value) >= 2 {
		first, last := value[0], value[len(value)-1]
		if first == last && (first == '"' || first == '\'') {
			return value[1 : len(value)-1]
		}
	}
	return value
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max] + "..."
}

// loadFile reads and parses one managed file. A missing file is normal:
// Exists is false and no error is reported. Read failures and malformed
// lines surface in Errors with Valid cleared; parsing always continues.
func loadFile(path, name string, priority int) *File {
	f := &File{
		Name:      name,
		Path:      path,
		Priority:  priority,
		Variables: make(map[string]string),
		Valid:     true,
	}

	info, err := os.Stat(path)
	if err != nil {
		if !os.IsNotExist(err) {
			f.Errors = append(f.Errors, fmt.Sprintf("failed to stat %s: %v", path, err))
			f.Valid = false
		}
		return f
	}

	f.Exists = true
	f.ModTime = info.ModTime()
	f.Size = info.Size()

	content, err := os.ReadFile(path)
	if err != nil {
		f.Errors = append(f.Errors, fmt.Sprintf("failed to read %s: %v", path, err))
		f.Valid = false
		return f
	}

	if diags := parseEnvFile(content, f.Variables); len(diags) > 0 {
		f.Errors = append(f.Errors, diags...)
		f.Valid = false
	}

	return f
}
