// Package docs holds the mcache documentation topics, markdown files embedded
// in the binary. The readme topic is the index of the others.
package docs

import (
	"bufio"
	"embed"
	"fmt"
	"io/fs"
	"slices"
	"strings"
)

//go:embed *.md
var files embed.FS

// Index is the topic shown when none is requested.
const Index = "readme"

// Names returns the topics other than the index, sorted.
func Names() ([]string, error) {
	matches, err := fs.Glob(files, "*.md")
	if err != nil {
		return nil, err
	}
	var names []string
	for _, m := range matches {
		if name := strings.TrimSuffix(m, ".md"); name != Index {
			names = append(names, name)
		}
	}
	slices.Sort(names)
	return names, nil
}

// Get returns the markdown of a topic.
func Get(name string) (string, error) {
	content, err := files.ReadFile(name + ".md")
	if err != nil {
		return "", fmt.Errorf("topic %q not found: %w", name, err)
	}
	return string(content), nil
}

// Title returns the first level heading of a topic.
func Title(name string) (string, error) {
	content, err := Get(name)
	if err != nil {
		return "", err
	}
	scanner := bufio.NewScanner(strings.NewReader(content))
	for scanner.Scan() {
		if title, ok := strings.CutPrefix(scanner.Text(), "# "); ok {
			return strings.TrimSpace(title), nil
		}
	}
	return name, nil
}

// Join returns the topics concatenated, "*" standing for every topic.
func Join(names ...string) (string, error) {
	var b strings.Builder
	for _, name := range names {
		expanded := []string{name}
		if name == "*" {
			all, err := Names()
			if err != nil {
				return "", err
			}
			expanded = all
		}
		for _, n := range expanded {
			content, err := Get(n)
			if err != nil {
				return "", err
			}
			b.WriteString(content)
			b.WriteString("\n")
		}
	}
	return b.String(), nil
}
