// Package aggregate merges component javadoc into a BOM directory.
//
// For every component of a BOM, [Collect] gathers its package and element
// indices and one Apache redirect rule per class or package page. The
// lines are appended to three accumulator files in the BOM directory:
//
//	package-list   element-list   .htaccess
//
// Appends happen through a single [Writer] per BOM, so components can be
// processed concurrently. Once every component is in, [Finalize] squashes
// each accumulator to the sorted set of its distinct lines, which makes
// the result independent of component order.
package aggregate

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"

	"github.com/scijava/javadoc-wrangler/pkg/gav"
	pkgio "github.com/scijava/javadoc-wrangler/pkg/io"
)

// Accumulator file names.
const (
	PackageList = "package-list"
	ElementList = "element-list"
	Htaccess    = ".htaccess"
)

// IndexFiles are the index files copied from components.
var IndexFiles = []string{PackageList, ElementList}

// AccumulatorFiles are the files [Finalize] squashes.
var AccumulatorFiles = []string{PackageList, ElementList, Htaccess}

// DefaultToplevelDocs are pages that belong to the BOM as a whole and get
// no per-component redirect.
var DefaultToplevelDocs = []string{
	"about.html",
	"allclasses-frame.html",
	"allclasses-index.html",
	"allclasses-noframe.html",
	"allclasses.html",
	"allpackages-index.html",
	"constant-values.html",
	"deprecated-list.html",
	"help-doc.html",
	"index-all.html",
	"index.html",
	"overview-frame.html",
	"overview-summary.html",
	"overview-tree.html",
	"package-frame.html",
	"package-summary.html",
	"package-tree.html",
	"package-use.html",
	"serialized-form.html",
}

// Toplevel is a set of page file names excluded from redirects.
type Toplevel map[string]bool

// NewToplevel builds a Toplevel set. Nil names selects
// [DefaultToplevelDocs].
func NewToplevel(names []string) Toplevel {
	if names == nil {
		names = DefaultToplevelDocs
	}
	t := make(Toplevel, len(names))
	for _, n := range names {
		t[n] = true
	}
	return t
}

// Contribution holds the accumulator lines of one component. Every line
// ends with a newline.
type Contribution struct {
	Component gav.Coordinate
	Indices   map[string][]string // by index file name
	Redirects []string
}

// Lines returns the number of lines the contribution appends.
func (c *Contribution) Lines() int {
	n := len(c.Redirects)
	for _, lines := range c.Indices {
		n += len(lines)
	}
	return n
}

// Collect reads the contribution of component c, unpacked in componentDir,
// to the BOM bom.
func Collect(bom, c gav.Coordinate, componentDir string, toplevel Toplevel, logger *log.Logger) *Contribution {
	return &Contribution{
		Component: c,
		Indices:   Indices(c, componentDir, logger),
		Redirects: Redirects(bom, c, componentDir, toplevel, logger),
	}
}

// Indices reads the index files of componentDir. Missing files are
// skipped; unreadable ones are logged and skipped.
func Indices(c gav.Coordinate, componentDir string, logger *log.Logger) map[string][]string {
	indices := make(map[string][]string)
	for _, name := range IndexFiles {
		data, err := os.ReadFile(filepath.Join(componentDir, name))
		if errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err != nil {
			logger.Error("Failed to read index", "component", c, "file", name)
			logger.Debug("read error", "file", name, "err", err)
			continue
		}
		indices[name] = splitLines(string(data))
	}
	return indices
}

// Redirects returns one rule per .html page below componentDir, toplevel
// pages excluded, in lexical path order:
//
//	RedirectMatch permanent "^/<bom path>/<page>$" /<component path>/<page>
func Redirects(bom, c gav.Coordinate, componentDir string, toplevel Toplevel, logger *log.Logger) []string {
	var rules []string
	_ = filepath.WalkDir(componentDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			logger.Error("Failed to walk", "path", path)
			logger.Debug("walk error", "err", err)
			return nil
		}
		if !d.Type().IsRegular() || filepath.Ext(path) != ".html" || toplevel[d.Name()] {
			return nil
		}
		rel, err := filepath.Rel(componentDir, path)
		if err != nil {
			return nil
		}
		rules = append(rules, Redirect(bom, c, filepath.ToSlash(rel)))
		return nil
	})
	return rules
}

// Redirect returns the rule forwarding page rel of bom to component c.
func Redirect(bom, c gav.Coordinate, rel string) string {
	return fmt.Sprintf("RedirectMatch permanent \"^/%s/%s$\" /%s/%s\n", bom.Path(), rel, c.Path(), rel)
}

// Apply appends the contribution to the accumulator files in bomDir. A
// file that cannot be written is logged and skipped.
func (c *Contribution) Apply(bomDir string, logger *log.Logger) {
	for _, name := range IndexFiles {
		lines := c.Indices[name]
		if len(lines) == 0 {
			continue
		}
		if err := pkgio.AppendLines(filepath.Join(bomDir, name), lines); err != nil {
			logger.Error("Failed to append index", "component", c.Component, "file", name)
			logger.Debug("append error", "file", name, "err", err)
		}
	}
	if len(c.Redirects) > 0 {
		if err := pkgio.AppendLines(filepath.Join(bomDir, Htaccess), c.Redirects); err != nil {
			logger.Error("Failed to append redirects", "component", c.Component)
			logger.Debug("append error", "file", Htaccess, "err", err)
		}
	}
}

// AppendIndices appends the index files of componentDir to bomDir.
func AppendIndices(bomDir string, c gav.Coordinate, componentDir string, logger *log.Logger) {
	contrib := &Contribution{Component: c, Indices: Indices(c, componentDir, logger)}
	contrib.Apply(bomDir, logger)
}

// AppendRedirects appends the redirect rules of componentDir to bomDir.
func AppendRedirects(bomDir string, bom, c gav.Coordinate, componentDir string, toplevel Toplevel, logger *log.Logger) {
	contrib := &Contribution{Component: c, Redirects: Redirects(bom, c, componentDir, toplevel, logger)}
	contrib.Apply(bomDir, logger)
}

// splitLines splits s into newline-terminated lines. A missing final
// newline is supplied so appended files never glue lines together.
func splitLines(s string) []string {
	if s == "" {
		return nil
	}
	s = strings.TrimSuffix(s, "\n")
	lines := strings.Split(s, "\n")
	for i := range lines {
		lines[i] += "\n"
	}
	return lines
}
