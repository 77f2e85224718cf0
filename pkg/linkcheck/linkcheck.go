// Package linkcheck finds links to legacy javadoc hosts left in an
// unpacked site.
//
// Links are rewritten only for components whose POM names a parent, so a
// site can keep links into hosts that no longer serve javadoc. Scan walks
// the HTML pages of a tree and reports every link attribute the legacy
// pattern matches:
//
//	checker := linkcheck.New(javadoc.NewRewriter(nil).Pattern(), logger)
//	report, err := checker.Scan(ctx, "target/site")
package linkcheck

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/charmbracelet/log"
)

// linkAttrs maps the elements that carry links to their link attribute.
var linkAttrs = []struct {
	selector string
	attr     string
}{
	{"a[href]", "href"},
	{"area[href]", "href"},
	{"link[href]", "href"},
	{"frame[src]", "src"},
	{"iframe[src]", "src"},
	{"img[src]", "src"},
	{"script[src]", "src"},
}

// Finding is one legacy link.
type Finding struct {
	File    string // slash-separated, relative to the scanned root
	Element string
	URL     string
}

// Report summarizes a scan.
type Report struct {
	Pages    int
	Errors   int // pages that could not be read or parsed
	Findings []Finding
}

// Files returns the distinct files with findings, in scan order.
func (r *Report) Files() []string {
	var files []string
	for i, f := range r.Findings {
		if i == 0 || r.Findings[i-1].File != f.File {
			files = append(files, f.File)
		}
	}
	return files
}

// Checker matches link attributes against a pattern.
type Checker struct {
	pattern *regexp.Regexp
	logger  *log.Logger
}

// New returns a Checker reporting links that pattern matches.
func New(pattern *regexp.Regexp, logger *log.Logger) *Checker {
	if logger == nil {
		logger = log.Default()
	}
	return &Checker{pattern: pattern, logger: logger}
}

// Scan checks every .html file under root in lexical order. Pages that
// fail to parse are logged and counted.
func (c *Checker) Scan(ctx context.Context, root string) (*Report, error) {
	report := &Report{}
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if d.IsDir() {
			// Staging directories of interrupted unpacks.
			if path != root && strings.HasPrefix(d.Name(), ".") {
				return filepath.SkipDir
			}
			return nil
		}
		if !strings.HasSuffix(d.Name(), ".html") {
			return nil
		}

		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		report.Pages++
		findings, err := c.CheckFile(path)
		if err != nil {
			c.logger.Warn("Could not check page", "path", path, "err", err)
			report.Errors++
			return nil
		}
		for i := range findings {
			findings[i].File = filepath.ToSlash(rel)
		}
		report.Findings = append(report.Findings, findings...)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return report, nil
}

// CheckFile returns the legacy links of one HTML page. File in the
// findings is set to path.
func (c *Checker) CheckFile(path string) ([]Finding, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	doc, err := goquery.NewDocumentFromReader(f)
	if err != nil {
		return nil, err
	}

	var findings []Finding
	for _, la := range linkAttrs {
		doc.Find(la.selector).Each(func(_ int, s *goquery.Selection) {
			url, _ := s.Attr(la.attr)
			if c.pattern.MatchString(url) {
				findings = append(findings, Finding{
					File:    path,
					Element: goquery.NodeName(s),
					URL:     url,
				})
			}
		})
	}
	return findings, nil
}
