package javadoc

import (
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/charmbracelet/log"

	"github.com/scijava/javadoc-wrangler/pkg/gav"
	pkgio "github.com/scijava/javadoc-wrangler/pkg/io"
)

// DefaultLegacyHosts are the hosts of the old standalone javadoc sites.
var DefaultLegacyHosts = []string{"scijava.org", "imagej.net"}

// Rewriter replaces links into a legacy javadoc site, such as
// https://javadoc.scijava.org/Java8/java/lang/String.html, with a
// site-relative path under the component's parent:
// /org.scijava/pom-scijava/37.0.0/java/lang/String.html.
type Rewriter struct {
	pattern *regexp.Regexp
}

// NewRewriter matches http(s)://javadoc.<host>/<segment>/ for each host.
// An empty hosts list selects [DefaultLegacyHosts].
func NewRewriter(hosts []string) *Rewriter {
	if len(hosts) == 0 {
		hosts = DefaultLegacyHosts
	}
	quoted := make([]string, len(hosts))
	for i, h := range hosts {
		quoted[i] = regexp.QuoteMeta(h)
	}
	return &Rewriter{
		pattern: regexp.MustCompile(`https?://javadoc\.(?:` + strings.Join(quoted, "|") + `)/[^/]*/`),
	}
}

// Pattern returns the link regular expression.
func (r *Rewriter) Pattern() *regexp.Regexp { return r.pattern }

// Prefix returns the replacement path for links under parent.
func Prefix(parent gav.Coordinate) string {
	return "/" + parent.GroupID + "/" + parent.ArtifactID + "/" + parent.Version + "/"
}

// Rewrite replaces every legacy link in line.
func (r *Rewriter) Rewrite(line string, parent gav.Coordinate) string {
	return r.pattern.ReplaceAllLiteralString(line, Prefix(parent))
}

// RewriteFile rewrites the file at path line by line. The file is
// replaced only when something changed; changed reports whether it was.
func (r *Rewriter) RewriteFile(path string, parent gav.Coordinate) (changed bool, err error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return false, err
	}
	src := string(data)

	var b strings.Builder
	b.Grow(len(src))
	for _, line := range strings.SplitAfter(src, "\n") {
		b.WriteString(r.Rewrite(line, parent))
	}
	if b.String() == src {
		return false, nil
	}

	info, err := os.Stat(path)
	if err != nil {
		return false, err
	}
	return true, pkgio.WriteFile(path, []byte(b.String()), info.Mode().Perm())
}

// RewriteTree rewrites every .html file below root. A file that cannot be
// read or written is logged and left as it was.
func (r *Rewriter) RewriteTree(root string, parent gav.Coordinate, logger *log.Logger) (files, changed int) {
	_ = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			logger.Error("Failed to walk", "path", path)
			logger.Debug("walk error", "err", err)
			return nil
		}
		if !d.Type().IsRegular() || filepath.Ext(path) != ".html" {
			return nil
		}
		files++
		ok, err := r.RewriteFile(path, parent)
		if err != nil {
			logger.Error("Failed to replace links", "file", path)
			logger.Debug("rewrite error", "file", path, "err", err)
			return nil
		}
		if ok {
			changed++
		}
		return nil
	})
	return files, changed
}
