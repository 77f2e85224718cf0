package resolver

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/charmbracelet/log"

	"github.com/scijava/javadoc-wrangler/pkg/gav"
	"github.com/scijava/javadoc-wrangler/pkg/integrations/maven"
	"github.com/scijava/javadoc-wrangler/pkg/xmldoc"
)

// maxDepth bounds parent chains and nested BOM imports.
const maxDepth = 32

var expression = regexp.MustCompile(`\$\{([^}]+)\}`)

// Repository resolves artifacts straight from a Maven repository.
type Repository struct {
	client *maven.Client
	logger *log.Logger
}

// NewRepository returns a Repository backed by client.
func NewRepository(client *maven.Client, logger *log.Logger) *Repository {
	if logger == nil {
		logger = log.Default()
	}
	return &Repository{client: client, logger: logger}
}

// CopyArtifact downloads a into outputDir.
func (r *Repository) CopyArtifact(ctx context.Context, a gav.Artifact, outputDir string) error {
	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return err
	}
	return r.client.DownloadTo(ctx, a, filepath.Join(outputDir, a.FileName()))
}

// EffectivePOM computes the effective dependencyManagement of the POM at
// pomFile: parents are fetched from the repository, properties and
// managed dependencies are inherited with the child winning, ${...}
// expressions are interpolated, and import-scoped BOMs are expanded.
func (r *Repository) EffectivePOM(ctx context.Context, pomFile string) ([]string, error) {
	doc, err := xmldoc.ParseFile(pomFile)
	if err != nil {
		return nil, err
	}
	m, err := r.effective(ctx, maven.ParsePOM(doc), 0)
	if err != nil {
		return nil, err
	}
	return m.render(), nil
}

// model is an interpolated project.
type model struct {
	coord      gav.Coordinate
	parent     gav.Coordinate
	packaging  string
	properties []maven.Property
	managed    []maven.Dependency
}

func (r *Repository) effective(ctx context.Context, pom *maven.POM, depth int) (*model, error) {
	if depth > maxDepth {
		return nil, fmt.Errorf("%s: import or parent chain deeper than %d", pom.Coordinate(), maxDepth)
	}

	chain, err := r.lineage(ctx, pom)
	if err != nil {
		return nil, err
	}

	m := &model{coord: pom.Coordinate(), parent: pom.Parent, packaging: pom.Packaging}
	if m.packaging == "" {
		m.packaging = "jar"
	}

	// Properties: ancestors first so descendants override.
	props := make(map[string]string)
	index := make(map[string]int)
	for i := len(chain) - 1; i >= 0; i-- {
		for _, p := range chain[i].Properties {
			if j, ok := index[p.Name]; ok {
				m.properties[j].Value = p.Value
			} else {
				index[p.Name] = len(m.properties)
				m.properties = append(m.properties, p)
			}
			props[p.Name] = p.Value
		}
	}
	for _, prefix := range []string{"project.", "pom."} {
		props[prefix+"groupId"] = m.coord.GroupID
		props[prefix+"artifactId"] = m.coord.ArtifactID
		props[prefix+"version"] = m.coord.Version
		props[prefix+"packaging"] = m.packaging
		props[prefix+"parent.groupId"] = m.parent.GroupID
		props[prefix+"parent.artifactId"] = m.parent.ArtifactID
		props[prefix+"parent.version"] = m.parent.Version
	}
	for i := range m.properties {
		m.properties[i].Value = interpolate(m.properties[i].Value, props)
	}

	// Managed dependencies: the nearest declaration of a key wins.
	seen := make(map[string]bool)
	var imports []maven.Dependency
	for _, p := range chain {
		for _, d := range p.DependencyManagement {
			d = interpolateDependency(d, props)
			if d.Scope == "import" && d.Type == "pom" {
				imports = append(imports, d)
				continue
			}
			if seen[d.Key()] {
				continue
			}
			seen[d.Key()] = true
			m.managed = append(m.managed, d)
		}
	}

	for _, imp := range imports {
		c := gav.New(imp.GroupID, imp.ArtifactID, imp.Version)
		if !c.Valid() || strings.Contains(c.String(), "${") {
			return nil, fmt.Errorf("%s: cannot resolve imported BOM %s", m.coord, c)
		}
		r.logger.Debug("importing managed dependencies", "project", m.coord, "bom", c)
		ipom, err := r.client.FetchPOM(ctx, c)
		if err != nil {
			return nil, fmt.Errorf("%s: import %s: %w", m.coord, c, err)
		}
		im, err := r.effective(ctx, ipom, depth+1)
		if err != nil {
			return nil, err
		}
		for _, d := range im.managed {
			if !seen[d.Key()] {
				seen[d.Key()] = true
				m.managed = append(m.managed, d)
			}
		}
	}
	return m, nil
}

// lineage returns pom followed by its ancestors, nearest first.
func (r *Repository) lineage(ctx context.Context, pom *maven.POM) ([]*maven.POM, error) {
	chain := []*maven.POM{pom}
	visited := map[gav.Coordinate]bool{pom.Coordinate(): true}
	for p := pom; p.Parent.Valid(); {
		if visited[p.Parent] {
			return nil, fmt.Errorf("%s: parent cycle through %s", pom.Coordinate(), p.Parent)
		}
		if len(chain) > maxDepth {
			return nil, fmt.Errorf("%s: parent chain deeper than %d", pom.Coordinate(), maxDepth)
		}
		visited[p.Parent] = true
		parent, err := r.client.FetchPOM(ctx, p.Parent)
		if err != nil {
			return nil, fmt.Errorf("%s: parent %s: %w", pom.Coordinate(), p.Parent, err)
		}
		chain = append(chain, parent)
		p = parent
	}
	return chain, nil
}

func interpolateDependency(d maven.Dependency, props map[string]string) maven.Dependency {
	d.GroupID = interpolate(d.GroupID, props)
	d.ArtifactID = interpolate(d.ArtifactID, props)
	d.Version = interpolate(d.Version, props)
	d.Type = interpolate(d.Type, props)
	d.Classifier = interpolate(d.Classifier, props)
	d.Scope = interpolate(d.Scope, props)
	return d
}

// interpolate substitutes ${name} expressions. Unknown names are left in
// place, as Maven does. Values may refer to other properties.
func interpolate(s string, props map[string]string) string {
	for range maxDepth {
		if !strings.Contains(s, "${") {
			return s
		}
		next := expression.ReplaceAllStringFunc(s, func(expr string) string {
			if v, ok := props[expr[2:len(expr)-1]]; ok {
				return v
			}
			return expr
		})
		if next == s {
			return s
		}
		s = next
	}
	return s
}
