package maven

import (
	"github.com/scijava/javadoc-wrangler/pkg/gav"
	"github.com/scijava/javadoc-wrangler/pkg/xmldoc"
)

// POM holds the parts of a project model used to compute managed
// dependencies. Values are raw; ${...} expressions are not interpolated.
type POM struct {
	GroupID    string
	ArtifactID string
	Version    string
	Packaging  string

	// Parent is the zero Coordinate when the POM declares no parent.
	Parent gav.Coordinate

	// Properties keep declaration order so rendering is stable.
	Properties []Property

	DependencyManagement []Dependency
}

// Property is one entry of the <properties> section.
type Property struct {
	Name  string
	Value string
}

// Dependency is one <dependency> entry.
type Dependency struct {
	GroupID    string
	ArtifactID string
	Version    string
	Type       string
	Classifier string
	Scope      string
	Optional   string
	Exclusions []Exclusion
}

// Exclusion is one <exclusion> entry of a dependency.
type Exclusion struct {
	GroupID    string
	ArtifactID string
}

// Key identifies a managed dependency the way Maven does when merging
// dependencyManagement sections.
func (d Dependency) Key() string {
	typ := d.Type
	if typ == "" {
		typ = gav.TypeJAR
	}
	return d.GroupID + ":" + d.ArtifactID + ":" + typ + ":" + d.Classifier
}

// Coordinate returns the project's own coordinate, inheriting groupId and
// version from the parent when they are not declared.
func (p *POM) Coordinate() gav.Coordinate {
	g, v := p.GroupID, p.Version
	if g == "" {
		g = p.Parent.GroupID
	}
	if v == "" {
		v = p.Parent.Version
	}
	return gav.New(g, p.ArtifactID, v)
}

// ParsePOM extracts a POM from a parsed document.
func ParsePOM(doc *xmldoc.Document) *POM {
	root := doc.Root
	p := &POM{
		GroupID:    root.TextAt("groupId"),
		ArtifactID: root.TextAt("artifactId"),
		Version:    root.TextAt("version"),
		Packaging:  root.TextAt("packaging"),
		Parent: gav.New(
			root.TextAt("parent/groupId"),
			root.TextAt("parent/artifactId"),
			root.TextAt("parent/version"),
		),
	}
	if props := root.Child("properties"); props != nil {
		for _, n := range props.Children {
			p.Properties = append(p.Properties, Property{Name: n.Name, Value: n.Text})
		}
	}
	for _, n := range root.Elements("dependencyManagement/dependencies/dependency") {
		p.DependencyManagement = append(p.DependencyManagement, parseDependency(n))
	}
	return p
}

func parseDependency(n *xmldoc.Node) Dependency {
	d := Dependency{
		GroupID:    n.TextAt("groupId"),
		ArtifactID: n.TextAt("artifactId"),
		Version:    n.TextAt("version"),
		Type:       n.TextAt("type"),
		Classifier: n.TextAt("classifier"),
		Scope:      n.TextAt("scope"),
		Optional:   n.TextAt("optional"),
	}
	for _, e := range n.Elements("exclusions/exclusion") {
		d.Exclusions = append(d.Exclusions, Exclusion{
			GroupID:    e.TextAt("groupId"),
			ArtifactID: e.TextAt("artifactId"),
		})
	}
	return d
}
