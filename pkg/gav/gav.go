// Package gav models Maven coordinates: the (groupId, artifactId, version)
// triple that identifies a published release, and the typed artifacts
// (POM, javadoc JAR) attached to it.
//
// A [Coordinate] is a plain comparable value. It is used as a map key by the
// pipeline and as the path key for the site and work directories:
//
//	c := gav.New("org.scijava", "scijava-common", "2.90.0")
//	c.String()   // "org.scijava:scijava-common:2.90.0"
//	c.Path()     // "org.scijava/scijava-common/2.90.0"
//
// Coordinates are never normalized; two coordinates are equal only when all
// three fields match exactly, case included.
package gav

import (
	"fmt"
	"path"
	"strings"
)

// Coordinate is an immutable (groupId, artifactId, version) triple.
type Coordinate struct {
	GroupID    string
	ArtifactID string
	Version    string
}

// New creates a Coordinate from its three fields.
func New(groupID, artifactID, version string) Coordinate {
	return Coordinate{GroupID: groupID, ArtifactID: artifactID, Version: version}
}

// Parse parses a "groupId:artifactId:version" string.
// Exactly three colon-separated fields are required; empty fields are
// accepted here and reported by [Coordinate.Valid].
func Parse(s string) (Coordinate, error) {
	parts := strings.Split(s, ":")
	if len(parts) != 3 {
		return Coordinate{}, fmt.Errorf("invalid coordinate %q (expected groupId:artifactId:version)", s)
	}
	return New(parts[0], parts[1], parts[2]), nil
}

// Valid reports whether all three fields are non-empty.
func (c Coordinate) Valid() bool {
	return c.GroupID != "" && c.ArtifactID != "" && c.Version != ""
}

// String returns "groupId:artifactId:version".
func (c Coordinate) String() string {
	return c.GroupID + ":" + c.ArtifactID + ":" + c.Version
}

// Path returns the slash-separated "groupId/artifactId/version" key used for
// on-disk layouts. The groupId keeps its dots.
func (c Coordinate) Path() string {
	return path.Join(c.GroupID, c.ArtifactID, c.Version)
}

// Artifact is a file attached to a coordinate, identified by its packaging
// type and optional classifier.
type Artifact struct {
	Coordinate
	Type       string // "pom", "jar"
	Classifier string // "javadoc", "sources", or empty
}

// Common artifact types and classifiers.
const (
	TypePOM = "pom"
	TypeJAR = "jar"

	ClassifierJavadoc = "javadoc"
)

// POM returns the POM artifact of c.
func POM(c Coordinate) Artifact {
	return Artifact{Coordinate: c, Type: TypePOM}
}

// Javadoc returns the javadoc JAR artifact of c.
func Javadoc(c Coordinate) Artifact {
	return Artifact{Coordinate: c, Type: TypeJAR, Classifier: ClassifierJavadoc}
}

// FileName returns the repository file name of the artifact:
// "artifactId-version[-classifier].type".
func (a Artifact) FileName() string {
	name := a.ArtifactID + "-" + a.Version
	if a.Classifier != "" {
		name += "-" + a.Classifier
	}
	return name + "." + a.Type
}

// String returns the Maven artifact spec "g:a:v:type[:classifier]" as
// accepted by dependency:copy.
func (a Artifact) String() string {
	s := a.Coordinate.String() + ":" + a.Type
	if a.Classifier != "" {
		s += ":" + a.Classifier
	}
	return s
}

// RepositoryPath returns the artifact's path inside a Maven repository
// layout: "group/path/artifactId/version/fileName".
func (a Artifact) RepositoryPath() string {
	return path.Join(strings.ReplaceAll(a.GroupID, ".", "/"), a.ArtifactID, a.Version, a.FileName())
}
