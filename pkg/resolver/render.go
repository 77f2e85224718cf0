package resolver

import (
	"bytes"
	"encoding/xml"
	"strings"

	"github.com/scijava/javadoc-wrangler/pkg/integrations/maven"
)

// render writes the model in the layout of help:effective-pom: two spaces
// per nesting level, one element per line.
func (m *model) render() []string {
	var w pomWriter
	w.raw(`<?xml version="1.0" encoding="UTF-8"?>`)
	w.raw(`<project xmlns="http://maven.apache.org/POM/4.0.0" xmlns:xsi="http://www.w3.org/2001/XMLSchema-instance" xsi:schemaLocation="http://maven.apache.org/POM/4.0.0 https://maven.apache.org/xsd/maven-4.0.0.xsd">`)
	w.depth++
	w.text("modelVersion", "4.0.0")
	if m.parent.Valid() {
		w.open("parent")
		w.text("groupId", m.parent.GroupID)
		w.text("artifactId", m.parent.ArtifactID)
		w.text("version", m.parent.Version)
		w.close("parent")
	}
	w.text("groupId", m.coord.GroupID)
	w.text("artifactId", m.coord.ArtifactID)
	w.text("version", m.coord.Version)
	w.text("packaging", m.packaging)
	if len(m.properties) > 0 {
		w.open("properties")
		for _, p := range m.properties {
			w.text(p.Name, p.Value)
		}
		w.close("properties")
	}
	w.open("dependencyManagement")
	w.open("dependencies")
	for _, d := range m.managed {
		w.dependency(d)
	}
	w.close("dependencies")
	w.close("dependencyManagement")
	w.depth--
	w.raw("</project>")
	return w.lines
}

type pomWriter struct {
	lines []string
	depth int
}

func (w *pomWriter) raw(s string) {
	w.lines = append(w.lines, indent(w.depth)+s+"\n")
}

func (w *pomWriter) open(name string) {
	w.raw("<" + name + ">")
	w.depth++
}

func (w *pomWriter) close(name string) {
	w.depth--
	w.raw("</" + name + ">")
}

func (w *pomWriter) text(name, value string) {
	if value == "" {
		return
	}
	var buf bytes.Buffer
	_ = xml.EscapeText(&buf, []byte(value))
	w.raw("<" + name + ">" + buf.String() + "</" + name + ">")
}

func (w *pomWriter) dependency(d maven.Dependency) {
	w.open("dependency")
	w.text("groupId", d.GroupID)
	w.text("artifactId", d.ArtifactID)
	w.text("version", d.Version)
	w.text("type", d.Type)
	w.text("classifier", d.Classifier)
	w.text("scope", d.Scope)
	w.text("optional", d.Optional)
	if len(d.Exclusions) > 0 {
		w.open("exclusions")
		for _, e := range d.Exclusions {
			w.open("exclusion")
			w.text("groupId", e.GroupID)
			w.text("artifactId", e.ArtifactID)
			w.close("exclusion")
		}
		w.close("exclusions")
	}
	w.close("dependency")
}

func indent(depth int) string {
	return strings.Repeat("  ", depth)
}
