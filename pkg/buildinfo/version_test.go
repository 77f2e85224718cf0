package buildinfo

import (
	"strings"
	"testing"
)

func TestTemplate(t *testing.T) {
	orig := Version
	defer func() { Version = orig }()

	Version = "v1.2.3"
	if got := Template(); !strings.Contains(got, "version v1.2.3") || !strings.HasPrefix(got, "{{.Name}}") {
		t.Errorf("Template() = %q", got)
	}
	if got := String(); !strings.HasPrefix(got, "version: v1.2.3\n") {
		t.Errorf("String() = %q", got)
	}
}

func TestUserAgent(t *testing.T) {
	orig := Version
	defer func() { Version = orig }()

	Version = "v0.3.0"
	if got := UserAgent(); got != "javadoc-wrangler/v0.3.0" {
		t.Errorf("UserAgent() = %q", got)
	}
}
