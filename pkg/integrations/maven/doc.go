// Package maven reads a Maven repository over HTTP.
//
// # Overview
//
// [Client] resolves the latest release of an artifact from its
// maven-metadata.xml, fetches POMs, and downloads attached artifacts such
// as javadoc JARs. Paths follow the standard repository layout:
//
//	<base>/org/scijava/pom-scijava/maven-metadata.xml
//	<base>/org/scijava/pom-scijava/37.0.0/pom-scijava-37.0.0.pom
//
// # Usage
//
//	client := maven.NewClient(maven.CentralURL, cache)
//	version, err := client.LatestRelease(ctx, "org.scijava", "pom-scijava", false)
//
// # Caching
//
// Release lookups go through the shared metadata cache and honour its TTL;
// pass refresh=true to bypass it. POMs of released versions are immutable
// and cached without further checks. Artifact downloads are never cached
// here; the jar store owns that.
//
// # POM Model
//
// [ParsePOM] extracts the parts of a POM needed to compute managed
// dependency versions: coordinates, parent, properties, and the
// dependencyManagement section.
package maven
