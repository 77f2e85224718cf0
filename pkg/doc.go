// Package pkg provides the libraries behind wrangler, which merges the
// javadoc of every component managed by a Maven BOM into one browsable site.
//
// # Overview
//
// The pkg directory is organized into four areas:
//
//  1. Domain types: [gav] (coordinates and artifacts), [xmldoc] (POM reading)
//  2. Repository access: [resolver] (mvn or native), [integrations] (HTTP)
//  3. Processing: [cache], [javadoc], [aggregate], [linkcheck]
//  4. Orchestration: [pipeline]
//
// # Architecture
//
// The data flow for one BOM:
//
//	BOM coordinate
//	     ↓
//	[resolver] effective POM → dependencyManagement components
//	     ↓
//	[cache] javadoc archive per component (negative results remembered)
//	     ↓
//	[javadoc] unpack, rewrite legacy links to the parent BOM's site
//	     ↓
//	[aggregate] append package lists and redirects, squash at the end
//
// # Quick Start
//
//	import (
//	    "github.com/scijava/javadoc-wrangler/pkg/gav"
//	    "github.com/scijava/javadoc-wrangler/pkg/pipeline"
//	    "github.com/scijava/javadoc-wrangler/pkg/resolver"
//	)
//
//	res := resolver.NewMaven("mvn", "", logger)
//	runner := pipeline.NewRunner(pipeline.DefaultConfig("target"), res, logger)
//	result, err := runner.ProcessBOM(ctx, gav.New("org.scijava", "pom-scijava", "37.0.0"))
//
// # Observability
//
// [observability] exposes hooks for pipeline, cache and HTTP events. They
// are no-ops until the application registers its own.
//
// [gav]: github.com/scijava/javadoc-wrangler/pkg/gav
// [xmldoc]: github.com/scijava/javadoc-wrangler/pkg/xmldoc
// [resolver]: github.com/scijava/javadoc-wrangler/pkg/resolver
// [integrations]: github.com/scijava/javadoc-wrangler/pkg/integrations
// [cache]: github.com/scijava/javadoc-wrangler/pkg/cache
// [javadoc]: github.com/scijava/javadoc-wrangler/pkg/javadoc
// [aggregate]: github.com/scijava/javadoc-wrangler/pkg/aggregate
// [linkcheck]: github.com/scijava/javadoc-wrangler/pkg/linkcheck
// [pipeline]: github.com/scijava/javadoc-wrangler/pkg/pipeline
// [observability]: github.com/scijava/javadoc-wrangler/pkg/observability
package pkg
