// Package io provides crash-safe file writes for the site, work and jar
// trees.
//
// Every file the pipeline treats as proof of finished work (a completion
// marker, a negative cache marker, a squashed accumulator) is written to a
// temporary sibling first and renamed into place, so a reader sees either
// the old content or the new one, never a torn write:
//
//	if err := io.WriteFile(path, data, 0o644); err != nil { ... }
//	if err := io.Touch(marker); err != nil { ... }
//
// Importers usually alias the package as pkgio to keep the standard io
// package in scope.
package io
