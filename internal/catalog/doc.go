// Package catalog loads table schemas into a type environment.
//
// A catalog maps table names to records of column types. Catalogs are
// written in CUE or YAML; a directory of catalog files is merged into one
// catalog, and declaring a table twice is an error. Every error names the
// file, line and column of the declaration at fault.
//
// Column types are simple types, optionally wrapped once in Optional.
// Records and table references are not column types.
package catalog
