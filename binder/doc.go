// Package binder populates request structs from JSON bodies, URL path
// parameters and query strings. Binders are plain functions so handler.Wrap
// can chain them; a binder that has nothing to read returns
// ErrBinderNotApplicable and is skipped.
package binder
