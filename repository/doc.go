// Package repository implements the generic catalog repository on Bun:
// paged and filtered reads with relation includes, free-text search,
// staged inserts and deletes committed through a per-session unit of work,
// immediate replacement updates and atomic counters.
package repository
