// Package types defines the catalog entities (Item, Category,
// CustomFieldDefinition), the Adapter interface implemented by every
// storage backend, query/sort/pagination descriptors, and the standard
// errors shared across the Curio storage system.
package types
