// Package query composes dynamic selection queries for the snapshot engine.
//
// A snapshot rule names its source entity and fields only as strings, so
// queries are rendered at run time from the resolved field map and the
// rule's entry criteria:
//
//	SELECT id, f1, f2 FROM <entity> WHERE <criteria>
//
// The field list is always deduplicated, sorted, and prefixed with the
// implicit identifier; an empty field map degrades to an identifier-only
// projection rather than a malformed empty SELECT.
//
// Entry criteria is inserted verbatim. It is operator configuration, vetted
// by the pre-flight validators before a rule may run; the builder performs
// no escaping or semantic checking of it.
package query
