// Package rule holds the snapshot rule configuration model.
//
// A Rule names a source entity, a target entity, an entry-criteria predicate
// fragment, and a schedule frequency. Its Mappings pair source fields with
// target fields. At execution time a rule is resolved into a FieldMap, a
// source-field-keyed dictionary where a duplicate source field is
// last-wins; that map is the only form the engine works with.
//
// Rules live in the snapshot_rules / field_mappings tables of the backing
// store. Operators author them as CUE definition files, validated against
// the embedded schema and imported with snapforge rules load. Resolution is
// a pure load: existence of the named entities and fields is checked by the
// pre-flight validators, not here.
package rule
