// Package catalog provides runtime schema discovery for snapforge.
//
// The snapshot engine operates over entity types and field names that are
// unknown at build time. The Catalog interface is the capability boundary
// for that dynamism: resolve an entity type by name, ask whether a field
// exists, and allocate empty records of the type.
//
// Two implementations:
//
//   - SQLite reads the live schema of the backing store. Entity types are
//     ordinary tables (created STRICT so type mismatches fail at insert);
//     fields are columns discovered through PRAGMA table_info.
//   - Memory is a fake for tests that need schema answers without a
//     database.
//
// Every entity carries an implicit "id" text column as its identifier.
// Entity and field names are NFC-normalized before lookup.
package catalog
