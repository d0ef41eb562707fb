// Package engine implements the snapforge snapshot executor.
//
// A snapshot run is fully serial: resolve the rule's configuration into a
// field map (at construction), compose and execute the dynamic selection,
// translate each source record into a fresh target record via opaque
// field-by-field copies, then commit the batch inside a savepoint
// checkpoint. Dry-run mode rolls the checkpoint back instead of releasing
// it, so the full write path (including storage-layer type and constraint
// checks) runs without leaving data behind.
//
// The engine owns no persistent state and imposes no cross-rule
// coordination. One executor serves one rule; hosts schedule them through
// the invoker package.
//
// Error taxonomy: RunError codes distinguish configuration problems
// (surfaced at construction), schema resolution failures, query failures,
// and persistence failures. The Validator's pre-flight checks never raise;
// they fold the same failures into plain booleans for configuration-time
// use.
package engine
