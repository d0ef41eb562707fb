// Package cli implements the snapforge command line interface.
//
// Commands:
//
//	entities define|list    manage entity types in the schema catalog
//	rules load|list         import and inspect snapshot rule configuration
//	validate <rule-id>      pre-flight check a rule without running it
//	run <rule-id>           execute a rule once (optionally --dry-run)
//	serve                   run all rules on their configured schedules
//
// All commands share --db, --format (text|json), and --verbose. Errors carry
// exit codes: 1 for run/validation failures, 2 for command errors.
package cli
