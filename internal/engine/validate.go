package engine

import (
	"context"

	"github.com/harwell-labs/snapforge/internal/catalog"
	"github.com/harwell-labs/snapforge/internal/query"
	"github.com/harwell-labs/snapforge/internal/rule"
	"github.com/harwell-labs/snapforge/internal/store"
)

// Validator runs pre-flight checks on a rule's configuration. All checks are
// pure boolean predicates: they never return an error, because the decision
// to reject a configuration change belongs to the caller. Nothing invokes
// them automatically at run time; they exist to be called before a rule is
// saved or activated.
type Validator struct {
	Catalog catalog.Catalog
	Store   *store.Store
}

// EntitiesValid reports whether both the source and target entity names
// resolve in the schema catalog.
func (v *Validator) EntitiesValid(r rule.Rule) bool {
	if _, ok := v.Catalog.Resolve(r.SourceEntity); !ok {
		return false
	}
	if _, ok := v.Catalog.Resolve(r.TargetEntity); !ok {
		return false
	}
	return true
}

// FieldsValid reports whether a mapping's source field exists on the rule's
// source entity and its target field exists on the target entity. False also
// covers an unresolvable entity, since a field cannot exist on it.
func (v *Validator) FieldsValid(r rule.Rule, m rule.Mapping) bool {
	src, ok := v.Catalog.Resolve(r.SourceEntity)
	if !ok || !src.HasField(m.SourceField) {
		return false
	}
	dst, ok := v.Catalog.Resolve(r.TargetEntity)
	if !ok || !dst.HasField(m.TargetField) {
		return false
	}
	return true
}

// MappingsValid reports whether every one of the rule's mappings passes
// FieldsValid.
func (v *Validator) MappingsValid(r rule.Rule, mappings []rule.Mapping) bool {
	for _, m := range mappings {
		if !v.FieldsValid(r, m) {
			return false
		}
	}
	return true
}

// CriteriaValid probes the rule's entry criteria with an identifier-only,
// single-row query. Any failure (a syntax error, an unknown field in the
// predicate) is converted into false; a valid predicate that matches zero
// records is still valid. This turns what would otherwise be a late runtime
// query failure into an early, side-effect-free check.
func (v *Validator) CriteriaValid(ctx context.Context, r rule.Rule) bool {
	if _, ok := v.Catalog.Resolve(r.SourceEntity); !ok {
		return false
	}
	_, err := v.Store.ExecuteQuery(ctx, query.Probe(r.SourceEntity, r.EntryCriteria))
	return err == nil
}
