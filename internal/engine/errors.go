package engine

import (
	"errors"
	"fmt"
)

// ErrorCode categorizes snapshot run errors.
type ErrorCode string

const (
	// ErrCodeRuleNotFound indicates the rule id matched no configuration record.
	ErrCodeRuleNotFound ErrorCode = "RULE_NOT_FOUND"

	// ErrCodeRuleAmbiguous indicates the rule id matched more than one record.
	ErrCodeRuleAmbiguous ErrorCode = "RULE_AMBIGUOUS"

	// ErrCodeMappingInvalid indicates malformed field-mapping configuration.
	ErrCodeMappingInvalid ErrorCode = "MAPPING_INVALID"

	// ErrCodeEntityUnresolved indicates the source or target entity name does
	// not resolve in the schema catalog.
	ErrCodeEntityUnresolved ErrorCode = "ENTITY_UNRESOLVED"

	// ErrCodeQueryFailed indicates the dynamic selection could not be executed.
	ErrCodeQueryFailed ErrorCode = "QUERY_FAILED"

	// ErrCodePersistFailed indicates the batch commit violated a storage
	// constraint. Always paired with checkpoint rollback: no partial writes.
	ErrCodePersistFailed ErrorCode = "PERSIST_FAILED"
)

// RunError is an error raised while constructing or running a snapshot
// executor. The code identifies which stage failed; the rule id scopes it.
type RunError struct {
	Code   ErrorCode
	RuleID string
	Err    error
}

// Error implements the error interface.
func (e *RunError) Error() string {
	if e.RuleID != "" {
		return fmt.Sprintf("%s: rule %s: %v", e.Code, e.RuleID, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Code, e.Err)
}

func (e *RunError) Unwrap() error {
	return e.Err
}

func newRunError(code ErrorCode, ruleID string, err error) *RunError {
	return &RunError{Code: code, RuleID: ruleID, Err: err}
}

// IsConfigurationError reports whether the error stems from rule
// configuration (missing rule, ambiguous id, malformed mappings). These
// surface from construction and are not retried.
func IsConfigurationError(err error) bool {
	switch codeOf(err) {
	case ErrCodeRuleNotFound, ErrCodeRuleAmbiguous, ErrCodeMappingInvalid:
		return true
	}
	return false
}

// IsSchemaError reports whether an entity name failed to resolve.
func IsSchemaError(err error) bool {
	return codeOf(err) == ErrCodeEntityUnresolved
}

// IsQueryError reports whether dynamic query execution failed.
func IsQueryError(err error) bool {
	return codeOf(err) == ErrCodeQueryFailed
}

// IsPersistenceError reports whether the batch commit failed.
func IsPersistenceError(err error) bool {
	return codeOf(err) == ErrCodePersistFailed
}

func codeOf(err error) ErrorCode {
	var re *RunError
	if errors.As(err, &re) {
		return re.Code
	}
	return ""
}
