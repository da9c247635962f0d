package decoder

import (
	"errors"
	"fmt"
	"strings"
)

var (
	errEmpty    = errors.New("empty response")
	errTrailing = errors.New("unexpected content after JSON document")
)

// MalformedResponseError means the provider text could not be parsed as JSON.
// Raw keeps the original text for logging.
type MalformedResponseError struct {
	Raw string
	Err error
}

func (e *MalformedResponseError) Error() string {
	return fmt.Sprintf("malformed provider response: %v", e.Err)
}

func (e *MalformedResponseError) Unwrap() error {
	return e.Err
}

// ContractViolationError means the response parsed but does not satisfy the
// structure the caller asked for.
type ContractViolationError struct {
	Schema     string
	Violations []string
}

func (e *ContractViolationError) Error() string {
	return fmt.Sprintf("response violates %s contract: %s", e.Schema, strings.Join(e.Violations, "; "))
}

// IsMalformed reports whether err wraps a MalformedResponseError.
func IsMalformed(err error) bool {
	var m *MalformedResponseError
	return errors.As(err, &m)
}

// IsContractViolation reports whether err wraps a ContractViolationError.
func IsContractViolation(err error) bool {
	var c *ContractViolationError
	return errors.As(err, &c)
}
