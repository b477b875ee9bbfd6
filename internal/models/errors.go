package models

import (
	"errors"
	"fmt"
)

// ErrFieldDomain is wrapped by every constructor and Validate failure.
var ErrFieldDomain = errors.New("field outside its domain")

// FieldError reports which field of which record broke its domain.
type FieldError struct {
	Entity string
	Key    string
	Field  string
	Value  any
	Reason string
}

func (e *FieldError) Error() string {
	return fmt.Sprintf("%s %s: %s=%v %s", e.Entity, e.Key, e.Field, e.Value, e.Reason)
}

func (e *FieldError) Unwrap() error {
	return ErrFieldDomain
}

// checker accumulates the first domain failure for one record.
type checker struct {
	entity string
	key    string
	err    *FieldError
}

func newChecker(entity, key string) *checker {
	return &checker{entity: entity, key: key}
}

// check records a failure if ok is false and none has been recorded yet.
func (c *checker) check(ok bool, field string, value any, reason string) {
	if ok || c.err != nil {
		return
	}
	c.err = &FieldError{Entity: c.entity, Key: c.key, Field: field, Value: value, Reason: reason}
}

func (c *checker) result() error {
	if c.err == nil {
		return nil
	}
	return c.err
}
