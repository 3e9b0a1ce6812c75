package types

import "github.com/m-mizutani/goerr/v2"

// CategoryID is a configured ticket category identifier (e.g. "reportBug").
type CategoryID string

func (id CategoryID) String() string { return string(id) }

func (id CategoryID) Validate() error {
	if id == "" {
		return goerr.New("category ID is required")
	}
	for _, c := range id {
		if !((c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9')) {
			return goerr.New("category ID must be alphanumeric", goerr.V("category", string(id)))
		}
	}
	return nil
}
