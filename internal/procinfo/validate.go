package procinfo

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/HerbHall/procinfo/pkg/models"
)

// ErrConfig is matched by every *ConfigError.
var ErrConfig = errors.New("invalid procinfo configuration")

// ConfigError lists every offending key of a procinfo configuration.
type ConfigError struct {
	Unrecognized []string
	Invalid      []string
}

func (e *ConfigError) Error() string {
	var parts []string
	if len(e.Unrecognized) > 0 {
		parts = append(parts, "unrecognized keys: "+strings.Join(e.Unrecognized, ", "))
	}
	if len(e.Invalid) > 0 {
		parts = append(parts, "invalid values for: "+strings.Join(e.Invalid, ", "))
	}
	return fmt.Sprintf("%v: %s", ErrConfig, strings.Join(parts, "; "))
}

func (e *ConfigError) Unwrap() error {
	return ErrConfig
}

// Validate turns a category flag mapping into a CategorySet. Every key is
// classified before any is used; the error names all unrecognized keys and
// all non-boolean values. params is not modified.
func Validate(params map[string]any) (models.CategorySet, error) {
	set := make(models.CategorySet, len(params))
	var cerr ConfigError
	for key, val := range params {
		c, ok := models.ParseCategory(key)
		if !ok {
			cerr.Unrecognized = append(cerr.Unrecognized, key)
			continue
		}
		on, ok := val.(bool)
		if !ok {
			cerr.Invalid = append(cerr.Invalid, key)
			continue
		}
		set[c] = on
	}
	if len(cerr.Unrecognized) > 0 || len(cerr.Invalid) > 0 {
		sort.Strings(cerr.Unrecognized)
		sort.Strings(cerr.Invalid)
		return nil, &cerr
	}
	return set, nil
}
