package resource

import (
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

const fieldRequiredSuffix = " is required"

// GetFieldFromFieldRequiredError returns the field named by an error from
// utils.NewConfigValidationFieldRequiredError, or the empty string when err is not one.
func GetFieldFromFieldRequiredError(err error) string {
	if err == nil {
		return ""
	}
	msg := errors.Cause(err).Error()
	if !strings.HasSuffix(msg, fieldRequiredSuffix) {
		return ""
	}
	field, unquoteErr := strconv.Unquote(strings.TrimSuffix(msg, fieldRequiredSuffix))
	if unquoteErr != nil {
		return ""
	}
	return field
}
