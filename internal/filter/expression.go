package filter

import (
	"errors"
	"strings"

	"github.com/Veraticus/ledgerflow/internal/common"
)

// ErrMalformedExpression is returned for expressions missing a part.
var ErrMalformedExpression = errors.New("expected field:operation:value")

// ParseExpression builds a filter from a "field:operation:value" string. The
// value keeps any further colons, so "description:contains:10:30" matches the
// text "10:30".
func ParseExpression(c *Catalog, expr string) (ActiveFilter, error) {
	parts := strings.SplitN(expr, ":", 3)
	if len(parts) != 3 || strings.TrimSpace(parts[0]) == "" || strings.TrimSpace(parts[1]) == "" {
		return ActiveFilter{}, common.NewValidationError("filter", expr, ErrMalformedExpression)
	}
	fieldKey := strings.TrimSpace(parts[0])
	op := OpKey(strings.TrimSpace(parts[1]))

	value, err := c.ParseValue(fieldKey, op, parts[2])
	if err != nil {
		return ActiveFilter{}, err
	}
	return NewActiveFilter(c, fieldKey, op, value)
}
