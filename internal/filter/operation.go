// Package filter implements the filterable-field catalog and the pure
// evaluator that decides which transactions are visible.
package filter

// ValueType is the declared type of a filterable field.
type ValueType string

// Value types.
const (
	TypeText        ValueType = "text"
	TypeNumber      ValueType = "number"
	TypeDate        ValueType = "date"
	TypeSelect      ValueType = "single-select"
	TypeMultiSelect ValueType = "multi-select"
)

// IsSelect reports whether t draws its values from an option list.
func (t ValueType) IsSelect() bool {
	return t == TypeSelect || t == TypeMultiSelect
}

// OpKey identifies a filter operation.
type OpKey string

// Operation keys.
const (
	OpIs           OpKey = "is"
	OpIsNot        OpKey = "is_not"
	OpIn           OpKey = "in"
	OpNotIn        OpKey = "not_in"
	OpEquals       OpKey = "equals"
	OpNotEquals    OpKey = "not_equals"
	OpContains     OpKey = "contains"
	OpNotContains  OpKey = "not_contains"
	OpStartsWith   OpKey = "starts_with"
	OpEndsWith     OpKey = "ends_with"
	OpGreaterThan  OpKey = "greater_than"
	OpLessThan     OpKey = "less_than"
	OpGreaterEqual OpKey = "greater_equal"
	OpLessEqual    OpKey = "less_equal"
	OpBetween      OpKey = "between"
	OpBefore       OpKey = "before"
	OpAfter        OpKey = "after"
)

// Negated reports whether the operation is the negation of a positive test.
// Negated operations match records that lack the field.
func (k OpKey) Negated() bool {
	switch k {
	case OpIsNot, OpNotEquals, OpNotContains, OpNotIn:
		return true
	}
	return false
}

// TakesList reports whether the operation compares against a list of options.
func (k OpKey) TakesList() bool {
	return k == OpIn || k == OpNotIn
}

// Operation is a labelled operator scoped to the value types it applies to.
type Operation struct {
	Key   OpKey
	Label string
	Types []ValueType
}

// Supports reports whether the operation is legal for values of type t.
func (o Operation) Supports(t ValueType) bool {
	for _, candidate := range o.Types {
		if candidate == t {
			return true
		}
	}
	return false
}

var selectTypes = []ValueType{TypeSelect, TypeMultiSelect}

var operations = map[OpKey]Operation{
	OpIs:           {Key: OpIs, Label: "is", Types: selectTypes},
	OpIsNot:        {Key: OpIsNot, Label: "is not", Types: selectTypes},
	OpIn:           {Key: OpIn, Label: "is in", Types: selectTypes},
	OpNotIn:        {Key: OpNotIn, Label: "is not in", Types: selectTypes},
	OpEquals:       {Key: OpEquals, Label: "equals", Types: []ValueType{TypeText, TypeNumber, TypeDate}},
	OpNotEquals:    {Key: OpNotEquals, Label: "does not equal", Types: []ValueType{TypeText, TypeNumber, TypeDate}},
	OpContains:     {Key: OpContains, Label: "contains", Types: []ValueType{TypeText}},
	OpNotContains:  {Key: OpNotContains, Label: "does not contain", Types: []ValueType{TypeText}},
	OpStartsWith:   {Key: OpStartsWith, Label: "starts with", Types: []ValueType{TypeText}},
	OpEndsWith:     {Key: OpEndsWith, Label: "ends with", Types: []ValueType{TypeText}},
	OpGreaterThan:  {Key: OpGreaterThan, Label: "is greater than", Types: []ValueType{TypeNumber}},
	OpLessThan:     {Key: OpLessThan, Label: "is less than", Types: []ValueType{TypeNumber}},
	OpGreaterEqual: {Key: OpGreaterEqual, Label: "is at least", Types: []ValueType{TypeNumber}},
	OpLessEqual:    {Key: OpLessEqual, Label: "is at most", Types: []ValueType{TypeNumber}},
	OpBetween:      {Key: OpBetween, Label: "is between", Types: []ValueType{TypeNumber, TypeDate}},
	OpBefore:       {Key: OpBefore, Label: "is before", Types: []ValueType{TypeDate}},
	OpAfter:        {Key: OpAfter, Label: "is after", Types: []ValueType{TypeDate}},
}

// LookupOperation returns the operation registered under key.
func LookupOperation(key OpKey) (Operation, bool) {
	op, ok := operations[key]
	return op, ok
}
