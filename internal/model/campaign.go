package model

import "github.com/marketap/marketap-sdk-go/internal/value"

// Operator is a condition comparison operator. The set is fixed and closed;
// unknown operators fail closed during evaluation.
type Operator string

const (
	OpEqual              Operator = "EQUAL"
	OpNotEqual           Operator = "NOT_EQUAL"
	OpGreaterThan        Operator = "GREATER_THAN"
	OpGreaterThanOrEqual Operator = "GREATER_THAN_OR_EQUAL"
	OpLessThan           Operator = "LESS_THAN"
	OpLessThanOrEqual    Operator = "LESS_THAN_OR_EQUAL"
	OpIn                 Operator = "IN"
	OpNotIn              Operator = "NOT_IN"
	OpBetween            Operator = "BETWEEN"
	OpNotBetween         Operator = "NOT_BETWEEN"
	OpLike               Operator = "LIKE"
	OpNotLike            Operator = "NOT_LIKE"
	OpArrayLike          Operator = "ARRAY_LIKE"
	OpArrayNotLike       Operator = "ARRAY_NOT_LIKE"
	OpIsNull             Operator = "IS_NULL"
	OpIsNotNull          Operator = "IS_NOT_NULL"
	OpYearEqual          Operator = "YEAR_EQUAL"
	OpMonthEqual         Operator = "MONTH_EQUAL"
	OpYearMonthEqual     Operator = "YEAR_MONTH_EQUAL"
	OpContains           Operator = "CONTAINS"
	OpNotContains        Operator = "NOT_CONTAINS"
	OpAny                Operator = "ANY"
	OpNone               Operator = "NONE"
	OpBefore             Operator = "BEFORE"
	OpPast               Operator = "PAST"
	OpWithinPast         Operator = "WITHIN_PAST"
	OpAfter              Operator = "AFTER"
	OpRemaining          Operator = "REMAINING"
	OpWithinRemaining    Operator = "WITHIN_REMAINING"
)

// IsNegative reports whether the operator belongs to the negative family.
// For item-path conditions, negative operators require every item to
// satisfy the clause; positive operators require at least one.
func (o Operator) IsNegative() bool {
	switch o {
	case OpNotEqual, OpNotIn, OpNotBetween, OpNotLike, OpArrayNotLike,
		OpIsNotNull, OpNotContains, OpNone:
		return true
	default:
		return false
	}
}

// DataType declares how a property value is compared.
type DataType string

const (
	TypeString      DataType = "STRING"
	TypeInt         DataType = "INT"
	TypeBigint      DataType = "BIGINT"
	TypeDouble      DataType = "DOUBLE"
	TypeBoolean     DataType = "BOOLEAN"
	TypeDatetime    DataType = "DATETIME"
	TypeDate        DataType = "DATE"
	TypeObject      DataType = "OBJECT"
	TypeArrayString DataType = "ARRAY_STRING"
)

// IsNumeric reports whether the data type shares the numeric operator set.
// INT, BIGINT and DOUBLE are one numeric domain.
func (t DataType) IsNumeric() bool {
	return t == TypeInt || t == TypeBigint || t == TypeDouble
}

// Path selects where a property is extracted from.
type Path string

const (
	PathEvent  Path = "EVENT"
	PathDevice Path = "DEVICE"
	PathItem   Path = "ITEM"
)

// PropertyCondition is a single comparison clause.
type PropertyCondition struct {
	PropertyName string      `json:"property_name"`
	DataType     DataType    `json:"data_type"`
	Path         Path        `json:"path,omitempty"`
	Operator     Operator    `json:"operator"`
	TargetValues value.Array `json:"target_values"`
}

// EventFilter names the event a trigger condition applies to.
type EventFilter struct {
	EventName string `json:"event_name"`
}

// FrequencyCap limits impressions within a sliding window.
type FrequencyCap struct {
	Limit           int `json:"limit"`
	DurationMinutes int `json:"duration_minutes"`
}

// TriggerCondition is the OR-of-AND rule tree deciding whether an event
// fires a campaign. The outer PropertyConditions list is OR; each inner
// group must match in full (AND).
type TriggerCondition struct {
	EventFilter        EventFilter           `json:"event_filter"`
	PropertyConditions [][]PropertyCondition `json:"property_conditions,omitempty"`
	FrequencyCap       *FrequencyCap         `json:"frequency_cap,omitempty"`
	DelayMinutes       int                   `json:"delay_minutes,omitempty"`
}

// Layout describes how a campaign renders.
type Layout struct {
	LayoutType    string   `json:"layout_type"`
	LayoutSubType string   `json:"layout_sub_type,omitempty"`
	Orientations  []string `json:"orientations,omitempty"`
}

// Campaign is a server-authored trigger condition plus renderable payload.
// Immutable once fetched.
type Campaign struct {
	ID               string           `json:"id"`
	Layout           Layout           `json:"layout"`
	TriggerCondition TriggerCondition `json:"trigger_condition"`
	HTML             string           `json:"html,omitempty"`
	UpdatedAt        string           `json:"updated_at,omitempty"`
}
