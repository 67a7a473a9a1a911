package rules

import (
	"encoding/json"
	"time"

	"github.com/marketap/marketap-sdk-go/internal/model"
	"github.com/marketap/marketap-sdk-go/internal/value"
)

// IsTriggered reports whether event fires the trigger condition. The event
// name must match exactly; with no property conditions that alone suffices.
// Otherwise the outer list is OR and each inner group is AND.
func IsTriggered(cond model.TriggerCondition, event model.Event, device value.Object, now time.Time) bool {
	if cond.EventFilter.EventName != event.Name {
		return false
	}
	if len(cond.PropertyConditions) == 0 {
		return true
	}
	for _, group := range cond.PropertyConditions {
		if groupMatched(group, event, device, now) {
			return true
		}
	}
	return false
}

func groupMatched(group []model.PropertyCondition, event model.Event, device value.Object, now time.Time) bool {
	for _, pc := range group {
		if !propertyMatched(pc, event, device, now) {
			return false
		}
	}
	return true
}

// propertyMatched resolves the clause's source value and compares it.
//
// ITEM-path clauses evaluate each entry of the event's item list
// independently and aggregate: negative-family operators require every item
// to satisfy the clause, positive operators require at least one. A missing
// field resolves to null, which only IS_NULL matches.
func propertyMatched(pc model.PropertyCondition, event model.Event, device value.Object, now time.Time) bool {
	if pc.Path == model.PathItem {
		items, ok := event.Properties[model.PropItems].(value.Array)
		if !ok {
			return false
		}
		return itemsMatched(pc, items, now)
	}

	var src value.Value
	switch pc.Path {
	case model.PathDevice:
		src = device[pc.PropertyName]
	default:
		src = event.Properties[pc.PropertyName]
	}
	return compare(pc.DataType, pc.Operator, src, pc.TargetValues, now)
}

func itemsMatched(pc model.PropertyCondition, items value.Array, now time.Time) bool {
	matchOne := func(item value.Value) bool {
		obj, ok := item.(value.Object)
		if !ok {
			return compare(pc.DataType, pc.Operator, value.Null{}, pc.TargetValues, now)
		}
		return compare(pc.DataType, pc.Operator, obj[pc.PropertyName], pc.TargetValues, now)
	}

	if pc.Operator.IsNegative() {
		for _, item := range items {
			if !matchOne(item) {
				return false
			}
		}
		return true
	}
	for _, item := range items {
		if matchOne(item) {
			return true
		}
	}
	return false
}

// DeviceObject flattens a device snapshot into the property bag that
// DEVICE-path clauses resolve against, keyed by the wire field names.
func DeviceObject(device model.Device) value.Object {
	raw, err := json.Marshal(device)
	if err != nil {
		return value.Object{}
	}
	v, err := value.Decode(raw)
	if err != nil {
		return value.Object{}
	}
	obj, ok := v.(value.Object)
	if !ok {
		return value.Object{}
	}
	return obj
}
