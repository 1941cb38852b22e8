package codec

import (
	"encoding/hex"
	"encoding/json"
	"strconv"
	"strings"

	"go-multisig/internal/errs"

	"github.com/go-faster/errors"
)

const (
	eventIdxField       = "event_idx"
	eventModuleField    = "module_id"
	eventNameField      = "event_id"
	eventParamsField    = "params"
	eventPhaseField     = "phase"
	eventExtrinsicField = "extrinsic_idx"

	phaseApplyExtrinsic = 0
)

type (
	// Event is one System.Events record.
	Event struct {
		Index int
		// ExtrinsicIndex is -1 for events not emitted while applying an extrinsic.
		ExtrinsicIndex int
		Pallet         string
		Name           string
		Params         []EventParam
	}

	EventParam struct {
		Type  string      `json:"type"`
		Name  string      `json:"name,omitempty"`
		Value interface{} `json:"value"`
	}
)

// Is reports whether the event is pallet.name, compared case-insensitively.
func (e Event) Is(pallet, name string) bool {
	return strings.EqualFold(e.Pallet, pallet) && strings.EqualFold(e.Name, name)
}

func (e Event) Param(i int) (EventParam, bool) {
	if i < 0 || i >= len(e.Params) {
		return EventParam{}, false
	}
	return e.Params[i], true
}

// ParamByName finds a parameter by its field name, falling back to type name.
func (e Event) ParamByName(name string) (EventParam, bool) {
	for _, p := range e.Params {
		if strings.EqualFold(p.Name, name) {
			return p, true
		}
	}
	for _, p := range e.Params {
		if strings.EqualFold(p.Type, name) {
			return p, true
		}
	}
	return EventParam{}, false
}

// FilterByExtrinsic returns the events emitted while applying extrinsic idx.
func FilterByExtrinsic(events []Event, idx int) []Event {
	filtered := []Event{}
	for _, e := range events {
		if e.ExtrinsicIndex == idx {
			filtered = append(filtered, e)
		}
	}
	return filtered
}

// EventsFromDecoded converts the value produced by the metadata driven
// events decoder into typed events.
func EventsFromDecoded(decoded interface{}) ([]Event, error) {
	list, ok := decoded.([]interface{})
	if !ok {
		return nil, errs.NewDecodeError("events", errors.Errorf("unexpected events value %T", decoded))
	}

	events := make([]Event, 0, len(list))
	for i, raw := range list {
		fields, ok := raw.(map[string]interface{})
		if !ok {
			return nil, errs.NewDecodeError("events", errors.Errorf("event %d has type %T", i, raw))
		}

		evt := Event{Index: i, ExtrinsicIndex: -1}
		if idx, ok := toInt(fields[eventIdxField]); ok {
			evt.Index = idx
		}
		evt.Pallet, _ = fields[eventModuleField].(string)
		evt.Name, _ = fields[eventNameField].(string)
		if evt.Pallet == "" || evt.Name == "" {
			return nil, errs.NewDecodeError("events", errors.Errorf("event %d has no module or name", i))
		}

		phase, _ := toInt(fields[eventPhaseField])
		if extrinsicIdx, ok := toInt(fields[eventExtrinsicField]); ok && phase == phaseApplyExtrinsic {
			evt.ExtrinsicIndex = extrinsicIdx
		}

		if params, ok := fields[eventParamsField]; ok && params != nil {
			// params come back as decoder specific structs; normalise through JSON
			rawParams, err := json.Marshal(params)
			if err != nil {
				return nil, errs.NewDecodeError("event params", err)
			}
			if err := json.Unmarshal(rawParams, &evt.Params); err != nil {
				return nil, errs.NewDecodeError("event params", err)
			}
		}
		events = append(events, evt)
	}
	return events, nil
}

// DispatchErrorFromValue interprets a decoded DispatchError value. Module
// errors are resolved to pallet and error names through reg when possible.
func DispatchErrorFromValue(v interface{}, reg Registry) *errs.DispatchError {
	raw, _ := json.Marshal(v)
	dispatchErr := &errs.DispatchError{Raw: string(raw), Index: -1, ErrorIndex: -1}

	switch value := v.(type) {
	case string:
		dispatchErr.Name = value
	case map[string]interface{}:
		for key, inner := range value {
			if !strings.EqualFold(key, "Module") {
				dispatchErr.Name = key
				if s, ok := inner.(string); ok && s != "" {
					dispatchErr.Name = key + "." + s
				}
				continue
			}
			module, ok := inner.(map[string]interface{})
			if !ok {
				continue
			}
			index, _ := toInt(module["index"])
			errorIndex, _ := moduleErrorIndex(module["error"])
			dispatchErr.Index = index
			dispatchErr.ErrorIndex = errorIndex
			if reg != nil {
				if pallet, name, ok := reg.ErrorName(uint8(index), uint8(errorIndex)); ok {
					dispatchErr.Module = pallet
					dispatchErr.Name = name
				}
			}
		}
	}
	return dispatchErr
}

// DispatchResultFromValue interprets a decoded DispatchResult. It returns nil
// for Ok.
func DispatchResultFromValue(v interface{}, reg Registry) *errs.DispatchError {
	value, ok := v.(map[string]interface{})
	if !ok {
		return nil
	}
	for key, inner := range value {
		if strings.EqualFold(key, "Err") || strings.EqualFold(key, "Error") {
			return DispatchErrorFromValue(inner, reg)
		}
	}
	return nil
}

// moduleErrorIndex accepts the plain u8 form and the [u8; 4] form newer
// runtimes use, where the first byte is the error index.
func moduleErrorIndex(v interface{}) (int, bool) {
	switch value := v.(type) {
	case string:
		if strings.HasPrefix(value, "0x") {
			raw, err := hex.DecodeString(strings.TrimPrefix(value, "0x"))
			if err != nil || len(raw) == 0 {
				return 0, false
			}
			return int(raw[0]), true
		}
		return toInt(value)
	case []interface{}:
		if len(value) == 0 {
			return 0, false
		}
		return toInt(value[0])
	default:
		return toInt(value)
	}
}

func toInt(v interface{}) (int, bool) {
	switch value := v.(type) {
	case int:
		return value, true
	case int32:
		return int(value), true
	case int64:
		return int(value), true
	case uint8:
		return int(value), true
	case uint32:
		return int(value), true
	case uint64:
		return int(value), true
	case float64:
		return int(value), true
	case json.Number:
		n, err := value.Int64()
		return int(n), err == nil
	case string:
		n, err := strconv.Atoi(value)
		return n, err == nil
	}
	return 0, false
}
