package simulation

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

var narrativeKeys = map[string]struct{}{
	"title":              {},
	"action_description": {},
	"relevance":          {},
	"analogy":            {},
	"reference":          {},
}

// Decode converts a loosely typed record (as produced by a YAML or JSON
// decoder) into a Payload. An empty record means "no simulation" and yields
// nil. Decode never fails: records it cannot map to a variant become Unknown.
func Decode(raw map[string]any) Payload {
	if len(raw) == 0 {
		return nil
	}
	rec := record(raw)
	narrative := Narrative{
		Title:             rec.str("title"),
		ActionDescription: rec.str("action_description"),
		Relevance:         rec.str("relevance"),
		Analogy:           rec.str("analogy"),
		Reference:         rec.str("reference"),
	}
	typeName := rec.str("type")

	switch typeName {
	case TypeRegisterView:
		return RegisterView{
			Narrative:    narrative,
			Register:     rec.str("register"),
			Value:        rec.str("value"),
			ValueBefore:  rec.str("value_before"),
			ValueAfter:   rec.str("value_after"),
			Bits:         rec.bits("bits"),
			BitHighlight: rec.str("bitHighlight", "bit_highlight"),
			Registers:    rec.registers("registers"),
		}
	case TypePinConfig:
		return PinConfig{
			Narrative:   narrative,
			Pin:         rec.str("pin"),
			Mode:        rec.str("mode"),
			Register:    rec.str("register"),
			BitField:    rec.str("bitField", "bit_field"),
			Value:       rec.str("value"),
			ValueBefore: rec.str("value_before"),
			ValueAfter:  rec.str("value_after"),
		}
	case TypeRegisterBitConfig:
		return RegisterBitConfig{
			Narrative:  narrative,
			Register:   rec.str("register"),
			Set:        rec.bits("bits_to_set"),
			Clear:      rec.bits("bits_to_clear"),
			ValueAfter: rec.str("value_after"),
		}
	case TypeConfigSequence, TypeActionSequence, TypeBitManipulation, TypeInterruptSetup:
		return Sequence{
			Narrative: narrative,
			Kind:      typeName,
			Steps:     rec.steps("steps"),
		}
	case TypeTimerCalculation, TypeTimerClock, TypeDACCalculation:
		return Calculation{
			Narrative:        narrative,
			Kind:             typeName,
			InputClock:       rec.quantity("systemClock", "system_clock", "input_clock"),
			Prescaler:        rec.quantity("psc", "prescaler"),
			AutoReload:       rec.quantity("arr"),
			DivisionFactor:   rec.quantity("division_factor", "divisionFactor"),
			TargetFrequency:  rec.quantity("targetFrequency", "target_frequency"),
			DutyCyclePercent: rec.quantity("dutyCyclePercent", "duty_cycle_percent"),
			Vdda:             rec.quantity("vdda"),
			Resolution:       rec.quantity("resolution"),
			DHR:              rec.quantity("dhr_value", "dhr"),
			Formula:          rec.str("formula"),
			Result:           rec.quantity("result"),
		}
	case TypeRegisterWrite:
		return RegisterWrite{
			Narrative: narrative,
			Register:  rec.str("register"),
			Value:     rec.str("value"),
			Context:   rec.context("context"),
		}
	case TypeCodeExample:
		return CodeExample{
			Narrative: narrative,
			Code:      rec.str("code"),
		}
	case TypeInfo, TypeDebuggerTip:
		return Note{
			Narrative: narrative,
			Kind:      typeName,
			Text:      rec.str("info_text", "tip_text", "text"),
		}
	default:
		return Unknown{
			Narrative: narrative,
			TypeName:  typeName,
			Register:  rec.str("register"),
			Fields:    flattenFields(raw),
		}
	}
}

type record map[string]any

// str returns the first present key rendered as text.
func (r record) str(keys ...string) string {
	for _, key := range keys {
		v, ok := r[key]
		if !ok || v == nil {
			continue
		}
		if s := scalarText(v); s != "" {
			return s
		}
	}
	return ""
}

func (r record) quantity(keys ...string) Quantity {
	for _, key := range keys {
		v, ok := r[key]
		if !ok || v == nil {
			continue
		}
		if q := toQuantity(v); q.Present() {
			return q
		}
	}
	return Quantity{}
}

func (r record) list(key string) []record {
	items, ok := r[key].([]any)
	if !ok {
		return nil
	}
	out := make([]record, 0, len(items))
	for _, item := range items {
		if m := asMap(item); m != nil {
			out = append(out, record(m))
		}
	}
	return out
}

func (r record) bits(key string) []Bit {
	items := r.list(key)
	if len(items) == 0 {
		return nil
	}
	out := make([]Bit, 0, len(items))
	for _, item := range items {
		out = append(out, Bit{
			Number:      item.str("number", "bit"),
			Name:        item.str("name"),
			Value:       item.str("value"),
			Description: item.str("description"),
		})
	}
	return out
}

func (r record) registers(key string) []RegisterNote {
	items := r.list(key)
	if len(items) == 0 {
		return nil
	}
	out := make([]RegisterNote, 0, len(items))
	for _, item := range items {
		out = append(out, RegisterNote{
			Name:        item.str("name", "register"),
			Description: item.str("description"),
		})
	}
	return out
}

func (r record) steps(key string) []Step {
	items := r.list(key)
	if len(items) == 0 {
		return nil
	}
	out := make([]Step, 0, len(items))
	for _, item := range items {
		out = append(out, Step{
			FunctionCall: item.str("function_call"),
			Register:     item.str("register"),
			Operation:    item.str("operation"),
			Bits:         item.str("bits"),
			Value:        item.str("value"),
			Mask:         item.str("mask"),
			ValueAfter:   item.str("value_after"),
			Description:  item.str("description"),
		})
	}
	return out
}

// context returns the context map as pairs sorted by key. Decoded maps carry
// no order, so sorting keeps output stable.
func (r record) context(key string) []KV {
	m := asMap(r[key])
	if len(m) == 0 {
		return nil
	}
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	out := make([]KV, 0, len(keys))
	for _, k := range keys {
		if text := scalarText(m[k]); text != "" {
			out = append(out, KV{Key: k, Value: text})
		}
	}
	return out
}

func asMap(v any) map[string]any {
	switch m := v.(type) {
	case map[string]any:
		return m
	case map[any]any:
		out := make(map[string]any, len(m))
		for k, val := range m {
			out[fmt.Sprint(k)] = val
		}
		return out
	default:
		return nil
	}
}

func scalarText(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(x)
	case bool:
		return strconv.FormatBool(x)
	case int:
		return strconv.Itoa(x)
	case int64:
		return strconv.FormatInt(x, 10)
	case uint64:
		return strconv.FormatUint(x, 10)
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(x), 'f', -1, 32)
	case map[string]any, map[any]any, []any:
		return ""
	default:
		return fmt.Sprint(x)
	}
}

func toQuantity(v any) Quantity {
	switch x := v.(type) {
	case int:
		return Quantity{Text: strconv.Itoa(x), Value: float64(x), Numeric: true}
	case int64:
		return Quantity{Text: strconv.FormatInt(x, 10), Value: float64(x), Numeric: true}
	case uint64:
		return Quantity{Text: strconv.FormatUint(x, 10), Value: float64(x), Numeric: true}
	case float64:
		return Quantity{Text: strconv.FormatFloat(x, 'f', -1, 64), Value: x, Numeric: true}
	case float32:
		return Quantity{Text: strconv.FormatFloat(float64(x), 'f', -1, 32), Value: float64(x), Numeric: true}
	case string:
		text := strings.TrimSpace(x)
		if text == "" {
			return Quantity{}
		}
		if f, err := strconv.ParseFloat(text, 64); err == nil {
			return Quantity{Text: text, Value: f, Numeric: true}
		}
		return Quantity{Text: text}
	default:
		return Quantity{Text: scalarText(v)}
	}
}

// flattenFields renders every non-narrative field of raw as key/value pairs,
// sorted by key. Nested maps use dotted keys and lists use indexes.
func flattenFields(raw map[string]any) []KV {
	var out []KV
	keys := make([]string, 0, len(raw))
	for k := range raw {
		if _, skip := narrativeKeys[k]; skip {
			continue
		}
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		out = flattenValue(out, k, raw[k])
	}
	return out
}

func flattenValue(out []KV, prefix string, v any) []KV {
	if m := asMap(v); m != nil {
		keys := make([]string, 0, len(m))
		for k := range m {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			out = flattenValue(out, prefix+"."+k, m[k])
		}
		return out
	}
	if items, ok := v.([]any); ok {
		for i, item := range items {
			out = flattenValue(out, fmt.Sprintf("%s[%d]", prefix, i), item)
		}
		return out
	}
	if text := scalarText(v); text != "" {
		out = append(out, KV{Key: prefix, Value: text})
	}
	return out
}
