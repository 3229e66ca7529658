package render

import (
	"fmt"
	"strings"

	"github.com/dustin/go-humanize"

	"github.com/verte-zerg/regquiz/internal/simulation"
)

// FieldKind classifies a display field.
type FieldKind int

const (
	FieldTitle FieldKind = iota
	FieldAction
	FieldLine
	FieldBit
	FieldStep
	FieldCode
	FieldText
	FieldNotice
	FieldSeparator
	FieldRelevance
	FieldAnalogy
	FieldReference
)

// NotRecognized is the notice appended to fallback dumps.
const NotRecognized = "(raw data shown, type not recognized)"

// GenericTitle is used when nothing better names a simulation.
const GenericTitle = "Simulation Details"

// Field is one display row of a simulation view.
type Field struct {
	Kind  FieldKind
	Label string
	Value string
	// Index is the 1-based position of a step.
	Index int
}

// Text renders the field as plain text.
func (f Field) Text() string {
	switch f.Kind {
	case FieldStep:
		return fmt.Sprintf("%d. %s", f.Index, f.Value)
	case FieldSeparator:
		return ""
	case FieldReference:
		return "(" + f.Value + ")"
	case FieldLine, FieldBit, FieldRelevance, FieldAnalogy:
		if f.Label == "" {
			return f.Value
		}
		if f.Value == "" {
			return f.Label
		}
		return f.Label + ": " + f.Value
	default:
		return f.Value
	}
}

// line is one labeled row of a variant template; rows whose value is empty
// are omitted.
type line[T any] struct {
	label string
	value func(T) string
}

// template describes how one variant renders: a synthesized default title,
// leading labeled rows, list rows and trailing labeled rows.
type template[T any] struct {
	title func(T) string
	head  []line[T]
	list  func(T) []Field
	tail  []line[T]
}

func (tpl template[T]) render(v T) (string, []Field) {
	var fields []Field
	fields = appendLines(fields, v, tpl.head)
	if tpl.list != nil {
		fields = append(fields, tpl.list(v)...)
	}
	fields = appendLines(fields, v, tpl.tail)
	title := ""
	if tpl.title != nil {
		title = tpl.title(v)
	}
	return title, fields
}

func appendLines[T any](fields []Field, v T, lines []line[T]) []Field {
	for _, l := range lines {
		if value := l.value(v); value != "" {
			fields = append(fields, Field{Kind: FieldLine, Label: l.label, Value: value})
		}
	}
	return fields
}

// titled builds a default title from prefix and a key field, or nothing
// when the key field is absent.
func titled(prefix, key string) string {
	if key == "" {
		return ""
	}
	return prefix + key
}

var registerViewTemplate = template[simulation.RegisterView]{
	title: func(v simulation.RegisterView) string { return titled("Register View: ", v.Register) },
	head: []line[simulation.RegisterView]{
		{"Register", func(v simulation.RegisterView) string { return v.Register }},
		{"Value", func(v simulation.RegisterView) string { return v.Value }},
		{"Value Before", func(v simulation.RegisterView) string { return v.ValueBefore }},
		{"Value", func(v simulation.RegisterView) string { return v.ValueAfter }},
	},
	list: func(v simulation.RegisterView) []Field {
		var fields []Field
		for _, b := range v.Bits {
			fields = append(fields, bitField("Bit", b))
		}
		for _, r := range v.Registers {
			fields = append(fields, Field{Kind: FieldLine, Label: r.Name, Value: r.Description})
		}
		if len(v.Bits) == 0 && v.BitHighlight != "" {
			fields = append(fields, Field{Kind: FieldText, Value: fmt.Sprintf("(Relevant Bit: %s)", v.BitHighlight)})
		}
		return fields
	},
}

var registerBitConfigTemplate = template[simulation.RegisterBitConfig]{
	title: func(v simulation.RegisterBitConfig) string { return titled("Configure Bits: ", v.Register) },
	head: []line[simulation.RegisterBitConfig]{
		{"Register", func(v simulation.RegisterBitConfig) string { return v.Register }},
	},
	list: func(v simulation.RegisterBitConfig) []Field {
		var fields []Field
		for _, b := range v.Set {
			fields = append(fields, bitField("Set Bit(s)", b))
		}
		for _, b := range v.Clear {
			fields = append(fields, bitField("Clear Bit(s)", b))
		}
		return fields
	},
	tail: []line[simulation.RegisterBitConfig]{
		{"Resulting Config (Conceptual)", func(v simulation.RegisterBitConfig) string { return v.ValueAfter }},
	},
}

var pinConfigTemplate = template[simulation.PinConfig]{
	title: func(v simulation.PinConfig) string { return titled("Pin Configuration: ", v.Pin) },
	head: []line[simulation.PinConfig]{
		{"Pin", func(v simulation.PinConfig) string { return v.Pin }},
		{"Mode", func(v simulation.PinConfig) string { return v.Mode }},
		{"Register", func(v simulation.PinConfig) string { return v.Register }},
		{"Bit Field", func(v simulation.PinConfig) string { return v.BitField }},
		{"Previous Reg Value", func(v simulation.PinConfig) string { return v.ValueBefore }},
		{"Resulting Reg Value (Conceptual)", func(v simulation.PinConfig) string { return v.ValueAfter }},
		{"Register Value (Conceptual)", func(v simulation.PinConfig) string {
			if v.ValueAfter != "" {
				return ""
			}
			return v.Value
		}},
	},
}

var sequenceTemplate = template[simulation.Sequence]{
	title: func(v simulation.Sequence) string {
		switch v.Kind {
		case simulation.TypeConfigSequence:
			return "Configuration Sequence"
		case simulation.TypeActionSequence:
			return "Action Sequence"
		default:
			return "Step-by-Step"
		}
	},
	list: func(v simulation.Sequence) []Field {
		fields := make([]Field, 0, len(v.Steps))
		for _, step := range v.Steps {
			if text := stepText(step); text != "" {
				fields = append(fields, Field{Kind: FieldStep, Value: text, Index: len(fields) + 1})
			}
		}
		return fields
	},
}

var calculationTemplate = template[simulation.Calculation]{
	title: func(simulation.Calculation) string { return "Calculation" },
	head: []line[simulation.Calculation]{
		{"Input Clock", func(v simulation.Calculation) string { return hertz(v.InputClock) }},
		{"Prescaler (PSC)", func(v simulation.Calculation) string { return v.Prescaler.Text }},
		{"Auto-Reload (ARR)", func(v simulation.Calculation) string { return v.AutoReload.Text }},
		{"Division Factor", func(v simulation.Calculation) string { return v.DivisionFactor.Text }},
		{"Target Frequency", func(v simulation.Calculation) string { return hertz(v.TargetFrequency) }},
		{"Duty Cycle", func(v simulation.Calculation) string { return withUnit(v.DutyCyclePercent, "%") }},
		{"Vdda", func(v simulation.Calculation) string { return withUnit(v.Vdda, "V") }},
		{"Resolution", func(v simulation.Calculation) string { return withUnit(v.Resolution, "-bit") }},
		{"Digital Value (DHR)", func(v simulation.Calculation) string { return v.DHR.Text }},
		{"Formula", func(v simulation.Calculation) string { return v.Formula }},
		{"Result", func(v simulation.Calculation) string {
			switch v.Kind {
			case simulation.TypeDACCalculation:
				return withUnit(v.Result, " V")
			case simulation.TypeTimerClock:
				return hertz(v.Result)
			default:
				return v.Result.Text
			}
		}},
	},
}

var registerWriteTemplate = template[simulation.RegisterWrite]{
	title: func(v simulation.RegisterWrite) string { return titled("Write to Register: ", v.Register) },
	head: []line[simulation.RegisterWrite]{
		{"Register", func(v simulation.RegisterWrite) string { return v.Register }},
		{"Value to Write", func(v simulation.RegisterWrite) string { return v.Value }},
	},
	list: func(v simulation.RegisterWrite) []Field {
		fields := make([]Field, 0, len(v.Context))
		for _, kv := range v.Context {
			fields = append(fields, Field{Kind: FieldLine, Label: strings.ReplaceAll(kv.Key, "_", " "), Value: kv.Value})
		}
		return fields
	},
}

var codeExampleTemplate = template[simulation.CodeExample]{
	title: func(simulation.CodeExample) string { return "Code Example" },
	list: func(v simulation.CodeExample) []Field {
		code := strings.TrimRight(v.Code, "\n")
		if code == "" {
			return nil
		}
		return []Field{{Kind: FieldCode, Value: code}}
	},
}

var noteTemplate = template[simulation.Note]{
	title: func(simulation.Note) string { return "Information" },
	list: func(v simulation.Note) []Field {
		if v.Text == "" {
			return nil
		}
		return []Field{{Kind: FieldText, Value: v.Text}}
	},
}

var unknownTemplate = template[simulation.Unknown]{
	title: func(v simulation.Unknown) string {
		if v.Register != "" {
			return "Simulation Data: " + v.Register
		}
		return titled("Simulation Data: ", v.TypeName)
	},
	list: func(v simulation.Unknown) []Field {
		fields := make([]Field, 0, len(v.Fields)+1)
		for _, kv := range v.Fields {
			fields = append(fields, Field{Kind: FieldLine, Label: kv.Key, Value: kv.Value})
		}
		return append(fields, Field{Kind: FieldNotice, Value: NotRecognized})
	},
}

// Simulation renders p as an ordered list of display fields. A nil payload
// renders nothing; every other payload yields at least a title.
func Simulation(p simulation.Payload) []Field {
	if p == nil {
		return nil
	}
	defaultTitle, body := variantBody(p)
	narrative := p.Common()

	fields := make([]Field, 0, len(body)+6)
	fields = append(fields, Field{Kind: FieldTitle, Value: resolveTitle(narrative.Title, defaultTitle, p.Type())})
	if narrative.ActionDescription != "" {
		fields = append(fields, Field{Kind: FieldAction, Value: narrative.ActionDescription})
	}
	fields = append(fields, body...)
	if narrative.HasTrailer() {
		fields = append(fields, Field{Kind: FieldSeparator})
		if narrative.Relevance != "" {
			fields = append(fields, Field{Kind: FieldRelevance, Label: "Relevance", Value: narrative.Relevance})
		}
		if narrative.Analogy != "" {
			fields = append(fields, Field{Kind: FieldAnalogy, Label: "Analogy", Value: narrative.Analogy})
		}
		if narrative.Reference != "" {
			fields = append(fields, Field{Kind: FieldReference, Value: narrative.Reference})
		}
	}
	return fields
}

func variantBody(p simulation.Payload) (string, []Field) {
	switch v := p.(type) {
	case simulation.RegisterView:
		return registerViewTemplate.render(v)
	case simulation.PinConfig:
		return pinConfigTemplate.render(v)
	case simulation.RegisterBitConfig:
		return registerBitConfigTemplate.render(v)
	case simulation.Sequence:
		return sequenceTemplate.render(v)
	case simulation.Calculation:
		return calculationTemplate.render(v)
	case simulation.RegisterWrite:
		return registerWriteTemplate.render(v)
	case simulation.CodeExample:
		return codeExampleTemplate.render(v)
	case simulation.Note:
		return noteTemplate.render(v)
	case simulation.Unknown:
		return unknownTemplate.render(v)
	default:
		return "", []Field{{Kind: FieldNotice, Value: NotRecognized}}
	}
}

// resolveTitle picks the first non-empty of the explicit title, the variant
// default, the type string and the generic placeholder.
func resolveTitle(explicit, variantDefault, typeName string) string {
	for _, candidate := range []string{explicit, variantDefault, typeName} {
		if candidate != "" {
			return candidate
		}
	}
	return GenericTitle
}

func bitField(verb string, b simulation.Bit) Field {
	label := verb + " " + b.Number
	if b.Name != "" {
		label += " (" + b.Name + ")"
	}
	return Field{Kind: FieldBit, Label: label, Value: joinPresent(" - ", b.Value, b.Description)}
}

func stepText(step simulation.Step) string {
	var parts []string
	if step.FunctionCall != "" {
		parts = append(parts, "Call "+step.FunctionCall)
	}
	labeled := []struct{ label, value string }{
		{"Register", step.Register},
		{"Operation", step.Operation},
		{"Bits", step.Bits},
		{"Value", step.Value},
		{"Mask", step.Mask},
		{"Result", step.ValueAfter},
	}
	for _, l := range labeled {
		if l.value != "" {
			parts = append(parts, l.label+": "+l.value)
		}
	}
	return joinPresent(" - ", strings.Join(parts, " | "), step.Description)
}

func joinPresent(sep string, values ...string) string {
	present := make([]string, 0, len(values))
	for _, v := range values {
		if v != "" {
			present = append(present, v)
		}
	}
	return strings.Join(present, sep)
}

func hertz(q simulation.Quantity) string {
	if !q.Present() {
		return ""
	}
	if !q.Numeric {
		return q.Text + " Hz"
	}
	return humanize.Commaf(q.Value) + " Hz"
}

func withUnit(q simulation.Quantity, unit string) string {
	if !q.Present() {
		return ""
	}
	return q.Text + unit
}
