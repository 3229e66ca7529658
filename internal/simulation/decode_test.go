package simulation

import "testing"

func TestDecodeEmptyRecordIsNoSimulation(t *testing.T) {
	if p := Decode(nil); p != nil {
		t.Fatalf("expected nil payload for nil record, got %#v", p)
	}
	if p := Decode(map[string]any{}); p != nil {
		t.Fatalf("expected nil payload for empty record, got %#v", p)
	}
}

func TestDecodeRegisterView(t *testing.T) {
	p := Decode(map[string]any{
		"type":     "register-view",
		"register": "RCC_AHBENR",
		"bits": []any{
			map[string]any{"number": 18, "name": "IOPBEN", "value": 1, "description": "1 = enabled"},
			map[string]any{"number": "5:3", "name": "BR", "value": "e.g. 010"},
		},
		"value_after": "0x00040000",
		"relevance":   "First step.",
	})
	view, ok := p.(RegisterView)
	if !ok {
		t.Fatalf("expected RegisterView, got %T", p)
	}
	if view.Register != "RCC_AHBENR" || view.ValueAfter != "0x00040000" {
		t.Fatalf("unexpected register fields: %+v", view)
	}
	if len(view.Bits) != 2 {
		t.Fatalf("expected 2 bits, got %d", len(view.Bits))
	}
	if view.Bits[0].Number != "18" || view.Bits[0].Value != "1" {
		t.Fatalf("unexpected numeric bit: %+v", view.Bits[0])
	}
	if view.Bits[1].Number != "5:3" || view.Bits[1].Description != "" {
		t.Fatalf("unexpected range bit: %+v", view.Bits[1])
	}
	if view.Common().Relevance != "First step." {
		t.Fatalf("expected narrative relevance, got %q", view.Common().Relevance)
	}
	if p.Type() != TypeRegisterView {
		t.Fatalf("unexpected type %q", p.Type())
	}
}

func TestDecodeSequenceKeepsStepOrder(t *testing.T) {
	p := Decode(map[string]any{
		"type": "config-sequence",
		"steps": []any{
			map[string]any{"register": "RCC_AHBENR", "operation": "set bit", "bits": "19"},
			map[string]any{"description": "Find AF number"},
			map[string]any{"function_call": "HAL_Init()"},
		},
	})
	seq, ok := p.(Sequence)
	if !ok {
		t.Fatalf("expected Sequence, got %T", p)
	}
	if len(seq.Steps) != 3 {
		t.Fatalf("expected 3 steps, got %d", len(seq.Steps))
	}
	if seq.Steps[0].Register != "RCC_AHBENR" || seq.Steps[1].Description != "Find AF number" || seq.Steps[2].FunctionCall != "HAL_Init()" {
		t.Fatalf("steps out of order: %+v", seq.Steps)
	}
	if seq.Type() != TypeConfigSequence {
		t.Fatalf("unexpected type %q", seq.Type())
	}
}

func TestDecodeCalculationAcceptsIntAndFloat(t *testing.T) {
	p := Decode(map[string]any{
		"type":            "timer-calculation",
		"systemClock":     48000000,
		"psc":             float64(47999),
		"targetFrequency": "1",
		"result":          999,
		"formula":         "ARR = ...",
	})
	calc, ok := p.(Calculation)
	if !ok {
		t.Fatalf("expected Calculation, got %T", p)
	}
	if !calc.InputClock.Numeric || calc.InputClock.Value != 48000000 {
		t.Fatalf("unexpected clock: %+v", calc.InputClock)
	}
	if calc.Prescaler.Text != "47999" {
		t.Fatalf("unexpected prescaler text: %q", calc.Prescaler.Text)
	}
	if !calc.TargetFrequency.Numeric || calc.TargetFrequency.Value != 1 {
		t.Fatalf("expected numeric string target, got %+v", calc.TargetFrequency)
	}
	if calc.AutoReload.Present() {
		t.Fatalf("expected absent arr")
	}
}

func TestDecodePrescalerAlias(t *testing.T) {
	p := Decode(map[string]any{"type": "timer-clock", "prescaler": 47})
	calc := p.(Calculation)
	if calc.Prescaler.Text != "47" {
		t.Fatalf("expected prescaler alias to fill psc, got %+v", calc.Prescaler)
	}
}

func TestDecodeNoteUsesTipText(t *testing.T) {
	p := Decode(map[string]any{"type": "debugger-tip", "tip_text": "Use the SFR view."})
	note, ok := p.(Note)
	if !ok {
		t.Fatalf("expected Note, got %T", p)
	}
	if note.Text != "Use the SFR view." || note.Type() != TypeDebuggerTip {
		t.Fatalf("unexpected note: %+v", note)
	}
}

func TestDecodeUnknownFlattensFields(t *testing.T) {
	p := Decode(map[string]any{
		"type":     "quantum-flux",
		"title":    "Flux",
		"register": "FLUX_CR",
		"nested":   map[string]any{"b": 2, "a": "one"},
		"list":     []any{"x", map[string]any{"k": true}},
	})
	u, ok := p.(Unknown)
	if !ok {
		t.Fatalf("expected Unknown, got %T", p)
	}
	if u.TypeName != "quantum-flux" || u.Register != "FLUX_CR" {
		t.Fatalf("unexpected unknown: %+v", u)
	}
	want := []KV{
		{Key: "list[0]", Value: "x"},
		{Key: "list[1].k", Value: "true"},
		{Key: "nested.a", Value: "one"},
		{Key: "nested.b", Value: "2"},
		{Key: "register", Value: "FLUX_CR"},
		{Key: "type", Value: "quantum-flux"},
	}
	if len(u.Fields) != len(want) {
		t.Fatalf("expected %d fields, got %+v", len(want), u.Fields)
	}
	for i := range want {
		if u.Fields[i] != want[i] {
			t.Fatalf("field %d: expected %+v, got %+v", i, want[i], u.Fields[i])
		}
	}
	if u.Common().Title != "Flux" {
		t.Fatalf("expected title kept in narrative")
	}
}

func TestDecodeMissingTypeIsUnknown(t *testing.T) {
	p := Decode(map[string]any{"register": "GPIOA_ODR"})
	u, ok := p.(Unknown)
	if !ok {
		t.Fatalf("expected Unknown, got %T", p)
	}
	if u.TypeName != "" {
		t.Fatalf("expected empty type name, got %q", u.TypeName)
	}
}

func TestDecodeCoversFourteenTypes(t *testing.T) {
	types := []string{
		TypeRegisterView, TypePinConfig, TypeRegisterBitConfig,
		TypeConfigSequence, TypeActionSequence, TypeBitManipulation, TypeInterruptSetup,
		TypeTimerCalculation, TypeTimerClock, TypeDACCalculation,
		TypeRegisterWrite, TypeCodeExample, TypeInfo, TypeDebuggerTip,
	}
	for _, typ := range types {
		if _, unknown := Decode(map[string]any{"type": typ}).(Unknown); unknown {
			t.Fatalf("expected %q to decode to a dedicated variant", typ)
		}
	}
	if _, unknown := Decode(map[string]any{"type": "spi-config"}).(Unknown); !unknown {
		t.Fatalf("expected spi-config to decode to Unknown")
	}
}
