package simulation

import (
	"fmt"
	"math"
	"strconv"
)

const verifyTolerance = 1e-4

// Verify cross-checks authored calculation results against the value derived
// from their inputs and flags payloads whose type has no dedicated variant.
// It returns one message per problem. Rendering never uses the derived values.
func Verify(p Payload) []string {
	if u, ok := p.(Unknown); ok {
		if u.TypeName == "" {
			return []string{"type is missing, shown as raw data"}
		}
		return []string{fmt.Sprintf("type %q is not recognized, shown as raw data", u.TypeName)}
	}
	calc, ok := p.(Calculation)
	if !ok || !calc.Result.Numeric {
		return nil
	}
	expected, formula, ok := derive(calc)
	if !ok {
		return nil
	}
	if closeEnough(calc.Result.Value, expected) {
		return nil
	}
	return []string{fmt.Sprintf("result %s does not match %s derived from %s",
		calc.Result.Text, formatFloat(expected), formula)}
}

func derive(c Calculation) (float64, string, bool) {
	num := func(q Quantity) bool { return q.Numeric }
	switch c.Kind {
	case TypeDACCalculation:
		if num(c.Vdda) && num(c.DHR) && num(c.Resolution) {
			full := math.Pow(2, c.Resolution.Value)
			return c.Vdda.Value * c.DHR.Value / full, "vdda * dhr / 2^resolution", true
		}
	case TypeTimerClock:
		if num(c.InputClock) && num(c.Prescaler) {
			return c.InputClock.Value / (c.Prescaler.Value + 1), "clock / (psc + 1)", true
		}
	case TypeTimerCalculation:
		switch {
		case num(c.InputClock) && num(c.Prescaler) && num(c.TargetFrequency) && c.TargetFrequency.Value != 0:
			return c.InputClock.Value/(c.Prescaler.Value+1)/c.TargetFrequency.Value - 1,
				"clock / (psc + 1) / target - 1", true
		case num(c.AutoReload) && num(c.DutyCyclePercent):
			return c.DutyCyclePercent.Value / 100 * (c.AutoReload.Value + 1), "duty / 100 * (arr + 1)", true
		case num(c.DivisionFactor):
			return c.DivisionFactor.Value - 1, "division factor - 1", true
		}
	}
	return 0, "", false
}

func closeEnough(got, want float64) bool {
	diff := math.Abs(got - want)
	return diff <= verifyTolerance*math.Max(1, math.Abs(want))
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(math.Round(v*1e4)/1e4, 'f', -1, 64)
}
