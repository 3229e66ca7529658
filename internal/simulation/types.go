// Package simulation models the register walkthroughs attached to questions.
package simulation

// Recognized simulation type names.
const (
	TypeRegisterView      = "register-view"
	TypePinConfig         = "pin-config"
	TypeRegisterBitConfig = "register-bit-config"
	TypeConfigSequence    = "config-sequence"
	TypeActionSequence    = "action-sequence"
	TypeBitManipulation   = "bit-manipulation"
	TypeInterruptSetup    = "interrupt-setup"
	TypeTimerCalculation  = "timer-calculation"
	TypeTimerClock        = "timer-clock"
	TypeDACCalculation    = "dac-calculation"
	TypeRegisterWrite     = "register-write"
	TypeCodeExample       = "code-example"
	TypeInfo              = "info"
	TypeDebuggerTip       = "debugger-tip"
)

// Payload is one decoded simulation. The set of implementations is closed:
// every recognized type maps to one of the structs below and anything else
// decodes to Unknown.
type Payload interface {
	// Type returns the type string the payload was authored with.
	Type() string
	// Common returns the narrative fields shared by all variants.
	Common() Narrative
	sealed()
}

// Narrative holds the optional descriptive fields every variant may carry.
type Narrative struct {
	Title             string
	ActionDescription string
	Relevance         string
	Analogy           string
	Reference         string
}

// Common implements Payload.
func (n Narrative) Common() Narrative { return n }

// HasTrailer reports whether any of relevance, analogy or reference is set.
func (n Narrative) HasTrailer() bool {
	return n.Relevance != "" || n.Analogy != "" || n.Reference != ""
}

// Bit describes a single bit or bit field. Number may be a range like "6:4".
type Bit struct {
	Number      string
	Name        string
	Value       string
	Description string
}

// RegisterNote names a register without bit detail.
type RegisterNote struct {
	Name        string
	Description string
}

// KV is an ordered key/value pair.
type KV struct {
	Key   string
	Value string
}

// Quantity is an authored numeric input. Text keeps the literal as written;
// Value is only meaningful when Numeric is true.
type Quantity struct {
	Text    string
	Value   float64
	Numeric bool
}

// Present reports whether the quantity was authored.
func (q Quantity) Present() bool { return q.Text != "" }

// RegisterView shows the state of one register.
type RegisterView struct {
	Narrative
	Register     string
	Value        string
	ValueBefore  string
	ValueAfter   string
	Bits         []Bit
	BitHighlight string
	Registers    []RegisterNote
}

// PinConfig shows how a GPIO pin is configured.
type PinConfig struct {
	Narrative
	Pin         string
	Mode        string
	Register    string
	BitField    string
	Value       string
	ValueBefore string
	ValueAfter  string
}

// RegisterBitConfig lists bits to set and clear in one register.
type RegisterBitConfig struct {
	Narrative
	Register   string
	Set        []Bit
	Clear      []Bit
	ValueAfter string
}

// Step is one entry of a Sequence.
type Step struct {
	FunctionCall string
	Register     string
	Operation    string
	Bits         string
	Value        string
	Mask         string
	ValueAfter   string
	Description  string
}

// Sequence is an ordered list of register operations. Step order is the
// order the operations must be performed in.
type Sequence struct {
	Narrative
	Kind  string
	Steps []Step
}

// Calculation covers timer and DAC arithmetic walkthroughs.
type Calculation struct {
	Narrative
	Kind             string
	InputClock       Quantity
	Prescaler        Quantity
	AutoReload       Quantity
	DivisionFactor   Quantity
	TargetFrequency  Quantity
	DutyCyclePercent Quantity
	Vdda             Quantity
	Resolution       Quantity
	DHR              Quantity
	Formula          string
	Result           Quantity
}

// RegisterWrite is a plain write of a value to a register.
type RegisterWrite struct {
	Narrative
	Register string
	Value    string
	Context  []KV
}

// CodeExample carries a free-form code listing.
type CodeExample struct {
	Narrative
	Code string
}

// Note is an informational text (info or debugger-tip).
type Note struct {
	Narrative
	Kind string
	Text string
}

// Unknown keeps an unrecognized payload as flattened key/value pairs.
type Unknown struct {
	Narrative
	TypeName string
	// Register is kept separately because it names the fallback title.
	Register string
	Fields   []KV
}

// Type implements Payload.
func (RegisterView) Type() string { return TypeRegisterView }

// Type implements Payload.
func (PinConfig) Type() string { return TypePinConfig }

// Type implements Payload.
func (RegisterBitConfig) Type() string { return TypeRegisterBitConfig }

// Type implements Payload.
func (s Sequence) Type() string { return s.Kind }

// Type implements Payload.
func (c Calculation) Type() string { return c.Kind }

// Type implements Payload.
func (RegisterWrite) Type() string { return TypeRegisterWrite }

// Type implements Payload.
func (CodeExample) Type() string { return TypeCodeExample }

// Type implements Payload.
func (n Note) Type() string { return n.Kind }

// Type implements Payload.
func (u Unknown) Type() string { return u.TypeName }

func (RegisterView) sealed()      {}
func (PinConfig) sealed()         {}
func (RegisterBitConfig) sealed() {}
func (Sequence) sealed()          {}
func (Calculation) sealed()       {}
func (RegisterWrite) sealed()     {}
func (CodeExample) sealed()       {}
func (Note) sealed()              {}
func (Unknown) sealed()           {}
