package core

// Diagnostics receives non-fatal notices raised while a manifest is
// assembled. Messages follow the hclog convention: a constant message
// followed by alternating key/value pairs.
type Diagnostics interface {
	// Debug reports conditions that are expected in normal operation, such
	// as package types with no manifest rules.
	Debug(msg string, args ...any)

	// Warn reports suspicious record sets the build can proceed without,
	// such as go packages with no owning module.
	Warn(msg string, args ...any)
}

// NopDiagnostics discards all notices. It is the default sink.
type NopDiagnostics struct{}

func (NopDiagnostics) Debug(string, ...any) {}

func (NopDiagnostics) Warn(string, ...any) {}
