package gba

// Config contains settings that affect emulation behavior.
type Config struct {
	// MaxInstructionsPerFrame bounds the per-frame loop alongside the
	// cycle budget, so a ROM of cheap instructions cannot hold a frame
	// hostage.
	MaxInstructionsPerFrame int
}

// Defaults fills missing fields with reasonable defaults.
func (c *Config) Defaults() {
	if c.MaxInstructionsPerFrame <= 0 {
		c.MaxInstructionsPerFrame = CyclesPerFrame
	}
}
