package ui

import "github.com/hajimehoshi/ebiten/v2"

// Keymap binds host keyboard keys to console buttons. The whole table
// is part of the config so callers can rebind without touching the app.
type Keymap struct {
	A, B   ebiten.Key
	Start  ebiten.Key
	Select ebiten.Key
	Up     ebiten.Key
	Down   ebiten.Key
	Left   ebiten.Key
	Right  ebiten.Key
	L, R   ebiten.Key
}

// DefaultKeymap returns the stock binding: Z/X for A/B, Enter/Backspace
// for Start/Select, arrows for the pad, A/S for the shoulder buttons.
func DefaultKeymap() Keymap {
	return Keymap{
		A:      ebiten.KeyZ,
		B:      ebiten.KeyX,
		Start:  ebiten.KeyEnter,
		Select: ebiten.KeyBackspace,
		Up:     ebiten.KeyArrowUp,
		Down:   ebiten.KeyArrowDown,
		Left:   ebiten.KeyArrowLeft,
		Right:  ebiten.KeyArrowRight,
		L:      ebiten.KeyA,
		R:      ebiten.KeyS,
	}
}

// Config contains window and input related settings.
type Config struct {
	Title string // window title
	Scale int    // integer upscaling factor
	Keys  Keymap // keyboard binding, DefaultKeymap() if unset
}

// Defaults fills missing fields with reasonable defaults.
func (c *Config) Defaults() {
	if c.Title == "" {
		c.Title = "supergba"
	}
	if c.Scale <= 0 {
		c.Scale = 3
	}
	if c.Keys == (Keymap{}) {
		c.Keys = DefaultKeymap()
	}
}
