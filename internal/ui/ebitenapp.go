package ui

import (
	"fmt"
	"image"
	"image/png"
	"os"
	"time"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
	"github.com/hajimehoshi/ebiten/v2/inpututil"

	"github.com/Notedsite/supergba/internal/gba"
	"github.com/Notedsite/supergba/internal/ppu"
)

type App struct {
	cfg    Config
	m      *gba.Machine
	tex    *ebiten.Image
	paused bool
	fast   bool

	showDebug bool
}

func NewApp(cfg Config, m *gba.Machine) *App {
	cfg.Defaults()
	ebiten.SetWindowTitle(cfg.Title)
	ebiten.SetWindowSize(ppu.ScreenWidth*cfg.Scale, ppu.ScreenHeight*cfg.Scale)
	return &App{cfg: cfg, m: m}
}

func (a *App) Run() error { return ebiten.RunGame(a) }

func (a *App) Update() error {
	// Keyboard → console buttons
	k := a.cfg.Keys
	var btn gba.Buttons
	btn.A = ebiten.IsKeyPressed(k.A)
	btn.B = ebiten.IsKeyPressed(k.B)
	btn.Start = ebiten.IsKeyPressed(k.Start)
	btn.Select = ebiten.IsKeyPressed(k.Select)
	btn.Up = ebiten.IsKeyPressed(k.Up)
	btn.Down = ebiten.IsKeyPressed(k.Down)
	btn.Left = ebiten.IsKeyPressed(k.Left)
	btn.Right = ebiten.IsKeyPressed(k.Right)
	btn.L = ebiten.IsKeyPressed(k.L)
	btn.R = ebiten.IsKeyPressed(k.R)
	a.m.SetButtons(btn)

	// Pause toggle (P)
	if inpututil.IsKeyJustPressed(ebiten.KeyP) {
		a.paused = !a.paused
	}

	// Fast-forward (Tab): while held, run multiple frames per Ebiten update
	a.fast = ebiten.IsKeyPressed(ebiten.KeyTab)

	// Reset (R key on the keyboard, distinct from the shoulder binding)
	if inpututil.IsKeyJustPressed(ebiten.KeyR) {
		a.m.Reset()
	}

	// Frame-step when paused (N)
	if a.paused && inpututil.IsKeyJustPressed(ebiten.KeyN) {
		a.m.StepFrame()
	}

	// Debug overlay (F1)
	if inpututil.IsKeyJustPressed(ebiten.KeyF1) {
		a.showDebug = !a.showDebug
	}

	// Screenshot (F12)
	if inpututil.IsKeyJustPressed(ebiten.KeyF12) {
		_ = a.saveScreenshot()
	}

	if !a.paused {
		if a.fast {
			for i := 0; i < 5; i++ {
				a.m.StepFrame()
			}
		} else {
			a.m.StepFrame()
		}
	}
	return nil
}

func (a *App) Draw(screen *ebiten.Image) {
	if a.tex == nil {
		a.tex = ebiten.NewImage(ppu.ScreenWidth, ppu.ScreenHeight)
	}
	a.tex.WritePixels(a.m.Framebuffer())
	screen.DrawImage(a.tex, nil)

	if a.showDebug {
		s := fmt.Sprintf("PC=%08X CPSR=%08X LY=%d", a.m.PC(), a.m.CPSR(), a.m.Scanline())
		ebitenutil.DebugPrintAt(screen, s, 4, 4)
	}
	if a.paused {
		ebitenutil.DebugPrintAt(screen, "PAUSED (N steps one frame)", 4, ppu.ScreenHeight-16)
	}
}

func (a *App) Layout(outW, outH int) (int, int) { return ppu.ScreenWidth, ppu.ScreenHeight }

func (a *App) saveScreenshot() error {
	fb := a.m.Framebuffer()
	img := &image.RGBA{
		Pix:    make([]byte, len(fb)),
		Stride: 4 * ppu.ScreenWidth,
		Rect:   image.Rect(0, 0, ppu.ScreenWidth, ppu.ScreenHeight),
	}
	copy(img.Pix, fb)
	ts := time.Now().Format("20060102_150405")
	name := fmt.Sprintf("screenshot_%s.png", ts)
	f, err := os.Create(name)
	if err != nil {
		return err
	}
	defer f.Close()
	return png.Encode(f, img)
}
