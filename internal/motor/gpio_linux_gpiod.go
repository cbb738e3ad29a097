//go:build linux && (arm || arm64)

package motor

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/warthog618/go-gpiocdev"
)

// openDriver wires the two H-bridge channels through the Linux GPIO
// character device (libgpiod).
//
// Each channel owns three lines: IN1/IN2 select direction (both high =
// brake), and the enable line gates the bridge. The enable line is digital:
// any duty > 0 maps to ON. Speed resolution comes from the base tapering the
// commanded PWM, which is coarse but adequate for waypoint speeds; boards
// with a hardware PWM channel on the enable pin can swap this backend out.
func openDriver(left, right Pins) (driver, error) {
	chip, err := openChip()
	if err != nil {
		return nil, err
	}

	d := &gpiodBridge{chip: chip}
	ok := false
	defer func() {
		if !ok {
			_ = d.Close()
		}
	}()

	for ch, pins := range [2]Pins{left, right} {
		for i, pin := range [3]int{pins.In1, pins.In2, pins.Enable} {
			line, err := requestOutput(chip, pin)
			if err != nil {
				return nil, fmt.Errorf("motor: channel %d line %d: %w", ch, i, err)
			}
			d.lines[ch][i] = line
		}
	}

	ok = true
	return d, nil
}

func openChip() (*gpiocdev.Chip, error) {
	// On Pi, header GPIOs live on gpiochip0 (sometimes gpiochip4 on Pi 5).
	candidates := []string{"/dev/gpiochip0", "/dev/gpiochip4"}
	entries, _ := os.ReadDir("/dev")
	for _, e := range entries {
		if strings.HasPrefix(e.Name(), "gpiochip") {
			candidates = append(candidates, filepath.Join("/dev", e.Name()))
		}
	}
	var lastErr error
	for _, path := range candidates {
		chip, err := gpiocdev.NewChip(path)
		if err == nil {
			return chip, nil
		}
		lastErr = err
	}
	return nil, fmt.Errorf("motor: no usable gpiochip: %v", lastErr)
}

func requestOutput(chip *gpiocdev.Chip, pin int) (*gpiocdev.Line, error) {
	if pin <= 0 {
		return nil, fmt.Errorf("invalid gpio pin %d", pin)
	}
	lineName := fmt.Sprintf("GPIO%d", pin)
	offset, err := chip.FindLine(lineName)
	if err != nil {
		// Fall back to raw offsets for boards without named lines.
		offset = pin
	}
	return chip.RequestLine(offset, gpiocdev.AsOutput(0), gpiocdev.WithConsumer("rovernav-motor"))
}

type gpiodBridge struct {
	chip *gpiocdev.Chip
	// lines[channel] = {in1, in2, enable}
	lines [2][3]*gpiocdev.Line
}

func (g *gpiodBridge) SetChannel(ch int, forward bool, dutyPercent float64) error {
	if err := g.checkChannel(ch); err != nil {
		return err
	}
	in1, in2 := 1, 0
	if !forward {
		in1, in2 = 0, 1
	}
	en := 0
	if dutyPercent > 0 {
		en = 1
	}
	if err := g.lines[ch][0].SetValue(in1); err != nil {
		return err
	}
	if err := g.lines[ch][1].SetValue(in2); err != nil {
		return err
	}
	return g.lines[ch][2].SetValue(en)
}

func (g *gpiodBridge) Brake(ch int) error {
	if err := g.checkChannel(ch); err != nil {
		return err
	}
	// Both inputs high with the bridge disabled: hard stop, no drive current.
	if err := g.lines[ch][0].SetValue(1); err != nil {
		return err
	}
	if err := g.lines[ch][1].SetValue(1); err != nil {
		return err
	}
	return g.lines[ch][2].SetValue(0)
}

func (g *gpiodBridge) checkChannel(ch int) error {
	if ch != ChannelLeft && ch != ChannelRight {
		return fmt.Errorf("motor: invalid channel %d", ch)
	}
	if g.lines[ch][0] == nil {
		return fmt.Errorf("motor: channel %d not initialized", ch)
	}
	return nil
}

func (g *gpiodBridge) Close() error {
	var firstErr error
	for ch := range g.lines {
		for i, line := range g.lines[ch] {
			if line == nil {
				continue
			}
			_ = line.SetValue(0)
			if err := line.Close(); err != nil && firstErr == nil {
				firstErr = err
			}
			g.lines[ch][i] = nil
		}
	}
	if g.chip != nil {
		_ = g.chip.Close()
		g.chip = nil
	}
	return firstErr
}
