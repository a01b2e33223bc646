// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"fmt"
	"image"

	log "github.com/sirupsen/logrus"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
	"periph.io/x/conn/v3/i2c"
	"periph.io/x/devices/v3/ssd1306"
	"periph.io/x/devices/v3/ssd1306/image1bit"

	"github.com/relabs-tech/tilt_computer/internal/orientation"
)

const lineHeight = 13 // basicfont.Face7x13

// Display shows the status lines on an SSD1306 OLED sharing the sensor's I2C bus.
type Display struct {
	dev *ssd1306.Dev
	img *image1bit.VerticalLSB
}

// NewDisplay initializes the panel and shows the splash screen.
func NewDisplay(b i2c.Bus) (*Display, error) {
	dev, err := ssd1306.NewI2C(b, &ssd1306.DefaultOpts)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize display: %w", err)
	}
	d := &Display{dev: dev, img: image1bit.NewVerticalLSB(dev.Bounds())}
	log.Printf("display: %s initialized", dev)

	if err := d.draw([]string{"Tilt computer", "Calibrating", "keep level"}); err != nil {
		log.Printf("display: error showing splash: %v", err)
	}
	return d, nil
}

// Show renders one reading.
func (d *Display) Show(r orientation.Reading) error {
	l := FormatLines(r)
	return d.draw(l[:])
}

// Halt blanks the panel.
func (d *Display) Halt() error { return d.dev.Halt() }

func (d *Display) draw(lines []string) error {
	renderLines(d.img, lines)
	return d.dev.Draw(d.dev.Bounds(), d.img, image.Point{})
}

// renderLines clears img and draws one text line per 13 px row.
func renderLines(img *image1bit.VerticalLSB, lines []string) {
	for i := range img.Pix {
		img.Pix[i] = 0
	}

	drawer := &font.Drawer{
		Dst:  img,
		Src:  &image.Uniform{image1bit.On},
		Face: basicfont.Face7x13,
	}
	for i, line := range lines {
		drawer.Dot = fixed.P(0, (i+1)*lineHeight)
		drawer.DrawString(line)
	}
}
