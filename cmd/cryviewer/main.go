// Command cryviewer is a small GUI that browses a TOML cry catalog
// and plots the synthesized waveform of whichever entry is selected.
package main

import (
	"flag"
	"fmt"
	"image/color"
	"os"
	"sort"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/app"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/widget"

	"crydx"
	"crydx/internal/catalog"
	"crydx/internal/channel"
)

const maxViewFrames = 10 * 1048576 / channel.FrameSamples

func usage() {
	fmt.Fprintf(os.Stderr, "usage: cryviewer -rom <path> -catalog <file.toml>\n")
	flag.PrintDefaults()
}

func main() {
	flag.Usage = usage
	romPath := flag.String("rom", "", "path to the cartridge ROM image")
	catalogPath := flag.String("catalog", "", "path to the TOML cry catalog")
	flag.Parse()

	if *romPath == "" || *catalogPath == "" {
		usage()
		os.Exit(1)
	}

	data, err := os.ReadFile(*romPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "cryviewer: reading ROM: %v\n", err)
		os.Exit(1)
	}

	cat, err := catalog.Load(*catalogPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "cryviewer: %v\n", err)
		os.Exit(1)
	}

	names := make([]string, 0, len(cat.Cry))
	for name := range cat.Cry {
		names = append(names, name)
	}
	sort.Strings(names)

	a := app.New()
	w := a.NewWindow("cryviewer")

	waveform := newWaveformCanvas()
	status := widget.NewLabel("select a cry")

	list := widget.NewList(
		func() int { return len(names) },
		func() fyne.CanvasObject { return widget.NewLabel("") },
		func(i widget.ListItemID, o fyne.CanvasObject) {
			o.(*widget.Label).SetText(names[i])
		},
	)
	list.OnSelected = func(i widget.ListItemID) {
		name := names[i]
		entry := cat.Cry[name]
		sound, err := crydx.Synthesize(data, uint8(entry.Bank), uint16(entry.Addr), entry.Pitch, entry.Length)
		if err != nil {
			status.SetText(fmt.Sprintf("%s: %v", name, err))
			return
		}
		samples := sound.Render(maxViewFrames)
		waveform.setSamples(samples)
		status.SetText(fmt.Sprintf("%s: %d samples", name, len(samples)))
	}

	split := container.NewHSplit(list, container.NewBorder(nil, status, nil, nil, waveform))
	split.Offset = 0.25

	w.SetContent(split)
	w.Resize(fyne.NewSize(800, 400))
	w.ShowAndRun()
}

// waveformCanvas renders a downsampled peak-envelope of a float32
// sample buffer as a fyne raster image. Embedding *canvas.Raster lets
// it satisfy fyne.CanvasObject directly.
type waveformCanvas struct {
	*canvas.Raster
	samples []float32
}

func newWaveformCanvas() *waveformCanvas {
	wc := &waveformCanvas{}
	wc.Raster = canvas.NewRasterWithPixels(wc.pixel)
	return wc
}

func (wc *waveformCanvas) setSamples(samples []float32) {
	wc.samples = samples
	wc.Raster.Refresh()
}

func (wc *waveformCanvas) pixel(x, y, w, h int) color.Color {
	if len(wc.samples) == 0 || w <= 0 {
		return color.Black
	}
	bucket := len(wc.samples) / w
	if bucket < 1 {
		bucket = 1
	}
	start := x * bucket
	if start >= len(wc.samples) {
		return color.Black
	}
	end := start + bucket
	if end > len(wc.samples) {
		end = len(wc.samples)
	}
	peak := float32(0)
	for _, s := range wc.samples[start:end] {
		if s < 0 {
			s = -s
		}
		if s > peak {
			peak = s
		}
	}
	mid := h / 2
	barHalf := int(peak * float32(mid))
	if y >= mid-barHalf && y <= mid+barHalf {
		return color.RGBA{R: 0x20, G: 0xa0, B: 0xff, A: 0xff}
	}
	return color.Black
}
