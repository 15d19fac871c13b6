// Command exposeview opens a window with a long list of rows that reveal
// themselves the first time they scroll into view.
package main

import (
	"flag"
	"fmt"
	"image/color"
	"log"
	"os"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/app"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/theme"
	"fyne.io/fyne/v2/widget"
	"github.com/samber/lo"

	"github.com/chrisuehlinger/expose/expose"
	"github.com/chrisuehlinger/expose/ui"
)

var (
	pendingColor  = color.NRGBA{R: 0x80, G: 0x80, B: 0x80, A: 0x40}
	revealedColor = color.NRGBA{R: 0x2e, G: 0x9c, B: 0x5a, A: 0xff}
)

type row struct {
	box   *fyne.Container
	bg    *canvas.Rectangle
	label *widget.Label
}

func newRow(i int) *row {
	bg := canvas.NewRectangle(pendingColor)
	bg.SetMinSize(fyne.NewSize(0, 96))
	label := widget.NewLabel(fmt.Sprintf("Row %d", i+1))
	return &row{box: container.NewStack(bg, label), bg: bg, label: label}
}

func (r *row) reveal() {
	r.bg.FillColor = revealedColor
	r.bg.Refresh()
	r.label.SetText(r.label.Text + " revealed")
}

func main() {
	count := flag.Int("rows", 60, "Number of rows")
	coalesce := flag.Duration("coalesce", 0, "Coalesce scroll bursts for this long (0 checks on every event)")
	verbose := flag.Bool("v", false, "Log observer activity to stderr")
	flag.Parse()

	a := app.New()
	w := a.NewWindow("expose")
	w.Resize(fyne.NewSize(480, 640))

	rows := lo.Times(*count, newRow)
	list := container.NewVBox()
	for _, r := range rows {
		list.Add(r.box)
	}
	scroll := ui.NewVScroll(list)
	status := widget.NewLabel("")

	var opts []expose.Option
	if *coalesce > 0 {
		opts = append(opts, expose.WithCoalescing(*coalesce))
	}
	if *verbose {
		opts = append(opts, expose.WithLogger(log.New(os.Stderr, "expose: ", log.LstdFlags)))
	}
	observer, detach := ui.NewObserver(scroll, opts...)

	updateStatus := func() {
		stats := observer.Stats()
		status.SetText(fmt.Sprintf("%d revealed, %d waiting", stats.Fired, stats.Tracked))
	}

	w.SetContent(container.NewBorder(
		container.NewPadded(status), nil, nil, nil,
		scroll,
	))

	// Lay out the list before measuring it.
	scroll.Resize(fyne.NewSize(480, 640-theme.Padding()*2-status.MinSize().Height))

	byBox := lo.Associate(rows, func(r *row) (fyne.CanvasObject, *row) {
		return r.box, r
	})
	targets := lo.Map(rows, func(r *row, _ int) fyne.CanvasObject {
		return r.box
	})
	if _, err := observer.Register(targets, func(obj fyne.CanvasObject) {
		byBox[obj].reveal()
		updateStatus()
	}); err != nil {
		log.Fatalf("exposeview: %v", err)
	}
	updateStatus()

	w.ShowAndRun()
	detach()
}
