// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Command ctxdemo records a shadow-mapped frame through the gfxctx command
// contexts and optionally saves the result as a PNG.
//
// By default the frame is rendered on the best registered backend: a GPU
// when one is found, the in-memory command recorder otherwise. Use -backend
// to pick one by name.
package main

import (
	"flag"
	"fmt"
	"image"
	"image/png"
	"io"
	"log"
	"log/slog"
	"os"
	"strings"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/gogpu/gfxctx"
	"github.com/gogpu/gfxctx/backend"
	_ "github.com/gogpu/gfxctx/backend/record" // register the recording backend
	"github.com/gogpu/gfxctx/command"
	"github.com/gogpu/gfxctx/gpucore"
	"github.com/gogpu/gfxctx/upload"
)

func main() {
	var (
		framePath   = flag.String("frame", "", "TOML frame description (default scene when empty)")
		output      = flag.String("output", "", "PNG file for the rendered frame")
		backendName = flag.String("backend", "", "backend name (best available when empty)")
		verbose     = flag.Bool("v", false, "log gfxctx debug output")
		metrics     = flag.Bool("metrics", false, "print the context manager metrics")
	)
	flag.Parse()

	if *verbose {
		gfxctx.SetLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug})))
	}

	frame, err := loadFrame(*framePath)
	if err != nil {
		log.Fatalf("Failed to load frame: %v", err)
	}

	dev, name, err := openDevice(*backendName)
	if err != nil {
		log.Fatalf("Failed to open device: %v", err)
	}
	defer func() {
		if err := backend.Close(dev); err != nil {
			log.Printf("Failed to close device: %v", err)
		}
	}()
	log.Printf("Rendering on the %s backend (available: %v)\n", name, backend.Available())

	var metricsOut io.Writer
	if *metrics {
		metricsOut = os.Stdout
	}
	img, err := run(dev, frame, metricsOut)
	if err != nil {
		log.Printf("Failed to render: %v", err)
		return
	}

	if *output != "" {
		if err := savePNG(*output, img); err != nil {
			log.Printf("Failed to save: %v", err)
			return
		}
		log.Printf("Frame saved to %s (%dx%d)\n", *output, frame.Width, frame.Height)
	}
}

// openDevice opens the named backend, or the best available one when name
// is empty.
func openDevice(name string) (gpucore.Device, string, error) {
	if name == "" {
		return backend.Default()
	}
	dev, err := backend.Open(name)
	return dev, name, err
}

// run renders f on dev and reads the color buffer back. When metricsOut is
// set, the manager metrics are written to it once the frame is done.
func run(dev gpucore.Device, f Frame, metricsOut io.Writer) (*image.NRGBA, error) {
	reg := prometheus.NewRegistry()
	m, err := command.NewManager(dev, command.WithMetrics(reg))
	if err != nil {
		return nil, err
	}
	defer func() { _ = m.Close() }()

	s, err := newScene(m, f)
	if err != nil {
		return nil, fmt.Errorf("ctxdemo: create scene: %w", err)
	}
	defer s.destroy()

	g, err := m.BeginGraphics("frame")
	if err != nil {
		return nil, err
	}
	if err := s.record(g, f); err != nil {
		_, _ = g.Finish(false)
		return nil, err
	}
	if _, err := g.Finish(false); err != nil {
		return nil, err
	}

	fp := upload.Footprint(&s.color.Texture, 0, 0)
	rb, err := dev.CreateBuffer(gpucore.BufferDesc{
		Label:        "readback",
		ElementCount: uint32(upload.Size(fp)), //nolint:gosec // a single 2D mip
		ElementSize:  1,
		Heap:         gpucore.HeapReadback,
		InitialState: gpucore.StateCopyDest,
	})
	if err != nil {
		return nil, err
	}
	defer dev.Destroy(rb)

	// ReadbackTexture2D runs on the direct queue after the frame and waits.
	if fp, err = m.ReadbackTexture2D(rb, &s.color.Texture); err != nil {
		return nil, err
	}
	if metricsOut != nil {
		if err := writeMetrics(metricsOut, reg); err != nil {
			return nil, err
		}
	}
	return toImage(rb.Mapped(), fp), nil
}

func toImage(data []byte, fp gpucore.SubresourceFootprint) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, int(fp.Width), int(fp.Height)))
	row := int(fp.Width) * 4
	for y := range int(fp.Height) {
		src := int(fp.Offset) + y*int(fp.RowPitch)
		if src+row > len(data) {
			break
		}
		copy(img.Pix[y*img.Stride:], data[src:src+row])
	}
	return img
}

func savePNG(path string, img image.Image) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := png.Encode(f, img); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}

// writeMetrics prints one line per sample in the form name{labels} value.
func writeMetrics(w io.Writer, reg *prometheus.Registry) error {
	families, err := reg.Gather()
	if err != nil {
		return fmt.Errorf("ctxdemo: gather metrics: %w", err)
	}
	for _, mf := range families {
		for _, m := range mf.GetMetric() {
			v := m.GetCounter().GetValue() + m.GetGauge().GetValue()
			var labels []string
			for _, lp := range m.GetLabel() {
				labels = append(labels, lp.GetName()+"="+lp.GetValue())
			}
			if _, err := fmt.Fprintf(w, "%s{%s} %g\n", mf.GetName(), strings.Join(labels, ","), v); err != nil {
				return err
			}
		}
	}
	return nil
}
