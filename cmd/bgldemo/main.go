// Command bgldemo demonstrates the bindlayout resource-handle model.
//
// It opens a backend, builds a few bind group layouts with a pipeline layout
// and a bind group on top, simulates a backend fault and prints the
// resulting validity of every object.
package main

import (
	"errors"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"
	"text/tabwriter"

	"github.com/gogpu/bindlayout"
	"github.com/gogpu/bindlayout/backend"
	"github.com/gogpu/bindlayout/backend/loopback"
	"github.com/gogpu/bindlayout/backend/native"
	"github.com/gogpu/gputypes"
)

func main() {
	var (
		backendName = flag.String("backend", backend.BackendLoopback, "backend to use (native or loopback)")
		verbose     = flag.Bool("v", false, "enable debug logging")
		fault       = flag.Bool("fault", true, "simulate a backend fault on the first layout (loopback only)")
	)
	flag.Parse()

	level := slog.LevelInfo
	if *verbose {
		level = slog.LevelDebug
	}
	bindlayout.SetLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))

	ch, err := backend.Open(*backendName)
	if err != nil {
		log.Fatalf("Failed to open backend: %v (available: %v)", err, backend.Available())
	}
	defer func() { _ = backend.Close(ch) }()

	dev := bindlayout.NewDevice(ch,
		bindlayout.WithLabel("bgldemo"),
		bindlayout.WithUncapturedErrorHandler(func(err error) {
			log.Printf("uncaptured: %v", err)
		}),
	)
	defer dev.Destroy()

	var buffer bindlayout.BufferID = 1
	if nc, ok := ch.(*native.Channel); ok {
		buffer, err = nc.CreateBuffer("uniforms", 256, gputypes.BufferUsageUniform|gputypes.BufferUsageCopyDst)
		if err != nil {
			log.Fatalf("Failed to create buffer: %v", err)
		}
	}

	camera, _ := dev.CreateBindGroupLayout(&bindlayout.BindGroupLayoutDescriptor{
		Label: "camera",
		Entries: []gputypes.BindGroupLayoutEntry{{
			Binding:    0,
			Visibility: gputypes.ShaderStageVertex | gputypes.ShaderStageFragment,
			Buffer:     &gputypes.BufferBindingLayout{Type: gputypes.BufferBindingTypeUniform, MinBindingSize: 64},
		}},
	})
	particles, _ := dev.CreateBindGroupLayout(&bindlayout.BindGroupLayoutDescriptor{
		Label: "particles",
		Entries: []gputypes.BindGroupLayoutEntry{{
			Binding:    0,
			Visibility: gputypes.ShaderStageCompute,
			Buffer:     &gputypes.BufferBindingLayout{Type: gputypes.BufferBindingTypeReadOnlyStorage},
		}},
	})
	// Writable storage visible to the vertex stage is rejected.
	broken, err := dev.CreateBindGroupLayout(&bindlayout.BindGroupLayoutDescriptor{
		Label: "broken",
		Entries: []gputypes.BindGroupLayoutEntry{{
			Binding:    0,
			Visibility: gputypes.ShaderStageVertex,
			Buffer:     &gputypes.BufferBindingLayout{Type: gputypes.BufferBindingTypeStorage},
		}},
	})
	if err != nil {
		log.Printf("expected failure: %v", err)
	}

	pipeline, err := dev.CreatePipelineLayout(&bindlayout.PipelineLayoutDesc{
		Label:            "main",
		BindGroupLayouts: []*bindlayout.BindGroupLayout{camera, particles},
	})
	if err != nil {
		log.Fatalf("Failed to create pipeline layout: %v", err)
	}
	group, err := dev.CreateBindGroup(&bindlayout.BindGroupDesc{
		Label:   "camera-group",
		Layout:  camera,
		Entries: []bindlayout.BindGroupEntry{{Binding: 0, Buffer: buffer, Size: 64}},
	})
	if err != nil {
		log.Fatalf("Failed to create bind group: %v", err)
	}

	if lb, ok := ch.(*loopback.Backend); ok && *fault {
		if err := lb.Inject(bindlayout.ResourceBindGroupLayout, uint64(camera.ID()), errors.New("simulated device memory loss")); err != nil {
			log.Fatalf("Failed to inject fault: %v", err)
		}
		if err := lb.Sync(); err != nil {
			log.Fatalf("Failed to sync: %v", err)
		}
		// Building on the invalidated layout is now stale use.
		if _, err := dev.CreateBindGroup(&bindlayout.BindGroupDesc{Layout: camera}); err != nil {
			log.Printf("expected failure: %v", err)
		}
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "OBJECT\tID\tLABEL\tVALID")
	for _, obj := range []interface {
		fmt.Stringer
		bindlayout.Labeler
		IsValid() bool
	}{camera, particles, broken, pipeline, group} {
		label, _ := obj.Label()
		fmt.Fprintf(w, "%T\t%s\t%s\t%v\n", obj, obj, label, obj.IsValid())
	}
	_ = w.Flush()

	layouts, pipelines, groups := dev.LiveObjects()
	log.Printf("live objects: %d layouts, %d pipeline layouts, %d bind groups", layouts, pipelines, groups)
}
