package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"math"
	"os"
	"path/filepath"

	"github.com/disintegration/imaging"
	"github.com/lucasb-eyer/go-colorful"

	"github.com/sehyun-dev/pixelengine"
	"github.com/sehyun-dev/pixelengine/internal/config"
	"github.com/sehyun-dev/pixelengine/internal/utils"
	"github.com/sehyun-dev/pixelengine/pkg/client"
	"github.com/sehyun-dev/pixelengine/pkg/codec"
	"github.com/sehyun-dev/pixelengine/pkg/enhance"
	"github.com/sehyun-dev/pixelengine/pkg/pixel"
	"github.com/sehyun-dev/pixelengine/pkg/remote"
	"github.com/sehyun-dev/pixelengine/pkg/segment"
)

func main() {
	var in, outDir, op, cfgPath string
	var scale float64
	var amount, radius, sthreshold float64
	var method, target string
	var threshold, tolerance float64
	var noSmooth bool
	var feather int
	var low, high float64
	var backend, url string
	var ext string
	var quality int
	var lossless bool

	flag.StringVar(&in, "in", "", "input image path, URL or directory (jpg/png/webp)")
	flag.StringVar(&outDir, "out", "out", "output directory")
	flag.StringVar(&op, "op", "enhance", "operation: upscale|sharpen|segment|edges|enhance")
	flag.StringVar(&cfgPath, "config", "", "config file path (JSON)")

	flag.Float64Var(&scale, "scale", 2.0, "magnification factor for upscale/enhance (1.0 < s <= 4.0)")

	flag.Float64Var(&amount, "amount", 0, "unsharp mask amount (0=default)")
	flag.Float64Var(&radius, "radius", 0, "unsharp mask radius (0=default)")
	flag.Float64Var(&sthreshold, "sthreshold", 0, "unsharp mask threshold (0=default)")

	flag.StringVar(&method, "method", "auto", "segmentation method: auto|edge-color|color-range|edge-detect")
	flag.Float64Var(&threshold, "threshold", 0, "segmentation threshold (0=default)")
	flag.StringVar(&target, "target", "", "target color for color-range, hex (#RRGGBB)")
	flag.Float64Var(&tolerance, "tolerance", 0, "color-range tolerance (0=default)")
	flag.BoolVar(&noSmooth, "nosmooth", false, "disable alpha feathering")
	flag.IntVar(&feather, "feather", 0, "feather radius (0=default)")

	flag.Float64Var(&low, "low", 50, "Canny low threshold")
	flag.Float64Var(&high, "high", 150, "Canny high threshold")

	flag.StringVar(&backend, "backend", "local", "enhancement backend: local or remote")
	flag.StringVar(&url, "url", "", "remote enhancement server URL (default http://localhost:8090)")

	flag.StringVar(&ext, "ext", "png", "output format: png|jpg|webp")
	flag.IntVar(&quality, "quality", 90, "JPEG/WebP output quality (1-100)")
	flag.BoolVar(&lossless, "lossless", false, "WebP lossless mode (keeps alpha)")

	flag.Parse()
	if in == "" {
		log.Fatalf("usage: %s -in input.jpg|URL|dir -op upscale|sharpen|segment|edges|enhance [-out outdir] [-scale 2.0] [-method auto] [-backend local|remote]", filepath.Base(os.Args[0]))
	}
	if err := utils.EnsureDir(outDir); err != nil {
		log.Fatal(err)
	}

	cfg := config.Default()
	if cfgPath != "" {
		loaded, err := config.LoadFromFile(cfgPath)
		if err != nil {
			log.Fatal(err)
		}
		if err := loaded.Validate(); err != nil {
			log.Fatalf("invalid config: %v", err)
		}
		cfg = loaded
	}
	engine := pixelengine.NewWithConfig(cfg)

	// Enhancement backend: the remote service is a drop-in for the local
	// pipeline, selected per run.
	var enhancer client.Enhancer
	switch backend {
	case "local":
		enhancer = enhance.New()
	case "remote":
		if url == "" {
			url = cfg.Remote.URL
		}
		var err error
		enhancer, err = remote.NewClient(url)
		if err != nil {
			log.Fatalf("Failed to create remote client: %v", err)
		}
	default:
		log.Fatalf("Unknown backend: %s (use 'local' or 'remote')", backend)
	}

	inputs := []string{in}
	if utils.DirExists(in) {
		var err error
		inputs, err = utils.ListImageFiles(in)
		if err != nil {
			log.Fatal(err)
		}
		if len(inputs) == 0 {
			log.Fatalf("no image files found in %s", in)
		}
	}

	opts := segment.Options{
		Method:        segment.Method(method),
		Threshold:     threshold,
		Tolerance:     tolerance,
		SmoothEdges:   !noSmooth && cfg.Segment.SmoothEdges,
		FeatherRadius: feather,
	}
	if target != "" {
		c, err := colorful.Hex(target)
		if err != nil {
			log.Fatalf("invalid target color %q: %v", target, err)
		}
		r, g, b := c.RGB255()
		opts.TargetColor = &segment.RGB{R: r, G: g, B: b}
	}

	for _, input := range inputs {
		if err := process(engine, enhancer, cfg, input, outDir, op, scale,
			amount, radius, sthreshold, opts, low, high, ext, quality, lossless); err != nil {
			log.Printf("%s: %v", input, err)
		}
	}
}

func process(engine *pixelengine.Engine, enhancer client.Enhancer, cfg *config.Config,
	input, outDir, op string, scale, amount, radius, sthreshold float64,
	opts segment.Options, low, high float64, ext string, quality int, lossless bool) error {

	buf, err := codec.LoadSmart(input)
	if err != nil {
		return err
	}
	log.Printf("loaded %s (%dx%d, %s)", input, buf.Width, buf.Height,
		utils.FormatFileSize(int64(len(buf.Pix))))

	// The algorithms do not bound their own memory. Oversized inputs are
	// downscaled here, before any operation runs.
	buf = capMemory(buf, cfg.Memory.MaxBufferBytes, scale)

	var out *pixel.Buffer
	switch op {
	case "upscale":
		out, err = engine.Upscale(buf, scale)
	case "sharpen":
		out, err = engine.Sharpen(buf, amount, radius, sthreshold)
	case "segment":
		out, err = engine.RemoveBackground(buf, opts)
		if ext == "jpg" || ext == "jpeg" {
			log.Printf("warning: %s does not preserve transparency, use png or lossless webp", ext)
		}
	case "edges":
		var res *pixelengine.EdgeResult
		res, err = engine.DetectEdges(buf, low, high)
		if err == nil {
			out = res.Edges
			log.Printf("found %d contours", len(res.Contours))
		}
	case "enhance":
		out, err = enhancer.Enhance(context.Background(), buf, scale)
		if err != nil {
			// The remote service is optional; fall back to the
			// local pipeline so the result is always produced.
			if _, isRemote := enhancer.(*remote.Client); isRemote {
				log.Printf("remote enhancement failed (%v), falling back to local", err)
				out, err = enhance.New().Enhance(context.Background(), buf, scale)
			}
		}
	default:
		return fmt.Errorf("unknown operation: %s", op)
	}
	if err != nil {
		return err
	}

	outPath := utils.GenerateOutputFilename(input, outDir, op, ext)
	if err := codec.Save(out, outPath, ext, quality, lossless); err != nil {
		return err
	}
	log.Printf("wrote %s (%dx%d)", outPath, out.Width, out.Height)
	return nil
}

// capMemory downscales buf so that the estimated output of the requested
// operation stays under the memory ceiling.
func capMemory(buf *pixel.Buffer, limit int64, scale float64) *pixel.Buffer {
	if limit <= 0 {
		return buf
	}
	if scale < 1 {
		scale = 1
	}
	outW := int(math.Round(float64(buf.Width) * scale))
	outH := int(math.Round(float64(buf.Height) * scale))
	if pixel.CheckAllocation(outW, outH, limit) == nil {
		return buf
	}

	shrink := math.Sqrt(float64(limit) / float64(pixel.EstimatedBytes(outW, outH)))
	newW := int(float64(buf.Width) * shrink)
	newH := int(float64(buf.Height) * shrink)
	if newW < 1 || newH < 1 {
		return buf
	}
	log.Printf("input too large for memory ceiling, downscaling to %dx%d", newW, newH)
	resized := imaging.Resize(buf.ToNRGBA(), newW, newH, imaging.Lanczos)
	return pixel.FromNRGBA(resized)
}
