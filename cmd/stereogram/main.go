package main

import (
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"stereogram/internal/logging"
	"stereogram/pkg/codec"
	"stereogram/pkg/config"
	"stereogram/pkg/para"
	"stereogram/pkg/render"
)

func main() {
	// Parse command line arguments
	configPath := flag.String("config", "stereogram.yaml", "Configuration file")
	initConfig := flag.Bool("init-config", false, "Write the default configuration to -config and exit")
	background := flag.String("background", "", "Background tile image")
	depth := flag.String("depth", "", "Depth map image")
	output := flag.String("output", "stereogram.png", "Output image")
	frames := flag.Int("frames", 1, "Number of animation frames")
	strength := flag.Float64("strength", 12, "Displacement of the deepest level in pixels")
	inverted := flag.Bool("inverted", false, "Swap near and far")
	channel := flag.Int("channel", 0, "Depth map channel holding the depth")
	threads := flag.Int("threads", 0, "Threads per executor (default: all available)")
	verbose := flag.Bool("verbose", false, "Log every processing step")
	saveIntermediary := flag.Bool("save-intermediary", false, "Save the prepared background and depth map")
	intermediaryDir := flag.String("intermediary-dir", "intermediary_results", "Directory to save intermediary results")
	flag.Parse()

	if *initConfig {
		if err := config.CreateDefaultConfigFile(*configPath); err != nil {
			log.Fatalf("Failed to write configuration: %v", err)
		}
		fmt.Printf("Default configuration written to: %s\n", *configPath)
		return
	}

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Flags given on the command line override the configuration file
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "frames":
			cfg.Output.Frames = *frames
		case "strength":
			cfg.Stereogram.Strength = *strength
		case "inverted":
			cfg.Stereogram.Inverted = *inverted
		case "channel":
			cfg.Stereogram.Channel = *channel
		case "threads":
			cfg.Processing.Threads = *threads
		case "verbose":
			cfg.Output.Verbose = *verbose
		case "save-intermediary":
			cfg.Output.SaveIntermediaryResults = *saveIntermediary
		}
	})

	// Validate inputs
	if *background == "" || *depth == "" {
		flag.Usage()
		os.Exit(1)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}
	components, _ := cfg.Components()
	format, err := cfg.OutputFormat(*output)
	if err != nil {
		log.Fatalf("Invalid output: %v", err)
	}
	if pathFormat, err := codec.FormatFromPath(*output); err == nil && pathFormat != format {
		log.Printf("Warning: configured format %s overrides the extension of %s", format, *output)
	}

	level := slog.LevelInfo
	if cfg.Output.Verbose {
		level = slog.LevelDebug
	}
	logging.SetLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))

	numThreads := cfg.Processing.Threads
	if numThreads == 0 {
		numThreads = para.ThreadCount()
	}

	fmt.Println("================================")
	fmt.Println("SINGLE IMAGE RANDOM DOT STEREOGRAM SYNTHESIS")
	fmt.Println("================================")

	params := &render.Params{
		BackgroundFile:          *background,
		DepthFile:               *depth,
		OutputFile:              *output,
		Format:                  format,
		Width:                   cfg.Stereogram.Width,
		Height:                  cfg.Stereogram.Height,
		TileWidth:               cfg.Stereogram.TileWidth,
		Strength:                cfg.Stereogram.Strength,
		Inverted:                cfg.Stereogram.Inverted,
		Channel:                 cfg.Stereogram.Channel,
		Frames:                  cfg.Output.Frames,
		Luminance:               cfg.Effects.Luminance.Strengths,
		LuminanceComponents:     components,
		Wave:                    cfg.Effects.Wave.Strengths,
		RawStream:               cfg.Output.RawStream,
		Threads:                 numThreads,
		Seed:                    cfg.Processing.Seed,
		SaveIntermediaryResults: cfg.Output.SaveIntermediaryResults,
		IntermediaryDir:         *intermediaryDir,
	}

	renderer := render.NewRenderer(params)
	defer renderer.Close()

	fmt.Println("Starting stereogram synthesis...")
	startTime := time.Now()
	if err := renderer.Process(); err != nil {
		renderer.Close()
		log.Fatalf("Rendering failed: %v", err)
	}
	processingTime := time.Since(startTime)

	metrics := renderer.GetMetrics()
	files := renderer.Files()
	fmt.Printf("\nRendering completed successfully in %.2f seconds!\n", processingTime.Seconds())
	if len(files) == 1 {
		fmt.Printf("Output saved to: %s\n\n", files[0])
	} else {
		fmt.Printf("%d frames saved to: %s\n\n", len(files), filepath.Dir(files[0]))
	}

	fmt.Printf("Metrics:\n")
	fmt.Printf("=======================================\n")
	fmt.Printf("Size: %dx%d, %d frame(s)\n", metrics.Width, metrics.Height, metrics.Frames)
	fmt.Printf("Loading: %v\n", metrics.LoadTime.Round(time.Millisecond))
	fmt.Printf("Effects: %v\n", metrics.EffectTime.Round(time.Millisecond))
	fmt.Printf("Synthesis: %v\n", metrics.SynthesisTime.Round(time.Millisecond))
	fmt.Printf("Saving: %v\n", metrics.SaveTime.Round(time.Millisecond))
	if metrics.Frames > 1 {
		fmt.Printf("Mean frame difference (RMS): %.3f\n", metrics.FrameDelta)
	}

	channels := []string{"R", "G", "B", "A"}
	var means []string
	for i, s := range metrics.Output {
		means = append(means, fmt.Sprintf("%s %.1f±%.1f", channels[i], s.Mean, s.StdDev))
	}
	fmt.Printf("Output channels: %s\n", strings.Join(means, ", "))

	fmt.Println("\nParallel processing:")
	fmt.Printf("- Used %d threads per executor\n", numThreads)

	if cfg.Output.SaveIntermediaryResults {
		fmt.Println("\nIntermediary results saved to:")
		fmt.Printf("%s\n", *intermediaryDir)
		fmt.Println("- 01_background: Background tile after scaling")
		fmt.Println("- 02_depth: Depth map fitted to the output")
	}
}
