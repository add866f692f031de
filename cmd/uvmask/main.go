package main

import (
	"context"
	"flag"
	"fmt"
	"image"
	"image/color"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"uv-mask-maker/internal/batch"
	"uv-mask-maker/internal/config"
	"uv-mask-maker/internal/crypto"
	"uv-mask-maker/internal/export"
	"uv-mask-maker/internal/filter"
	"uv-mask-maker/internal/logger"
	"uv-mask-maker/internal/mesh"
	"uv-mask-maker/internal/prefs"
	"uv-mask-maker/internal/session"
	"uv-mask-maker/internal/texture"
)

func main() {
	// CLI flags
	configFile := flag.String("config", "", "Path to config file (YAML or JSON)")
	meshFile := flag.String("mesh", "", "Mesh file (.obj or .bmd)")
	islands := flag.String("islands", "", "Comma-separated island ids to select")
	picks := flag.String("pick", "", "Comma-separated triangle indices to pick")
	all := flag.Bool("all", false, "Select every island")
	invert := flag.Bool("invert", false, "Invert the selection")
	list := flag.Bool("list", false, "List islands and exit")
	size := flag.Int("size", 0, "Texture size in pixels (default: 512)")
	margin := flag.Int("margin", -1, "Pixel margin around islands (default: 2)")
	channels := flag.String("channels", "", "Write only these channels over the base, e.g. rgba")
	baseFile := flag.String("base", "", "Base texture for channel-wise output")
	outFile := flag.String("out", "", "Output mask path (default: <output dir>/uv_mask.<format>)")
	format := flag.String("format", "", "Output format: png or webp")
	previewFile := flag.String("preview", "", "Also write a preview image to this path")
	bakeVC := flag.String("bake-vc", "", "Write the mesh with baked vertex colors to this OBJ path")
	baseVC := flag.String("base-vc", "", "OBJ whose vertex colors are the bake base")
	vcFallback := flag.Bool("vc-fallback", false, "Bake over the mesh's own colors when -base-vc has a different vertex count")
	batchFile := flag.String("batch", "", "Run a YAML job file instead of a single mesh")
	outputDir := flag.String("output", "", "Output directory (default: GeneratedMasks)")
	workers := flag.Int("workers", 0, "Batch worker goroutines (default: NumCPU)")
	prefsPath := flag.String("prefs", "", "Preference database path")
	remember := flag.Bool("remember", false, "Load and save remembered settings")
	logLevel := flag.String("log-level", "", "Log level: debug, info, warn, error")
	logFile := flag.String("log-file", "", "Rotating log file path")
	leaKey := flag.String("lea-key", "", "Hex LEA-256 key for encrypted BMD files")
	texName := flag.String("texture", "", "Only use BMD sub-meshes with this texture")
	skipEffects := flag.Bool("skip-effects", false, "Ignore BMD glow and effect sub-meshes")
	skipBody := flag.Bool("skip-body", false, "Ignore BMD character body sub-meshes")

	flag.Parse()

	// Load config
	cfg, err := config.Load(*configFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	// Remembered preferences sit between the config file and flags
	var store *prefs.Store
	if *remember || cfg.Prefs.Remember {
		path := *prefsPath
		if path == "" {
			path = cfg.Prefs.Path
		}
		if path == "" {
			path = config.DefaultPrefsPath()
		}
		store, err = prefs.Open(path)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Warning: preferences unavailable: %v\n", err)
		} else {
			defer store.Close()
			if err := cfg.ApplyPrefs(ctx, store); err != nil {
				fmt.Fprintf(os.Stderr, "Warning: %v\n", err)
			}
		}
	}

	// CLI flags override config file
	cfg.Resolve(config.Flags{
		Size:      *size,
		Margin:    *margin,
		Channels:  *channels,
		OutputDir: *outputDir,
		Format:    *format,
		Workers:   *workers,
		LogLevel:  *logLevel,
		LogFile:   *logFile,
		PrefsPath: *prefsPath,
		LEAKey:    *leaKey,
	})
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	if err := logger.Init(cfg.Logging.Level, cfg.Logging.LogFile); err != nil {
		fmt.Fprintf(os.Stderr, "Error initializing logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	if cfg.BMD.LEAKey != "" {
		if err := crypto.SetLEAKeyHex(cfg.BMD.LEAKey); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	}

	settings, err := session.SettingsFromConfig(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	if *baseFile != "" && !texture.Supported(*baseFile) {
		fmt.Fprintf(os.Stderr, "Error: unsupported base texture %s\n", *baseFile)
		os.Exit(1)
	}

	var code int
	if *batchFile != "" {
		code = runBatch(ctx, cfg, settings, *batchFile)
	} else {
		code = runSingle(cfg, settings, singleArgs{
			mesh:    *meshFile,
			islands: *islands,
			picks:   *picks,
			all:     *all,
			invert:  *invert,
			list:    *list,
			base:    *baseFile,
			out:     *outFile,
			preview: *previewFile,
			bakeVC:  *bakeVC,
			baseVC:  *baseVC,
			vcFall:  *vcFallback,
			sub:     filter.Options{Texture: *texName, SkipEffects: *skipEffects, SkipBody: *skipBody},
		})
	}

	if code == 0 && store != nil {
		if err := cfg.SavePrefs(ctx, store); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: saving preferences: %v\n", err)
		}
	}
	if code != 0 {
		logger.Sync()
		os.Exit(code)
	}
}

type singleArgs struct {
	mesh, islands, picks string
	all, invert, list    bool
	base, out, preview   string
	bakeVC, baseVC       string
	vcFall               bool
	sub                  filter.Options
}

func runSingle(cfg *config.Config, settings session.Settings, args singleArgs) int {
	if args.mesh == "" {
		fmt.Fprintln(os.Stderr, "Error: -mesh or -batch is required.")
		flag.Usage()
		return 2
	}

	m, err := mesh.LoadWith(args.mesh, args.sub.Keep)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading mesh: %v\n", err)
		return 1
	}
	sess := session.New(settings)
	if err := sess.Load(m); err != nil {
		fmt.Fprintf(os.Stderr, "Error analyzing mesh: %v\n", err)
		return 1
	}

	if args.list {
		printIslands(sess)
		return 0
	}

	// Selection
	ids, err := parseInts(args.islands)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: -islands: %v\n", err)
		return 2
	}
	tris, err := parseInts(args.picks)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: -pick: %v\n", err)
		return 2
	}
	if args.all {
		sess.SelectAll()
	}
	sess.Select(ids...)
	for _, t := range tris {
		if _, ok := sess.Pick(t); !ok {
			fmt.Fprintf(os.Stderr, "Warning: triangle %d is out of range\n", t)
		}
	}
	if args.invert {
		sess.Invert()
	}

	var base *image.NRGBA
	if args.base != "" {
		base, err = texture.LoadImage(args.base)
		if err != nil {
			logger.Warn("base texture unavailable, composing onto white",
				zap.String("path", args.base), zap.Error(err))
			base = nil
		}
	}

	img, err := sess.ExportImage(base)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	out := args.out
	if out == "" {
		out = export.OutputPath(cfg.Output.Dir, cfg.Output.Name, cfg.Output.Format)
	} else if filepath.Ext(out) == "" {
		out += "." + cfg.Output.Format
	}
	out = export.Target(out, cfg.Output.Overwrite)
	if err := export.WriteImage(out, img); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	fmt.Printf("Saved: %s (%d islands selected of %d)\n", out, sess.Selection().Len(), sess.Analysis().IslandCount())

	if args.preview != "" {
		prev, err := sess.PreviewImage(base)
		if err == nil {
			err = export.WriteImage(args.preview, prev)
		}
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error writing preview: %v\n", err)
			return 1
		}
		fmt.Printf("Preview: %s\n", args.preview)
	}

	if args.bakeVC != "" {
		if err := bakeVertexColors(sess, m, args.bakeVC, args.baseVC, args.vcFall); err != nil {
			fmt.Fprintf(os.Stderr, "Error baking vertex colors: %v\n", err)
			return 1
		}
		fmt.Printf("Vertex colors: %s\n", args.bakeVC)
	}
	return 0
}

// bakeVertexColors writes m with the selection baked into its vertex
// colors. With useFallback a base mesh whose vertex count differs is
// replaced by m's own colors, or white when m has none.
func bakeVertexColors(sess *session.Session, m *mesh.Snapshot, path, basePath string, useFallback bool) error {
	var base, fallback []color.NRGBA
	if basePath != "" {
		bm, err := mesh.Load(basePath)
		if err != nil {
			return err
		}
		if !bm.HasColors() {
			return fmt.Errorf("base mesh %s has no vertex colors", basePath)
		}
		base = bm.Colors
	}
	if useFallback {
		fallback = m.Colors
		if !m.HasColors() {
			fallback = make([]color.NRGBA, m.VertexCount())
			for i := range fallback {
				fallback[i] = color.NRGBA{255, 255, 255, 255}
			}
		}
	}
	colors, err := sess.VertexColors(base, fallback)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := mesh.WriteOBJ(f, m.WithColors(colors)); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func printIslands(sess *session.Session) {
	a := sess.Analysis()
	lm, err := sess.LabelMap()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return
	}
	fmt.Printf("Vertices: %d, Triangles: %d, Islands: %d, Border edges: %d\n",
		a.VertexCount(), len(a.Triangles), a.IslandCount(), len(a.BorderEdges))
	fmt.Printf("%6s %9s %21s %21s %9s\n", "island", "triangles", "uv min", "uv max", "pixels")
	for _, isl := range a.Islands {
		b, _ := a.IslandUVBounds(isl.ID)
		fmt.Printf("%6d %9d %10.4f,%10.4f %10.4f,%10.4f %9d\n",
			isl.ID, len(isl.Triangles), b.Min[0], b.Min[1], b.Max[0], b.Max[1], lm.Coverage(isl.ID))
	}
}

func runBatch(ctx context.Context, cfg *config.Config, settings session.Settings, path string) int {
	jobs, err := batch.LoadJobs(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading jobs: %v\n", err)
		return 1
	}
	if len(jobs) == 0 {
		fmt.Println("No jobs to run.")
		return 0
	}

	fmt.Printf("UV mask batch: %d jobs, Workers: %d\n", len(jobs), cfg.Batch.Workers)
	fmt.Printf("Output: %s\n", cfg.Output.Dir)
	fmt.Println("------------------------------------------------------------")

	start := time.Now()

	batchCfg := batch.Config{
		OutputDir: cfg.Output.Dir,
		Format:    cfg.Output.Format,
		Overwrite: cfg.Output.Overwrite,
		Settings:  settings,
		Textures:  texture.NewCache(nil),
		Workers:   cfg.Batch.Workers,
	}
	results := batch.Run(ctx, batchCfg, jobs)

	fmt.Println("------------------------------------------------------------")
	fmt.Printf("Done in %.1fs\n", time.Since(start).Seconds())

	failed := batch.Failed(results)
	fmt.Printf("Generated: %d/%d\n", len(results)-failed, len(results))
	if failed > 0 {
		fmt.Printf("\nFailed (%d):\n", failed)
		shown := 0
		for _, r := range results {
			if r.Success {
				continue
			}
			if shown == 20 {
				break
			}
			fmt.Printf("  %s: %s\n", r.Name, r.Error)
			shown++
		}
	}

	// Write manifest
	manifestPath := filepath.Join(cfg.Output.Dir, "manifest.json")
	if err := batch.WriteManifest(manifestPath, batchCfg, results); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: manifest write failed: %v\n", err)
	} else {
		fmt.Printf("Manifest: %s\n", manifestPath)
	}

	if failed > 0 {
		return 1
	}
	return 0
}

func parseInts(s string) ([]int, error) {
	var out []int
	for _, f := range strings.Split(s, ",") {
		f = strings.TrimSpace(f)
		if f == "" {
			continue
		}
		n, err := strconv.Atoi(f)
		if err != nil {
			return nil, err
		}
		out = append(out, n)
	}
	return out, nil
}
