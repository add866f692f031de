// Package batch runs mask jobs concurrently. Every job owns its own
// session, so analyses never share state across workers.
package batch

import (
	"context"
	"fmt"
	"image"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"uv-mask-maker/internal/composite"
	"uv-mask-maker/internal/export"
	"uv-mask-maker/internal/logger"
	"uv-mask-maker/internal/mesh"
	"uv-mask-maker/internal/postprocess"
	"uv-mask-maker/internal/session"
	"uv-mask-maker/internal/texture"
)

// Config holds all shared resources for a batch run.
type Config struct {
	OutputDir string
	Format    string
	Overwrite bool
	Settings  session.Settings
	Textures  *texture.Cache
	Workers   int
	Progress  time.Duration // 0 means every 2s
}

// Result holds the outcome of processing one job.
type Result struct {
	Name         string `json:"name"`
	Model        string `json:"model"`
	Output       string `json:"output,omitempty"`
	VertexColors string `json:"vertex_colors,omitempty"`
	Islands      int    `json:"islands"`
	Selected     []int  `json:"selected"`
	Pixels       int    `json:"pixels"`
	Regions      int    `json:"regions"`
	Success      bool   `json:"success"`
	Error        string `json:"error,omitempty"`
}

// Run processes all jobs using a worker pool. Jobs not started before ctx
// is cancelled are reported with the context error.
func Run(ctx context.Context, cfg Config, jobs []Job) []Result {
	total := len(jobs)
	results := make([]Result, total)
	var processed atomic.Int64
	log := logger.Named("batch")

	if cfg.Workers <= 0 {
		cfg.Workers = 1
	}
	if cfg.Textures == nil {
		cfg.Textures = texture.NewCache(nil)
	}
	interval := cfg.Progress
	if interval <= 0 {
		interval = 2 * time.Second
	}

	start := time.Now()

	// Progress reporter
	done := make(chan struct{})
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-done:
				return
			case <-ticker.C:
				p := processed.Load()
				if p > 0 {
					rate := float64(p) / time.Since(start).Seconds()
					log.Info("progress", zap.Int64("done", p), zap.Int("total", total),
						zap.Float64("jobs_per_sec", rate))
				}
			}
		}
	}()

	// Worker pool
	jobChan := make(chan int, cfg.Workers*2)
	var wg sync.WaitGroup

	for w := 0; w < cfg.Workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for idx := range jobChan {
				if err := ctx.Err(); err != nil {
					results[idx] = failed(jobs[idx], err)
				} else {
					results[idx] = processJob(cfg, jobs[idx])
				}
				if !results[idx].Success {
					log.Warn("job failed", zap.String("job", jobs[idx].Name),
						zap.String("error", results[idx].Error))
				}
				processed.Add(1)
			}
		}()
	}

	// Send work
	for i := range jobs {
		jobChan <- i
	}
	close(jobChan)

	wg.Wait()
	close(done)

	log.Info("batch finished", zap.Int("jobs", total), zap.Int("failed", Failed(results)),
		zap.Duration("elapsed", time.Since(start)))
	return results
}

// Failed counts unsuccessful results.
func Failed(results []Result) int {
	n := 0
	for _, r := range results {
		if !r.Success {
			n++
		}
	}
	return n
}

func failed(job Job, err error) Result {
	return Result{Name: job.Name, Model: job.Model, Error: err.Error()}
}

func processJob(cfg Config, job Job) Result {
	m, err := mesh.LoadWith(job.Model, job.SubMeshes().Keep)
	if err != nil {
		return failed(job, err)
	}

	st := cfg.Settings
	if job.Size > 0 {
		st.Size = job.Size
	}
	if job.Margin != nil {
		st.Margin = *job.Margin
	}
	if job.Channels != "" {
		ch, err := composite.ParseChannels(job.Channels)
		if err != nil {
			return failed(job, err)
		}
		st.Channels = ch
		st.ChannelWrite = true
	}

	s := session.New(st)
	if err := s.Load(m); err != nil {
		return failed(job, err)
	}
	switch {
	case job.All:
		s.SelectAll()
	default:
		s.Select(job.Islands...)
	}
	if job.Invert {
		s.Invert()
	}

	res := Result{
		Name:     job.Name,
		Model:    job.Model,
		Islands:  s.Analysis().IslandCount(),
		Selected: s.Selection().IDs(),
	}

	mask, err := s.Mask()
	if err != nil {
		return failed(job, err)
	}
	res.Pixels = mask.Count()
	res.Regions = len(postprocess.Regions(mask.Pix, mask.Width, mask.Height))

	img, err := s.ExportImage(cfg.baseImage(job, st.Size))
	if err != nil {
		return failed(job, err)
	}

	out := job.Output
	if out == "" {
		out = export.OutputPath(cfg.OutputDir, job.Name, cfg.Format)
	}
	out = export.Target(out, cfg.Overwrite)
	if err := export.WriteImage(out, img); err != nil {
		return failed(job, err)
	}
	res.Output = out

	if job.VertexColors != "" {
		colors, err := s.VertexColors(nil, nil)
		if err != nil {
			return failed(job, err)
		}
		if err := writeOBJ(job.VertexColors, m.WithColors(colors)); err != nil {
			return failed(job, err)
		}
		res.VertexColors = job.VertexColors
	}

	res.Success = true
	return res
}

// baseImage loads the job's base texture. Missing or unreadable bases fall
// back to no base, which composes onto white.
func (cfg Config) baseImage(job Job, size int) *image.NRGBA {
	if job.Base == "" {
		return nil
	}
	img, err := cfg.Textures.LoadResized(job.Base, size, size)
	if err != nil {
		logger.Named("batch").Warn("base texture unavailable", zap.String("job", job.Name),
			zap.String("path", job.Base), zap.Error(err))
		return nil
	}
	return img
}

func writeOBJ(path string, m *mesh.Snapshot) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := mesh.WriteOBJ(f, m); err != nil {
		f.Close()
		return fmt.Errorf("batch: write %s: %w", path, err)
	}
	return f.Close()
}
