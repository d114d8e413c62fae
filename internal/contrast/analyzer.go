package contrast

import (
	"context"
	"fmt"
	"runtime"
	"sync"
	"time"

	"github.com/hashicorp/go-hclog"
	"golang.org/x/sync/errgroup"

	"github.com/jmylchreest/contrastlens/internal/colour"
	"github.com/jmylchreest/contrastlens/internal/image"
	"github.com/jmylchreest/contrastlens/internal/metrics"
)

// Analyzer runs the grid analysis with a bounded pool of row workers.
// Its output is identical to Analyze for the same bitmap and block size.
type Analyzer struct {
	// BlockSize is the grid block edge length. Zero means DefaultBlockSize.
	BlockSize int

	// Workers bounds concurrent rows. Zero means runtime.NumCPU().
	Workers int

	// Logger receives debug output. Nil disables logging.
	Logger hclog.Logger

	// Metrics records scan outcomes. Nil disables recording.
	Metrics *metrics.Metrics

	// Progress, when set, is called after each grid row with the number of
	// rows finished so far. Calls are serialised.
	Progress func(done, total int)
}

// NewAnalyzer creates an Analyzer with default settings.
func NewAnalyzer() *Analyzer {
	return &Analyzer{
		BlockSize: DefaultBlockSize,
		Workers:   runtime.NumCPU(),
	}
}

func (a *Analyzer) logger() hclog.Logger {
	if a.Logger == nil {
		return hclog.NewNullLogger()
	}
	return a.Logger
}

// Analyze scans bm and returns a report of every non-compliant block.
// Rows are dispatched to workers; cancellation is checked between rows.
func (a *Analyzer) Analyze(ctx context.Context, bm *image.Bitmap) (*Report, error) {
	start := time.Now()
	a.logger().Debug("analysis started", "workers", a.Workers, "block_size", a.BlockSize)
	report, blocks, err := a.analyze(ctx, bm)
	if err != nil {
		a.Metrics.ObserveScan(metrics.StatusFailure, time.Since(start).Seconds(), 0, 0)
		return nil, err
	}

	a.Metrics.ObserveScan(metrics.StatusSuccess, time.Since(start).Seconds(), blocks, len(report.Results))
	a.logger().Debug("analysis complete",
		"width", bm.Width,
		"height", bm.Height,
		"block_size", report.BlockSize,
		"blocks", blocks,
		"violations", len(report.Results),
		"duration", time.Since(start))
	return report, nil
}

func (a *Analyzer) analyze(ctx context.Context, bm *image.Bitmap) (*Report, int, error) {
	blockSize := a.BlockSize
	if blockSize == 0 {
		blockSize = DefaultBlockSize
	}
	if err := ValidateBlockSize(blockSize); err != nil {
		return nil, 0, err
	}
	if err := bm.Validate(); err != nil {
		return nil, 0, err
	}

	workers := a.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}

	total := blockCount(bm.Height, blockSize)
	rows := make([][]Result, total)
	evaluated := make([]int, total)

	var (
		mu   sync.Mutex
		done int
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)

	for row := 0; row < total; row++ {
		if err := gctx.Err(); err != nil {
			break
		}
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			clusterer := colour.NewKMeansClusterer()
			rows[row], evaluated[row] = analyzeRow(bm, row*blockSize, blockSize, DefaultClusters, clusterer)

			if a.Progress != nil {
				mu.Lock()
				done++
				a.Progress(done, total)
				mu.Unlock()
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, 0, fmt.Errorf("analysis cancelled: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return nil, 0, fmt.Errorf("analysis cancelled: %w", err)
	}

	results := make([]Result, 0)
	blocks := 0
	for i, r := range rows {
		results = append(results, r...)
		blocks += evaluated[i]
	}

	return NewReport(bm.Width, bm.Height, blockSize, results), blocks, nil
}
