package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"math"
	"math/rand/v2"
	"os"
	"runtime"
	"sort"
	"sync"
	"text/tabwriter"
	"time"

	"github.com/Carmen-Shannon/automation/tools/worker"
	"github.com/Carmen-Shannon/oxy-pointcloud/engine/drawbatch"
	"github.com/Carmen-Shannon/oxy-pointcloud/engine/loader"
	"github.com/Carmen-Shannon/oxy-pointcloud/engine/pointcloud"
	"github.com/Carmen-Shannon/oxy-pointcloud/engine/pointrenderer"
)

var stdout io.Writer = os.Stdout

// inspection is the summary of one file produced by inspect.
type inspection struct {
	path   string
	header loader.Header
	bounds pointcloud.Bounds
	err    error
}

func runInspect(args []string) error {
	fs := flag.NewFlagSet("inspect", flag.ContinueOnError)
	workers := fs.Int("workers", runtime.NumCPU(), "files decoded in parallel")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() == 0 {
		return errors.New("no files given")
	}

	results := inspectFiles(fs.Args(), *workers)

	tw := tabwriter.NewWriter(stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "FILE\tPOINTS\tBODY\tMIN\tMAX\tSTATUS")
	failed := 0
	for _, res := range results {
		if res.err != nil {
			failed++
			fmt.Fprintf(tw, "%s\t-\t-\t-\t-\t%s: %v\n", res.path, pointrenderer.KindOf(res.err), res.err)
			continue
		}
		fmt.Fprintf(tw, "%s\t%d\t%d\t%s\t%s\tok\n", res.path, res.header.VertexCount, res.header.BodySize(),
			formatVec(res.bounds.Min), formatVec(res.bounds.Max))
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d files failed", failed, len(results))
	}
	return nil
}

// inspectFiles decodes every path on a worker pool and returns the results in path order.
func inspectFiles(paths []string, workers int) []inspection {
	if workers < 1 {
		workers = 1
	}
	pool := worker.NewDynamicWorkerPool(workers, len(paths), 100*time.Millisecond)

	results := make([]inspection, len(paths))
	var wg sync.WaitGroup
	for i, path := range paths {
		wg.Add(1)
		idx, p := i, path
		pool.SubmitTask(worker.Task{
			ID: idx,
			Do: func() (any, error) {
				defer wg.Done()
				results[idx] = inspectFile(p)
				return nil, results[idx].err
			},
		})
	}
	wg.Wait()

	sort.SliceStable(results, func(a, b int) bool { return results[a].path < results[b].path })
	return results
}

func inspectFile(path string) inspection {
	l := loader.NewLoader(loader.BackendTypePLY, loader.WithCache(false))
	res := inspection{path: path}
	if res.header, res.err = l.ReadHeader(path); res.err != nil {
		return res
	}
	cloud, err := l.Load(path)
	if err != nil {
		res.err = err
		return res
	}
	res.bounds = cloud.Bounds()
	return res
}

func runRewrite(args []string) error {
	fs := flag.NewFlagSet("rewrite", flag.ContinueOnError)
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 2 {
		return errors.New("want an input and an output path")
	}
	in, out := fs.Arg(0), fs.Arg(1)

	l := loader.NewLoader(loader.BackendTypePLY, loader.WithCache(false))
	cloud, err := l.Load(in)
	if err != nil {
		return err
	}
	if err := l.Save(cloud, out); err != nil {
		return err
	}
	fmt.Fprintf(stdout, "wrote %d points to %s\n", cloud.Count(), out)
	return nil
}

func runPlan(args []string) error {
	fs := flag.NewFlagSet("plan", flag.ContinueOnError)
	points := fs.Uint64("points", 0, "total points in the cloud")
	tile := fs.Uint("tile", drawbatch.DefaultTileCapacity, "points per instance (0 uses the default)")
	density := fs.Int("density", drawbatch.MaxDensity, "density percentage [1, 100]")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *tile > math.MaxUint32 {
		return fmt.Errorf("tile capacity %d out of range", *tile)
	}

	batch := drawbatch.Plan(*points, uint32(*tile), *density)
	fmt.Fprintln(stdout, batch.String())
	ia := batch.Args()
	fmt.Fprintf(stdout, "indirect args: index_count=%d instance_count=%d first_index=%d base_vertex=%d first_instance=%d\n",
		ia.IndexCount, ia.InstanceCount, ia.FirstIndex, ia.BaseVertex, ia.FirstInstance)
	return nil
}

func runGen(args []string) error {
	fs := flag.NewFlagSet("gen", flag.ContinueOnError)
	n := fs.Int("n", 100000, "number of points")
	shape := fs.String("shape", "sphere", "cube or sphere")
	seed := fs.Uint64("seed", 1, "random seed")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		return errors.New("want an output path")
	}
	if *n < 0 {
		return fmt.Errorf("point count %d is negative", *n)
	}

	points, err := generate(*shape, *n, *seed)
	if err != nil {
		return err
	}
	out := fs.Arg(0)
	l := loader.NewLoader(loader.BackendTypePLY, loader.WithCache(false))
	if err := l.Save(pointcloud.New(out, points), out); err != nil {
		return err
	}
	fmt.Fprintf(stdout, "wrote %d %s points to %s\n", len(points), *shape, out)
	return nil
}

// generate builds n points filling a unit cube or on a unit sphere, colored by position.
func generate(shape string, n int, seed uint64) ([]pointcloud.Point, error) {
	rng := rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
	points := make([]pointcloud.Point, n)
	for i := range points {
		var p [3]float32
		switch shape {
		case "cube":
			p = [3]float32{rng.Float32()*2 - 1, rng.Float32()*2 - 1, rng.Float32()*2 - 1}
		case "sphere":
			z := rng.Float64()*2 - 1
			theta := rng.Float64() * 2 * math.Pi
			r := math.Sqrt(1 - z*z)
			p = [3]float32{float32(r * math.Cos(theta)), float32(z), float32(r * math.Sin(theta))}
		default:
			return nil, fmt.Errorf("unknown shape %q", shape)
		}
		points[i] = pointcloud.Point{
			Position: p,
			Color: pointcloud.Color{
				R: channel(p[0]),
				G: channel(p[1]),
				B: channel(p[2]),
			},
		}
	}
	return points, nil
}

func channel(v float32) uint8 {
	return uint8(math.Round(float64((v + 1) / 2 * 255)))
}

func formatVec(v [3]float32) string {
	return fmt.Sprintf("(%.3g, %.3g, %.3g)", v[0], v[1], v[2])
}
