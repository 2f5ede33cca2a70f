package cruft

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"

	"git.sr.ht/~motiejus/cruftspy/imagetar"
	"golang.org/x/sync/errgroup"
)

// Line is an accounted detection.
type Line struct {
	Layer    string
	Category string
	BasePath string
	Size     int64
}

func (l Line) String() string {
	return fmt.Sprintf("layer %s: %s in %s (%s)", l.Layer, l.Category, l.BasePath, FormatSize(l.Size))
}

// Reporter prints cruft found in image layers.
type Reporter struct {
	Stdout io.Writer
	Logger *slog.Logger
	// Diagnostic prints every layer id and member name before its
	// report lines.
	Diagnostic bool
	// Jobs is the number of layers processed concurrently. Output is the
	// same for any value; values below 2 process layers one by one.
	Jobs int

	classifier *Classifier
}

// NewReporter returns a Reporter writing to w with a fresh Ledger.
func NewReporter(w io.Writer) *Reporter {
	return &Reporter{
		Stdout:     w,
		Logger:     slog.New(slog.NewTextHandler(io.Discard, nil)),
		Jobs:       1,
		classifier: NewClassifier(NewLedger()),
	}
}

// init fills in defaults of a zero Reporter.
func (r *Reporter) init() {
	if r.classifier == nil {
		r.classifier = NewClassifier(NewLedger())
	}
	if r.Logger == nil {
		r.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
}

// Lines classifies layer and accounts every detection.
func (r *Reporter) Lines(layer imagetar.Layer) []Line {
	r.init()
	var lines []Line
	for d := range r.classifier.Classify(layer.ID, layer.Names()) {
		lines = append(lines, Line{
			Layer:    layer.ID,
			Category: d.Category,
			BasePath: d.BasePath,
			Size:     SumPrefix(layer.Members, d.BasePath),
		})
	}
	return lines
}

// Layer prints diagnostics and report lines of a single layer and returns
// its cruft size. Callers streaming layers one by one call Total at the end.
func (r *Reporter) Layer(layer imagetar.Layer) (int64, error) {
	r.init()
	var buf bytes.Buffer
	size := r.layer(&buf, layer)
	_, err := buf.WriteTo(r.Stdout)
	return size, err
}

// Total prints the total line.
func (r *Reporter) Total(total int64) error {
	r.init()
	r.Logger.Debug("report done", "total", total, "reported", r.classifier.Ledger.Len())
	_, err := fmt.Fprintf(r.Stdout, "Total: %s\n", FormatSize(total))
	return err
}

// Report prints report lines for all layers followed by the total, and
// returns the total size of cruft.
func (r *Reporter) Report(ctx context.Context, layers []imagetar.Layer) (int64, error) {
	r.init()

	var total int64
	if r.Jobs < 2 {
		for _, layer := range layers {
			if err := ctx.Err(); err != nil {
				return total, err
			}
			size, err := r.Layer(layer)
			total += size
			if err != nil {
				return total, err
			}
		}
	} else {
		var err error
		if total, err = r.concurrent(ctx, layers); err != nil {
			return 0, err
		}
	}

	return total, r.Total(total)
}

// concurrent processes layers on up to Jobs goroutines and writes their
// output in layer order. Layers sharing an id are processed by the same
// goroutine, in order, so that the Ledger drops the same lines as it would
// sequentially.
func (r *Reporter) concurrent(ctx context.Context, layers []imagetar.Layer) (int64, error) {
	outs := make([]bytes.Buffer, len(layers))
	totals := make([]int64, len(layers))

	var groups [][]int
	byID := map[string]int{}
	for i, layer := range layers {
		n, ok := byID[layer.ID]
		if !ok {
			n = len(groups)
			byID[layer.ID] = n
			groups = append(groups, nil)
		}
		groups[n] = append(groups[n], i)
	}

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(r.Jobs)
	for _, group := range groups {
		g.Go(func() error {
			for _, i := range group {
				if err := ctx.Err(); err != nil {
					return err
				}
				totals[i] = r.layer(&outs[i], layers[i])
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return 0, err
	}

	var total int64
	for i := range layers {
		if _, err := outs[i].WriteTo(r.Stdout); err != nil {
			return total, err
		}
		total += totals[i]
	}
	return total, nil
}

// layer writes diagnostics and report lines of a single layer to w and
// returns its cruft size.
func (r *Reporter) layer(w *bytes.Buffer, layer imagetar.Layer) int64 {
	if r.Diagnostic {
		fmt.Fprintf(w, "layer: %s\n", layer.ID)
		for _, m := range layer.Members {
			fmt.Fprintln(w, m.Name)
		}
	}

	var total int64
	lines := r.Lines(layer)
	for _, l := range lines {
		fmt.Fprintln(w, l)
		total += l.Size
	}
	r.Logger.Debug("classified layer",
		"layer", layer.ID,
		"members", len(layer.Members),
		"detections", len(lines),
		"size", total,
	)
	return total
}
