package cruft

import (
	"bytes"
	"context"
	"fmt"
	"testing"

	"git.sr.ht/~motiejus/cruftspy/imagetar"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type member = imagetar.Member

func TestReport(t *testing.T) {
	tests := []struct {
		name       string
		layers     []imagetar.Layer
		diagnostic bool
		want       string
		wantTotal  int64
	}{
		{
			name: "no layers",
			want: "Total: 0 B\n",
		},
		{
			name: "log files",
			layers: []imagetar.Layer{{
				ID: "abc123/layer.tar",
				Members: []member{
					{Name: "var/log/app.log", Size: 100},
					{Name: "var/log/sub/err.log", Size: 50},
					{Name: "usr/bin/sh", Size: 10},
				},
			}},
			want: "layer abc123/layer.tar: Log files in var/log/ (150 B)\n" +
				"Total: 150 B\n",
			wantTotal: 150,
		},
		{
			name: "tmp in two layers",
			layers: []imagetar.Layer{
				{ID: "a/layer.tar", Members: []member{{Name: "tmp/cache/file", Size: 1024}}},
				{ID: "b/layer.tar", Members: []member{{Name: "tmp/cache/file", Size: 1024}}},
			},
			want: "layer a/layer.tar: Tmp files in tmp/ (1.0 KB)\n" +
				"layer b/layer.tar: Tmp files in tmp/ (1.0 KB)\n" +
				"Total: 2.0 KB\n",
			wantTotal: 2048,
		},
		{
			name: "tmp wins over pip",
			layers: []imagetar.Layer{{
				ID: "a/layer.tar",
				Members: []member{
					{Name: "tmp/.cache/pip/a", Size: 600},
					{Name: "tmp/.cache/pip/b", Size: 600},
				},
			}},
			want: "layer a/layer.tar: Tmp files in tmp/ (1.2 KB)\n" +
				"Total: 1.2 KB\n",
			wantTotal: 1200,
		},
		{
			name: "root git repository accounts nothing",
			layers: []imagetar.Layer{{
				ID:      "a/layer.tar",
				Members: []member{{Name: ".git/objects/ab/cd", Size: 4096}},
			}},
			want: "layer a/layer.tar: Git repository in (root).git/ (0 B)\n" +
				"Total: 0 B\n",
		},
		{
			name: "same layer twice",
			layers: []imagetar.Layer{
				{ID: "a/layer.tar", Members: []member{{Name: "var/cache/apk/APKINDEX", Size: 700}}},
				{ID: "a/layer.tar", Members: []member{{Name: "var/cache/apk/APKINDEX", Size: 700}}},
			},
			want: "layer a/layer.tar: APK cache in var/cache/apk/ (0.7 KB)\n" +
				"Total: 0.7 KB\n",
			wantTotal: 700,
		},
		{
			name: "diagnostic",
			layers: []imagetar.Layer{
				{ID: "a/layer.tar", Members: []member{
					{Name: "var"},
					{Name: "var/log"},
					{Name: "var/log/x", Size: 1},
				}},
				{ID: "b/layer.tar"},
			},
			diagnostic: true,
			want: "layer: a/layer.tar\n" +
				"var\n" +
				"var/log\n" +
				"var/log/x\n" +
				"layer a/layer.tar: Log files in var/log/ (1 B)\n" +
				"layer: b/layer.tar\n" +
				"Total: 1 B\n",
			wantTotal: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var out bytes.Buffer
			r := NewReporter(&out)
			r.Diagnostic = tt.diagnostic

			total, err := r.Report(context.Background(), tt.layers)
			require.NoError(t, err)
			assert.Equal(t, tt.want, out.String())
			assert.Equal(t, tt.wantTotal, total)
		})
	}
}

func TestReportJobs(t *testing.T) {
	var layers []imagetar.Layer
	for i := 0; i < 16; i++ {
		layers = append(layers, imagetar.Layer{
			ID: fmt.Sprintf("%02d/layer.tar", i%12),
			Members: []member{
				{Name: "var/log/a", Size: int64(i)},
				{Name: fmt.Sprintf("srv/%d/.git/objects/x", i%3), Size: 2048},
				{Name: "root/.cache/pip/x", Size: int64(1 << i)},
				{Name: "usr/bin/sh", Size: 1},
			},
		})
	}

	var want bytes.Buffer
	wantTotal, err := NewReporter(&want).Report(context.Background(), layers)
	require.NoError(t, err)

	for _, jobs := range []int{2, 4, 32} {
		t.Run(fmt.Sprintf("jobs=%d", jobs), func(t *testing.T) {
			var got bytes.Buffer
			r := NewReporter(&got)
			r.Jobs = jobs
			r.Diagnostic = false
			total, err := r.Report(context.Background(), layers)
			require.NoError(t, err)
			assert.Equal(t, want.String(), got.String())
			assert.Equal(t, wantTotal, total)
		})
	}
}

func TestReportCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	layers := []imagetar.Layer{{ID: "a/layer.tar", Members: []member{{Name: "tmp/x", Size: 1}}}}
	for _, jobs := range []int{1, 2} {
		var out bytes.Buffer
		r := NewReporter(&out)
		r.Jobs = jobs
		_, err := r.Report(ctx, layers)
		assert.ErrorIs(t, err, context.Canceled)
		assert.Empty(t, out.String())
	}
}

func TestReporterZeroValue(t *testing.T) {
	var out bytes.Buffer
	r := &Reporter{Stdout: &out}
	_, err := r.Report(context.Background(), []imagetar.Layer{
		{ID: "a/layer.tar", Members: []member{{Name: "var/lib/dnf/repos/f", Size: 2 << 20}}},
	})
	require.NoError(t, err)
	assert.Equal(t, "layer a/layer.tar: DNF cache in var/lib/dnf/repos/ (2.0 MB)\nTotal: 2.0 MB\n", out.String())
}

func TestReporterLayerTotal(t *testing.T) {
	layers := []imagetar.Layer{
		{ID: "a/layer.tar", Members: []member{{Name: "var/log/x.log", Size: 100}}},
		{ID: "b/layer.tar", Members: []member{{Name: "usr/bin/sh", Size: 10}}},
		{ID: "a/layer.tar", Members: []member{{Name: "var/log/y.log", Size: 1}}},
	}

	var want bytes.Buffer
	wantTotal, err := NewReporter(&want).Report(context.Background(), layers)
	require.NoError(t, err)

	var out bytes.Buffer
	r := NewReporter(&out)
	var total int64
	for i, layer := range layers {
		size, err := r.Layer(layer)
		require.NoError(t, err)
		total += size
		if i == 0 {
			assert.Equal(t, "layer a/layer.tar: Log files in var/log/ (100 B)\n", out.String())
		}
	}
	require.NoError(t, r.Total(total))

	assert.Equal(t, wantTotal, total)
	assert.Equal(t, want.String(), out.String())
	assert.Equal(t, int64(100), total)
}
