package cruft

import (
	"testing"

	"git.sr.ht/~motiejus/cruftspy/imagetar"
	"github.com/stretchr/testify/assert"
)

func TestFormatSize(t *testing.T) {
	tests := []struct {
		size int64
		want string
	}{
		{0, "0 B"},
		{1, "1 B"},
		{512, "512 B"},
		{513, "0.5 KB"},
		{1024, "1.0 KB"},
		{1536, "1.5 KB"},
		{512 << 10, "512.0 KB"},
		{512<<10 + 1, "0.5 MB"},
		{2 << 20, "2.0 MB"},
		{1 << 30, "1.0 GB"},
		{3 << 40, "3.0 TB"},
		{1 << 50, "1024.0 TB"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			assert.Equal(t, tt.want, FormatSize(tt.size))
		})
	}
}

func TestSumPrefix(t *testing.T) {
	members := []imagetar.Member{
		{Name: "var/log", Size: 0},
		{Name: "var/log/app.log", Size: 100},
		{Name: "var/log/sub/err.log", Size: 50},
		{Name: "usr/bin/sh", Size: 10},
		{Name: "tmp/x", Size: 7},
		{Name: "tmpfoo", Size: 3},
		{Name: ".git/objects/ab", Size: 1000},
	}

	tests := []struct {
		base string
		want int64
	}{
		{"var/log/", 150},
		{"var/log", 150},
		{"usr/", 10},
		{"tmp/", 7},
		{"tmp", 10},
		{"(root).git/", 0},
		{"opt/", 0},
		{"", 1170},
	}

	for _, tt := range tests {
		t.Run(tt.base, func(t *testing.T) {
			assert.Equal(t, tt.want, SumPrefix(members, tt.base))
		})
	}

	t.Run("unrelated member does not change the sum", func(t *testing.T) {
		more := append(append([]imagetar.Member{}, members...), imagetar.Member{Name: "opt/var/log/x", Size: 99})
		assert.Equal(t, SumPrefix(members, "var/log/"), SumPrefix(more, "var/log/"))
	})
}
