package probe_test

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"testing"
	"time"

	"github.com/ostafen/trailscan/internal/probe"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	p, err := probe.New("remux", "", 0)
	require.NoError(t, err)
	remux, ok := p.(*probe.Remux)
	require.True(t, ok)
	require.Equal(t, probe.DefaultFFmpeg, remux.FFmpeg)
	require.Equal(t, probe.DefaultTimeout, remux.Timeout)

	p, err = probe.New("trace", "/opt/ffmpeg", time.Second)
	require.NoError(t, err)
	require.NotNil(t, p)

	p, err = probe.New("off", "", 0)
	require.NoError(t, err)
	require.Nil(t, p)

	_, err = probe.New("strace", "", 0)
	require.Error(t, err)
}

func TestRemuxMissingBinary(t *testing.T) {
	in := filepath.Join(t.TempDir(), "in.flac")
	require.NoError(t, os.WriteFile(in, []byte("fLaC"), 0o644))

	p := probe.NewRemux(filepath.Join(t.TempDir(), "no-such-ffmpeg"), time.Second)
	_, err := p.Probe(context.Background(), in)
	require.ErrorIs(t, err, probe.ErrProbeFailed)
}

func TestRemuxFailingCommand(t *testing.T) {
	in := filepath.Join(t.TempDir(), "in.flac")
	require.NoError(t, os.WriteFile(in, []byte("fLaC"), 0o644))

	// false(1) exits non-zero without writing anything
	bin, err := exec.LookPath("false")
	if err != nil {
		t.Skip("false not available")
	}

	_, err = probe.NewRemux(bin, time.Second).Probe(context.Background(), in)
	require.ErrorIs(t, err, probe.ErrProbeFailed)
}

func TestRemuxEmptyOutput(t *testing.T) {
	in := filepath.Join(t.TempDir(), "in.flac")
	require.NoError(t, os.WriteFile(in, []byte("fLaC"), 0o644))

	// true(1) succeeds but leaves the output file empty
	bin, err := exec.LookPath("true")
	if err != nil {
		t.Skip("true not available")
	}

	_, err = probe.NewRemux(bin, time.Second).Probe(context.Background(), in)
	require.ErrorIs(t, err, probe.ErrProbeFailed)
}
