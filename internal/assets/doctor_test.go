package assets

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func doctorWithTools(tools map[string]string) (*Doctor, *int) {
	calls := 0
	d := NewDoctor(testLogger())
	d.lookPath = func(name string) (string, error) {
		calls++
		if p, ok := tools[name]; ok {
			return p, nil
		}
		return "", errors.New("executable file not found in $PATH")
	}
	return d, &calls
}

func TestDoctor_DetectsAvailableTools(t *testing.T) {
	d, _ := doctorWithTools(map[string]string{"ffprobe": "/usr/bin/ffprobe"})

	caps := d.Get()

	require.True(t, caps.FFprobe.Available)
	require.Equal(t, "/usr/bin/ffprobe", caps.FFprobe.Path)
	require.False(t, caps.FFmpeg.Available)
	require.True(t, caps.CanProbe())
	require.False(t, caps.ProbedAt.IsZero())
}

func TestDoctor_CachesWithinTTL(t *testing.T) {
	d, calls := doctorWithTools(nil)

	d.Get()
	d.Get()

	// One probe covers both tools; the second Get is served from cache.
	require.Equal(t, 2, *calls)
}

func TestDoctor_PeekNeverProbes(t *testing.T) {
	d, calls := doctorWithTools(nil)

	require.Nil(t, d.Peek())
	require.Equal(t, 0, *calls)

	d.Get()
	require.NotNil(t, d.Peek())
}

func TestDoctor_RefreshBypassesCache(t *testing.T) {
	d, calls := doctorWithTools(nil)

	d.Get()
	d.Refresh()

	require.Equal(t, 4, *calls)
}

func TestDoctor_InvalidateForcesReprobe(t *testing.T) {
	d, calls := doctorWithTools(nil)

	d.Get()
	d.Invalidate()
	require.Nil(t, d.Peek())

	d.Get()
	require.Equal(t, 4, *calls)
}
