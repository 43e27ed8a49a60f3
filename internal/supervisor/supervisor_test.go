package supervisor

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nurvus/nurvus/internal/process"
)

func TestStartRunnerAndTerminate(t *testing.T) {
	s := New(nil, nil)
	def := process.Definition{ID: "x", Name: "x", Command: "sleep", Args: []string{"30"}}
	r, err := s.StartRunner(context.Background(), def, nil)
	require.NoError(t, err)
	require.NotZero(t, r.Info().OSPid)

	require.NoError(t, s.TerminateRunner(context.Background(), r, def, nil))
	notif := <-r.Done()
	assert.True(t, notif.Requested)
}

func TestIntensityCapRefusesFourthAttemptWithinWindow(t *testing.T) {
	s := New(nil, nil)
	def := process.Definition{ID: "flapper", Name: "flapper", Command: "sh", Args: []string{"-c", "exit 1"}}

	for i := 0; i < intensityMax; i++ {
		_, err := s.StartRunner(context.Background(), def, nil)
		require.NoError(t, err)
		time.Sleep(10 * time.Millisecond)
	}

	_, err := s.StartRunner(context.Background(), def, nil)
	assert.ErrorIs(t, err, process.ErrSupervisorRestartExceeded)
}

func TestResetClearsIntensityRing(t *testing.T) {
	s := New(nil, nil)
	def := process.Definition{ID: "flapper", Name: "flapper", Command: "sh", Args: []string{"-c", "exit 1"}}
	for i := 0; i < intensityMax; i++ {
		_, err := s.StartRunner(context.Background(), def, nil)
		require.NoError(t, err)
	}
	s.Reset(def.ID)
	_, err := s.StartRunner(context.Background(), def, nil)
	assert.NoError(t, err)
}
