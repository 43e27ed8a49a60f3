package portcheck

import (
	"context"
	"net"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInUseEmptyPortListIsNoop(t *testing.T) {
	c := New(nil)
	busy, err := c.InUse(context.Background(), nil)
	require.NoError(t, err)
	assert.Nil(t, busy)
}

func TestInUseDetectsBoundPort(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer ln.Close()
	port := ln.Addr().(*net.TCPAddr).Port

	c := New(nil)
	busy, err := c.InUse(context.Background(), []int{port})
	if err != nil {
		t.Skipf("port probe unavailable in this environment: %v", err)
	}
	assert.Contains(t, busy, port)
}

func TestInUseFreePortNotReported(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	freePort := ln.Addr().(*net.TCPAddr).Port
	require.NoError(t, ln.Close())

	c := New(nil)
	busy, err := c.InUse(context.Background(), []int{freePort})
	if err != nil {
		t.Skipf("port probe unavailable in this environment: %v", err)
	}
	assert.NotContains(t, busy, freePort)
}
