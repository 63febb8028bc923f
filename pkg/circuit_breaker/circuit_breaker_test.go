package circuit_breaker_test

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/Astemirdum/book-service/pkg/circuit_breaker"
)

func Test_circuitBreaker_Call(t *testing.T) {
	t.Parallel()
	errService := errors.New("service error")
	ok := func() error { return nil }
	failing := func() error { return errService }

	cb := circuit_breaker.New(circuit_breaker.Config{
		RecordLength:     4,
		Timeout:          50 * time.Millisecond,
		Percentile:       0.5,
		RecoveryRequests: 2,
	})

	for i := 0; i < 10; i++ {
		require.NoError(t, cb.Call(ok))
	}
	require.Equal(t, circuit_breaker.Closed, cb.State())

	require.ErrorIs(t, cb.Call(failing), errService)
	require.Equal(t, circuit_breaker.Closed, cb.State())
	require.ErrorIs(t, cb.Call(failing), errService)
	require.Equal(t, circuit_breaker.Open, cb.State())

	// open breaker short-circuits without calling the service
	called := false
	err := cb.Call(func() error { called = true; return nil })
	require.ErrorIs(t, err, circuit_breaker.ErrOpenCB)
	require.False(t, called)

	time.Sleep(80 * time.Millisecond)
	require.ErrorIs(t, cb.Call(failing), errService)
	require.Equal(t, circuit_breaker.Open, cb.State(), "failed probe reopens")

	time.Sleep(80 * time.Millisecond)
	require.NoError(t, cb.Call(ok))
	require.Equal(t, circuit_breaker.HalfOpen, cb.State())
	require.NoError(t, cb.Call(ok))
	require.Equal(t, circuit_breaker.Closed, cb.State())
}
