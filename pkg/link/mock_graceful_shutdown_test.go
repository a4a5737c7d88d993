package link

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/itohio/gotx/pkg/ppm"
)

// TestMock_GracefulShutdown tests that the Mock device closes its channels
// when Close() is called.
func TestMock_GracefulShutdown(t *testing.T) {
	mock := NewMock(testMockConfig(1))
	require.NoError(t, mock.Connect())
	assert.Error(t, mock.Connect(), "already connected")

	var ch [ppm.NumChannels]int16
	require.NoError(t, mock.SendOutputs(&ch))
	require.NoError(t, mock.SendSettings(*mock.enc.Settings()))

	samples := mock.Samples()

	received := 0
	done := make(chan struct{})
	go func() {
		defer close(done)
		for range samples {
			received++
			if received == 3 {
				go mock.Close()
			}
		}
	}()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("Samples channel did not close within timeout")
	}

	assert.GreaterOrEqual(t, received, 3, "Should receive samples before channel closes")

	_, ok := <-mock.Captures()
	for ok {
		_, ok = <-mock.Captures()
	}
	assert.False(t, mock.IsConnected())
	assert.NoError(t, mock.Close())
}
