package sequencer

import (
	"bytes"
	"context"
	"testing"

	"github.com/harun/sessionboot/pkg/runner/runnertest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestXMessage(t *testing.T) {
	t.Run("prints and shows the message", func(t *testing.T) {
		fake := runnertest.New()
		var out bytes.Buffer

		require.NoError(t, NewXMessage(fake, "xmessage", &out).Notify(context.Background(), "boom\n"))

		assert.Equal(t, "boom\n", out.String())
		calls := fake.CallsTo("xmessage")
		require.Len(t, calls, 1)
		assert.Equal(t, []string{"-geometry", "500x100", "boom\n"}, calls[0].Spec.Args)
	})

	t.Run("missing tool still prints", func(t *testing.T) {
		fake := runnertest.New().ScriptSpawnFailure("xmessage")
		var out bytes.Buffer

		err := NewXMessage(fake, "xmessage", &out).Notify(context.Background(), "boom\n")

		assert.Error(t, err)
		assert.Equal(t, "boom\n", out.String())
	})
}
