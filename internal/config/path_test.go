package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExpandPath(t *testing.T) {
	home, err := os.UserHomeDir()
	require.NoError(t, err)
	t.Setenv("TENDERFLOW_TEST_DIR", "/tmp/tf")

	tests := []struct {
		name string
		in   string
		want string
	}{
		{name: "empty", in: "", want: ""},
		{name: "bare tilde", in: "~", want: home},
		{name: "tilde prefix", in: "~/data/tf.db", want: filepath.Join(home, "data/tf.db")},
		{name: "env var", in: "$TENDERFLOW_TEST_DIR/tf.db", want: "/tmp/tf/tf.db"},
		{name: "plain path untouched", in: "/var/lib/tf.db", want: "/var/lib/tf.db"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ExpandPath(tt.in))
		})
	}
}
