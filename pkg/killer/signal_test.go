package killer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sys/unix"
)

func TestParseSignal(t *testing.T) {
	tests := []struct {
		value string
		want  unix.Signal
	}{
		{"", 0},
		{"0", 0},
		{"15", unix.SIGTERM},
		{"9", unix.SIGKILL},
		{"TERM", unix.SIGTERM},
		{"kill", unix.SIGKILL},
		{"SIGHUP", unix.SIGHUP},
		{" int ", unix.SIGINT},
	}
	for _, tt := range tests {
		t.Run(tt.value, func(t *testing.T) {
			sig, err := ParseSignal(tt.value)
			require.NoError(t, err)
			assert.Equal(t, tt.want, sig)
		})
	}

	for _, value := range []string{"-1", "100", "BOGUS"} {
		_, err := ParseSignal(value)
		assert.Error(t, err, value)
	}
}
