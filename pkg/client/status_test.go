package client

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseStatus(t *testing.T) {
	st, err := ParseStatus("D=500, M=1.00, R=1, T=-0.25, S=12.50")
	require.NoError(t, err)
	require.Equal(t, &Status{
		TimeoutMs:   500,
		CeilingVerb: "M",
		Ceiling:     1,
		Running:     true,
		Throttle:    -0.25,
		Steering:    12.5,
	}, st)

	st, err = ParseStatus("D=1000, L=100.00, R=0, T=0.00, S=0.00")
	require.NoError(t, err)
	require.Equal(t, "L", st.CeilingVerb)
	require.Equal(t, float64(100), st.Ceiling)
	require.False(t, st.Running)
}

func TestParseStatusInvalid(t *testing.T) {
	for _, line := range []string{
		"",
		"OK",
		"D=500, M=1.00, R=1, T=-0.25",
		"D=500, M=1.00, R=2, T=-0.25, S=0",
		"D=-5, M=1.00, R=1, T=-0.25, S=0",
		"D=500, X=1.00, R=1, T=-0.25, S=0",
		"D=500, M=fast, R=1, T=-0.25, S=0",
		"D500, M=1.00, R=1, T=-0.25, S=0",
	} {
		_, err := ParseStatus(line)
		require.Errorf(t, err, "case %q", line)
	}
}
