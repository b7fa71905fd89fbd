package fault

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestClass(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"nil", nil, "none"},
		{"format", FormatError("bad"), "format"},
		{"wrapped conflict", fmt.Errorf("exec: %w", ConflictError("twice")), "conflict"},
		{"conservation", ConservationError("short"), "conservation"},
		{"lookup", LookupError("missing"), "lookup"},
		{"invalid", InvalidError("cfg"), "invalid"},
		{"plain", errors.New("plain"), "unknown"},
	}

	for _, test := range tests {
		require.Equal(t, test.want, Class(test.err), test.name)
	}
}

func TestPredicates(t *testing.T) {
	err := fmt.Errorf("input 3: %w", ConflictError("input asserted twice"))
	require.True(t, IsConflict(err))
	require.False(t, IsFormat(err))
	require.False(t, IsConservation(err))
	require.False(t, IsLookup(err))
	require.Equal(t, "input 3: input asserted twice", err.Error())
}
