package sysinfo

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestStat(t *testing.T) {
	info, err := Stat()
	require.NoError(t, err)
	require.NotEmpty(t, info.Name)
}
