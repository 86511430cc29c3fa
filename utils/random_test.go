package utils

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateCode(t *testing.T) {
	code, err := GenerateCode(4)
	require.NoError(t, err)
	assert.Regexp(t, `^[0-9A-F]{8}$`, code)

	other, err := GenerateCode(4)
	require.NoError(t, err)
	assert.NotEqual(t, code, other)
}

func TestGenerateOrderRef(t *testing.T) {
	now := time.Date(2026, 9, 1, 23, 30, 0, 0, time.FixedZone("IST", 5*3600+1800))

	ref, err := GenerateOrderRef(now)
	require.NoError(t, err)

	// The date part is always UTC.
	assert.Regexp(t, `^EP-20260901-[0-9A-F]{8}$`, ref)
}
