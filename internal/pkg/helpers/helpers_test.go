package helpers

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNilIfBlank(t *testing.T) {
	assert.Nil(t, NilIfBlank(nil))
	assert.Nil(t, NilIfBlank(Ptr("   ")))
	assert.Equal(t, "notes", *NilIfBlank(Ptr("  notes ")))
}

func TestParseDate(t *testing.T) {
	d, err := ParseDate(Ptr("2024-09-01"))
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 9, 1, 0, 0, 0, 0, time.UTC), *d)

	d, err = ParseDate(Ptr(" "))
	require.NoError(t, err)
	assert.Nil(t, d)

	_, err = ParseDate(Ptr("01/09/2024"))
	assert.Error(t, err)
}

func TestParseDuration(t *testing.T) {
	assert.Equal(t, 5*time.Second, ParseDuration("5s", time.Minute))
	assert.Equal(t, time.Minute, ParseDuration("soon", time.Minute))
	assert.Equal(t, time.Minute, ParseDuration("-1s", time.Minute))
}
