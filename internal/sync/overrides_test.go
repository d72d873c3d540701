package sync

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseOverrides(t *testing.T) {
	overrides, err := ParseOverrides("ACC => Accessories\n\n  FURN=>Furniture  \n")
	require.NoError(t, err)
	assert.Equal(t, map[string]string{
		"ACC":  "Accessories",
		"FURN": "Furniture",
	}, overrides)
}

func TestParseOverrides_Empty(t *testing.T) {
	overrides, err := ParseOverrides("")
	require.NoError(t, err)
	assert.Empty(t, overrides)
}

func TestParseOverrides_MissingSeparator(t *testing.T) {
	_, err := ParseOverrides("ACC => Accessories\nFURN Furniture")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "line 2")
}

func TestParseOverrides_EmptySides(t *testing.T) {
	_, err := ParseOverrides("=> Accessories")
	require.Error(t, err)

	_, err = ParseOverrides("ACC =>")
	require.Error(t, err)
}
