package campaign

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistryResolve(t *testing.T) {
	r, err := NewRegistry(map[string]string{
		"spring": "spring_db",
		"autumn": "autumn_db",
	})
	require.NoError(t, err)

	store, err := r.Resolve("spring")
	require.NoError(t, err)
	assert.Equal(t, "spring_db", store)

	_, err = r.Resolve("winter")
	assert.ErrorIs(t, err, ErrUnknownCampaign)

	assert.Equal(t, []string{"autumn", "spring"}, r.IDs())
}

func TestRegistryIsIsolatedFromInput(t *testing.T) {
	stores := map[string]string{"spring": "spring_db"}
	r, err := NewRegistry(stores)
	require.NoError(t, err)

	stores["winter"] = "winter_db"

	_, err = r.Resolve("winter")
	assert.ErrorIs(t, err, ErrUnknownCampaign)
}

func TestNewRegistryRejectsBadEntries(t *testing.T) {
	_, err := NewRegistry(nil)
	assert.Error(t, err)

	_, err = NewRegistry(map[string]string{"": "db"})
	assert.Error(t, err)

	_, err = NewRegistry(map[string]string{"spring": ""})
	assert.Error(t, err)
}
