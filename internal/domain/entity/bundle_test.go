package entity

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewBundle(t *testing.T) {
	b := NewBundle(1, 2, "Q3 research")

	assert.NotEqual(t, uuid.Nil, b.UUID)
	assert.Equal(t, int64(1), b.InfospaceID)
	assert.Equal(t, int64(2), b.UserID)
	assert.Equal(t, "Q3 research", b.Name)
	assert.Equal(t, 0, b.AssetCount)
}

func TestBundle_Validate(t *testing.T) {
	require.Error(t, (&Bundle{}).Validate())

	err := (&Bundle{}).Validate()
	var ve *ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, "name", ve.Field)

	require.NoError(t, (&Bundle{Name: "ok"}).Validate())
}
