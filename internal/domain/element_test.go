package domain_test

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sketchrelay/server/internal/domain"
)

func TestElement_OpaqueAttributesSurviveRelay(t *testing.T) {
	raw := `{"id":"rect-1","version":3,"updatedAt":1700000000123,"type":"rectangle","x":10,"strokeColor":"#1e1e1e"}`

	var el domain.Element
	require.NoError(t, json.Unmarshal([]byte(raw), &el))

	assert.Equal(t, "rect-1", el.ID)
	require.NotNil(t, el.Version)
	assert.Equal(t, int64(3), *el.Version)
	require.NotNil(t, el.UpdatedAt)

	out, err := json.Marshal(el)
	require.NoError(t, err)
	assert.JSONEq(t, raw, string(out))
}

func TestElement_OrderingFieldsAreOptional(t *testing.T) {
	var el domain.Element
	require.NoError(t, json.Unmarshal([]byte(`{"id":"a","type":"freedraw"}`), &el))

	assert.Equal(t, "a", el.ID)
	assert.Nil(t, el.Version)
	assert.Nil(t, el.UpdatedAt)
}

func TestElement_MissingIDDecodesEmpty(t *testing.T) {
	var el domain.Element
	require.NoError(t, json.Unmarshal([]byte(`{"type":"freedraw"}`), &el))

	assert.Empty(t, el.ID)
}
