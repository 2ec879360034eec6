package docs

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/swaggo/swag"
)

func TestReadDoc_WhenRegistered_ThenRendersValidSwagger(t *testing.T) {
	// Act
	raw, err := swag.ReadDoc()

	// Assert
	require.NoError(t, err)
	var doc struct {
		BasePath string                    `json:"basePath"`
		Paths    map[string]map[string]any `json:"paths"`
	}
	require.NoError(t, json.Unmarshal([]byte(raw), &doc))
	assert.Equal(t, "/api/v1", doc.BasePath)
	assert.Contains(t, doc.Paths, "/events")
	assert.Contains(t, doc.Paths, "/events/{id}")
}
