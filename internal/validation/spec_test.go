package validation_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/MereWhiplash/specrag/internal/types"
	"github.com/MereWhiplash/specrag/internal/validation"
)

func payChunk() types.EndpointChunk {
	return types.EndpointChunk{
		ID:     "POST_/pay",
		Method: "POST",
		Path:   "/pay",
		Metadata: types.ChunkMetadata{
			Endpoint:     "/pay",
			Method:       "POST",
			RequiresAuth: true,
			ContentType:  "application/json",
		},
	}
}

func TestValidateAgainstSpec_FullMatch(t *testing.T) {
	c := validation.Decompose(`curl -X POST https://api.test/pay -H "Authorization: Bearer x" -H "Content-Type: application/json" -d "{}"`)
	res := validation.ValidateAgainstSpec(c, payChunk())

	assert.True(t, res.Valid)
	assert.Empty(t, res.Warnings)
	assert.GreaterOrEqual(t, res.Completeness, 0.85)
	assert.InDelta(t, 1.0, res.Completeness, 1e-9)
}

func TestValidateAgainstSpec_EveryCheckFails(t *testing.T) {
	chunk := payChunk()
	chunk.Parameters = []types.Parameter{{Name: "order_id", In: types.InQuery, Required: true}}

	c := validation.Decompose(`curl -X GET https://api.test/charge -d "{}"`)
	res := validation.ValidateAgainstSpec(c, chunk)

	assert.False(t, res.Valid)
	assert.Equal(t, []string{
		"HTTP method mismatch: command=GET, spec=POST",
		"endpoint path mismatch: URL does not contain '/pay'",
		"endpoint requires authentication but no Authorization header is present",
		"request body present but no Content-Type header",
		"missing required parameters: order_id",
	}, res.Warnings)
	assert.Equal(t, 0.0, res.Completeness)
}

func TestValidateAgainstSpec_PathParamsStripped(t *testing.T) {
	chunk := types.EndpointChunk{
		Metadata: types.ChunkMetadata{Endpoint: "/items/{id}/tags", Method: "GET"},
		Parameters: []types.Parameter{
			{Name: "id", In: types.InPath, Required: true},
		},
	}

	res := validation.ValidateAgainstSpec(validation.Decompose("curl https://x.test/items//tags"), chunk)
	assert.Contains(t, res.Warnings, "missing required parameters: id")
	assert.NotContains(t, res.Warnings, "endpoint path mismatch: URL does not contain '/items/{id}/tags'")

	res = validation.ValidateAgainstSpec(validation.Decompose("curl https://x.test/items/{id}/tags"), chunk)
	assert.True(t, res.Valid)
}

func TestValidateAgainstSpec_PathTemplate(t *testing.T) {
	chunk := types.EndpointChunk{
		Metadata:   types.ChunkMetadata{Endpoint: "/payments/{id}/approve", Method: "POST"},
		Parameters: []types.Parameter{{Name: "id", In: types.InPath, Required: true}},
	}

	res := validation.ValidateAgainstSpec(validation.Decompose("curl -X POST https://x.test/payments/<ID>/approve"), chunk)
	assert.True(t, res.Valid, "warnings: %v", res.Warnings)

	res = validation.ValidateAgainstSpec(validation.Decompose("curl -X POST https://x.test/payments/<ID>/refund"), chunk)
	assert.Equal(t, []string{"endpoint path mismatch: URL does not contain '/payments/{id}/approve'"}, res.Warnings)
}

func TestValidateAgainstSpec_ParamPlaceholders(t *testing.T) {
	chunk := types.EndpointChunk{
		Metadata: types.ChunkMetadata{Endpoint: "/orders", Method: "POST"},
		Parameters: []types.Parameter{
			{Name: "order_id", Required: true},
			{Name: "tenant", Required: true},
			{Name: "store", Required: true},
			{Name: "note"},
		},
	}

	c := validation.Decompose(`curl -X POST https://x.test/orders?o=<ORDER_ID> -H "X-Tenant: ${TENANT}"`)
	res := validation.ValidateAgainstSpec(c, chunk)

	assert.Equal(t, []string{"missing required parameters: store"}, res.Warnings)
	// method, path, auth and content-type pass; two of three params are present
	assert.InDelta(t, 0.85+0.15*2.0/3.0, res.Completeness, 1e-9)
}

func TestValidateAgainstSpec_CaseInsensitiveHeaders(t *testing.T) {
	c := validation.Decompose(`curl -X POST https://api.test/pay -H "authorization: Bearer x" -H "content-type: text/plain" -d "x"`)
	assert.True(t, validation.ValidateAgainstSpec(c, payChunk()).Valid)
}

func TestValidateAgainstSpec_FallsBackToChunkFields(t *testing.T) {
	chunk := types.EndpointChunk{Method: "DELETE", Path: "/orders/{id}"}
	c := validation.Decompose("curl -X delete https://x.test/orders/42")
	res := validation.ValidateAgainstSpec(c, chunk)
	assert.True(t, res.Valid)
}
