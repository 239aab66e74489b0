package specparse_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MereWhiplash/specrag/internal/apperr"
	"github.com/MereWhiplash/specrag/internal/specparse"
	"github.com/MereWhiplash/specrag/internal/types"
)

func TestParseFile_YAML(t *testing.T) {
	spec, err := specparse.ParseFile(context.Background(), "testdata/shop.yaml")
	require.NoError(t, err)

	assert.Equal(t, "3.0.3", spec.Version)
	assert.Equal(t, "Shop API", spec.Info.Title)
	require.Len(t, spec.Servers, 1)
	assert.Equal(t, "https://api.shop.test", spec.Servers[0].URL)
	assert.Equal(t, []string{"bearerAuth"}, spec.Components.SecuritySchemes)

	require.Len(t, spec.Paths, 2)
	assert.Equal(t, "/payments/{id}/approve", spec.Paths[0].Path, "source path order is preserved")
	assert.Equal(t, "/items/{id}", spec.Paths[1].Path)
	assert.Equal(t, 3, spec.OperationCount())
}

func TestParseFile_PreservesContentAndResponseOrder(t *testing.T) {
	spec, err := specparse.ParseFile(context.Background(), "testdata/shop.yaml")
	require.NoError(t, err)

	op := spec.Paths[0].Post
	require.NotNil(t, op)
	require.NotNil(t, op.RequestBody)
	assert.True(t, op.RequestBody.Required)
	assert.Equal(t, []string{"application/xml", "application/json"}, op.RequestBody.ContentTypes)

	codes := make([]string, len(op.Responses))
	for i, r := range op.Responses {
		codes[i] = r.Status
	}
	assert.Equal(t, []string{"201", "400", "200"}, codes)
}

func TestParseFile_MergesPathParameters(t *testing.T) {
	spec, err := specparse.ParseFile(context.Background(), "testdata/shop.yaml")
	require.NoError(t, err)

	params := spec.Paths[0].Post.Parameters
	require.Len(t, params, 2)
	assert.Equal(t, "id", params[0].Name)
	assert.Equal(t, "Payment id to approve", params[0].Description, "operation-level parameter wins")
	assert.Equal(t, "X-Idempotency-Key", params[1].Name)
	assert.False(t, params[1].Required)
}

func TestParseFile_SecurityInheritance(t *testing.T) {
	spec, err := specparse.ParseFile(context.Background(), "testdata/shop.yaml")
	require.NoError(t, err)

	assert.Len(t, spec.Paths[0].Post.Security, 1, "inherits document security")
	assert.Empty(t, spec.Paths[1].Get.Security, "explicit empty list disables auth")
	assert.Len(t, spec.Paths[1].Post.Security, 1)
}

func TestParseFile_JSON(t *testing.T) {
	spec, err := specparse.ParseFile(context.Background(), "testdata/items.json")
	require.NoError(t, err)
	require.Len(t, spec.Paths, 1)
	assert.NotNil(t, spec.Paths[0].Get)
	assert.Nil(t, spec.Paths[0].Post)
}

func TestParseFile_NotFound(t *testing.T) {
	_, err := specparse.ParseFile(context.Background(), "testdata/missing.yaml")
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperr.ErrSpecParsing))
}

func TestParseFile_BadExtension(t *testing.T) {
	path := filepath.Join(t.TempDir(), "spec.txt")
	require.NoError(t, os.WriteFile(path, []byte("openapi: 3.0.0"), 0o644))

	_, err := specparse.ParseFile(context.Background(), path)
	assert.True(t, errors.Is(err, apperr.ErrSpecParsing))
}

func TestParse_Errors(t *testing.T) {
	tests := []struct {
		name   string
		format specparse.Format
		doc    string
	}{
		{"malformed yaml", specparse.FormatYAML, "openapi: [3.0.0\n"},
		{"malformed json", specparse.FormatJSON, `{"openapi": "3.0.0",`},
		{"missing version", specparse.FormatYAML, "info:\n  title: x\n  version: '1'\npaths: {}\n"},
		{"swagger 2", specparse.FormatYAML, "openapi: '2.0'\ninfo:\n  title: x\n  version: '1'\npaths: {}\n"},
		{"response without description", specparse.FormatYAML, `openapi: 3.0.0
info:
  title: x
  version: "1"
paths:
  /a:
    get:
      responses:
        "200": {}
`},
		{"parameter without name", specparse.FormatYAML, `openapi: 3.0.0
info:
  title: x
  version: "1"
paths:
  /a:
    get:
      parameters:
        - in: query
      responses:
        "200":
          description: OK
`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := specparse.Parse(context.Background(), []byte(tt.doc), tt.format)
			require.Error(t, err)
			assert.True(t, errors.Is(err, apperr.ErrSpecParsing), "got %v", err)
		})
	}
}

func TestValidate(t *testing.T) {
	empty := &types.OpenAPISpec{}
	assert.True(t, errors.Is(specparse.Validate(empty), apperr.ErrSpecParsing))

	noOps := &types.OpenAPISpec{Paths: []types.PathItem{{Path: "/a"}}}
	assert.True(t, errors.Is(specparse.Validate(noOps), apperr.ErrSpecParsing))

	ok := &types.OpenAPISpec{Paths: []types.PathItem{{Path: "/a", Get: &types.Operation{}}}}
	assert.NoError(t, specparse.Validate(ok))
}

func TestParse_EmptyPathsPassesParseButFailsValidate(t *testing.T) {
	doc := "openapi: 3.0.0\ninfo:\n  title: x\n  version: '1'\npaths: {}\n"
	spec, err := specparse.Parse(context.Background(), []byte(doc), specparse.FormatYAML)
	require.NoError(t, err)
	assert.Error(t, specparse.Validate(spec))
}
