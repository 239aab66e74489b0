// Package specparse loads OpenAPI 3.x documents into the typed spec tree.
package specparse

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/getkin/kin-openapi/openapi3"
	"gopkg.in/yaml.v3"

	"github.com/MereWhiplash/specrag/internal/apperr"
	"github.com/MereWhiplash/specrag/internal/types"
)

// Format is the serialization of a spec document.
type Format string

const (
	FormatYAML Format = "yaml"
	FormatJSON Format = "json"
)

// FormatFromPath selects the format from a file extension.
func FormatFromPath(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML, nil
	case ".json":
		return FormatJSON, nil
	default:
		return "", apperr.New(apperr.KindSpecParsing, "unsupported spec file extension %q (expected .yaml, .yml or .json)", filepath.Ext(path))
	}
}

// ParseFile reads and parses the spec at path.
func ParseFile(ctx context.Context, path string) (*types.OpenAPISpec, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindSpecParsing, err, "failed to resolve path %q", path)
	}

	data, err := os.ReadFile(abs)
	if errors.Is(err, os.ErrNotExist) {
		return nil, apperr.New(apperr.KindSpecParsing, "spec file not found: %s", path)
	}
	if err != nil {
		return nil, apperr.Wrap(apperr.KindSpecParsing, err, "failed to read spec file %s", path)
	}

	format, err := FormatFromPath(abs)
	if err != nil {
		return nil, err
	}

	return parse(ctx, data, format, &url.URL{Path: filepath.ToSlash(abs)})
}

// Parse parses an in-memory document of the given format.
func Parse(ctx context.Context, data []byte, format Format) (*types.OpenAPISpec, error) {
	return parse(ctx, data, format, nil)
}

func parse(ctx context.Context, data []byte, format Format, location *url.URL) (*types.OpenAPISpec, error) {
	if err := checkSyntax(data, format); err != nil {
		return nil, err
	}
	if err := checkVersion(data); err != nil {
		return nil, err
	}

	order, err := buildOrderIndex(data)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindSpecParsing, err, "failed to index spec")
	}

	loader := openapi3.NewLoader()
	var doc *openapi3.T
	if location != nil {
		loader.IsExternalRefsAllowed = true
		doc, err = loader.LoadFromDataWithPath(data, location)
	} else {
		doc, err = loader.LoadFromData(data)
	}
	if err != nil {
		return nil, apperr.Wrap(apperr.KindSpecParsing, err, "failed to load spec")
	}
	if err := doc.Validate(ctx); err != nil {
		return nil, apperr.Wrap(apperr.KindSpecParsing, err, "spec failed schema validation")
	}

	return convert(doc, order), nil
}

func checkSyntax(data []byte, format Format) error {
	var probe map[string]any
	switch format {
	case FormatJSON:
		if err := json.Unmarshal(data, &probe); err != nil {
			return apperr.Wrap(apperr.KindSpecParsing, err, "invalid JSON")
		}
	case FormatYAML:
		if err := yaml.Unmarshal(data, &probe); err != nil {
			return apperr.Wrap(apperr.KindSpecParsing, err, "invalid YAML")
		}
	default:
		return apperr.New(apperr.KindSpecParsing, "unsupported format %q", format)
	}
	if probe == nil {
		return apperr.New(apperr.KindSpecParsing, "spec document is empty")
	}
	return nil
}

func checkVersion(data []byte) error {
	var root map[string]any
	if err := yaml.Unmarshal(data, &root); err != nil {
		return apperr.Wrap(apperr.KindSpecParsing, err, "failed to read spec")
	}
	raw, ok := root["openapi"]
	if !ok {
		return apperr.New(apperr.KindSpecParsing, "missing 'openapi' field")
	}
	version, ok := raw.(string)
	if !ok {
		return apperr.New(apperr.KindSpecParsing, "'openapi' field must be a string, got %v", raw)
	}
	if !strings.HasPrefix(version, "3.") {
		return apperr.New(apperr.KindSpecParsing, "unsupported OpenAPI version %q (expected 3.x)", version)
	}
	return nil
}

// Validate runs the post-parse semantic checks.
func Validate(spec *types.OpenAPISpec) error {
	if len(spec.Paths) == 0 {
		return apperr.New(apperr.KindSpecParsing, "spec has no paths")
	}
	if spec.OperationCount() == 0 {
		return apperr.New(apperr.KindSpecParsing, "spec has no operations")
	}
	return nil
}

func convert(doc *openapi3.T, order *orderIndex) *types.OpenAPISpec {
	spec := &types.OpenAPISpec{Version: doc.OpenAPI}

	if doc.Info != nil {
		spec.Info = types.Info{
			Title:       doc.Info.Title,
			Version:     doc.Info.Version,
			Description: doc.Info.Description,
		}
	}
	for _, s := range doc.Servers {
		if s != nil {
			spec.Servers = append(spec.Servers, types.Server{URL: s.URL, Description: s.Description})
		}
	}
	if doc.Components != nil {
		spec.Components.Schemas = ordered(doc.Components.Schemas, nil)
		spec.Components.SecuritySchemes = ordered(doc.Components.SecuritySchemes, nil)
	}

	for _, path := range ordered(doc.Paths, order.paths) {
		item := doc.Paths[path]
		if item == nil {
			continue
		}
		converted := types.PathItem{Path: path}
		base := convertParams(nil, item.Parameters)

		for _, verb := range types.Verbs {
			op := item.GetOperation(strings.ToUpper(verb))
			if op == nil {
				continue
			}
			converted.SetOperation(verb, convertOperation(op, base, doc.Security, order, opKey(path, verb)))
		}
		spec.Paths = append(spec.Paths, converted)
	}

	return spec
}

func convertOperation(op *openapi3.Operation, base []types.Parameter, global openapi3.SecurityRequirements, order *orderIndex, key string) *types.Operation {
	out := &types.Operation{
		Summary:     op.Summary,
		Description: op.Description,
		OperationID: op.OperationID,
		Tags:        append([]string(nil), op.Tags...),
		Parameters:  convertParams(base, op.Parameters),
	}

	if op.RequestBody != nil && op.RequestBody.Value != nil {
		body := op.RequestBody.Value
		out.RequestBody = &types.RequestBody{
			Description:  body.Description,
			Required:     body.Required,
			ContentTypes: ordered(body.Content, order.content[key]),
		}
	}

	for _, code := range ordered(op.Responses, order.responses[key]) {
		ref := op.Responses[code]
		if ref == nil || ref.Value == nil {
			continue
		}
		desc := ""
		if ref.Value.Description != nil {
			desc = *ref.Value.Description
		}
		out.Responses = append(out.Responses, types.Response{Status: code, Description: desc})
	}

	// operation-level security replaces the document default, even when empty
	reqs := global
	if op.Security != nil {
		reqs = *op.Security
	}
	for _, req := range reqs {
		sr := make(types.SecurityReq, len(req))
		for name, scopes := range req {
			sr[name] = append([]string(nil), scopes...)
		}
		out.Security = append(out.Security, sr)
	}

	return out
}

// convertParams appends refs to base; a ref with the same (in, name) as a
// base entry replaces it in place.
func convertParams(base []types.Parameter, refs openapi3.Parameters) []types.Parameter {
	out := append([]types.Parameter(nil), base...)
	for _, ref := range refs {
		if ref == nil || ref.Value == nil {
			continue
		}
		p := types.Parameter{
			Name:        ref.Value.Name,
			In:          ref.Value.In,
			Description: ref.Value.Description,
			Required:    ref.Value.Required,
		}
		replaced := false
		for i := range out {
			if out[i].Name == p.Name && out[i].In == p.In {
				out[i] = p
				replaced = true
				break
			}
		}
		if !replaced {
			out = append(out, p)
		}
	}
	return out
}

// Describe summarizes a parsed spec for log lines.
func Describe(spec *types.OpenAPISpec) string {
	return fmt.Sprintf("%s %s (%d paths, %d operations)", spec.Info.Title, spec.Info.Version, len(spec.Paths), spec.OperationCount())
}
