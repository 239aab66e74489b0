// internal/types/spec.go
// Package types contains the shared data model. It has no CGO or network
// dependencies so every layer can import it.
package types

// HTTP verbs in chunk enumeration order.
var Verbs = []string{"get", "post", "put", "delete", "patch", "options", "head"}

// OpenAPISpec is the parsed, typed view of an OpenAPI 3.x document.
type OpenAPISpec struct {
	Version    string     `json:"openapi"`
	Info       Info       `json:"info"`
	Servers    []Server   `json:"servers,omitempty"`
	Paths      []PathItem `json:"paths"`
	Components Components `json:"components"`
}

// Info is the document info block.
type Info struct {
	Title       string `json:"title"`
	Version     string `json:"version"`
	Description string `json:"description,omitempty"`
}

// Server is a declared server URL.
type Server struct {
	URL         string `json:"url"`
	Description string `json:"description,omitempty"`
}

// Components lists the names of reusable definitions.
type Components struct {
	Schemas         []string `json:"schemas,omitempty"`
	SecuritySchemes []string `json:"security_schemes,omitempty"`
}

// PathItem holds at most one operation per verb. Absent verbs are nil.
type PathItem struct {
	Path    string     `json:"path"`
	Get     *Operation `json:"get,omitempty"`
	Post    *Operation `json:"post,omitempty"`
	Put     *Operation `json:"put,omitempty"`
	Delete  *Operation `json:"delete,omitempty"`
	Patch   *Operation `json:"patch,omitempty"`
	Options *Operation `json:"options,omitempty"`
	Head    *Operation `json:"head,omitempty"`
}

// Operation returns the operation for a lower-case verb, or nil.
func (p PathItem) Operation(verb string) *Operation {
	switch verb {
	case "get":
		return p.Get
	case "post":
		return p.Post
	case "put":
		return p.Put
	case "delete":
		return p.Delete
	case "patch":
		return p.Patch
	case "options":
		return p.Options
	case "head":
		return p.Head
	}
	return nil
}

// SetOperation assigns op to the given lower-case verb.
func (p *PathItem) SetOperation(verb string, op *Operation) {
	switch verb {
	case "get":
		p.Get = op
	case "post":
		p.Post = op
	case "put":
		p.Put = op
	case "delete":
		p.Delete = op
	case "patch":
		p.Patch = op
	case "options":
		p.Options = op
	case "head":
		p.Head = op
	}
}

// OperationCount returns the number of non-nil operations.
func (p PathItem) OperationCount() int {
	n := 0
	for _, v := range Verbs {
		if p.Operation(v) != nil {
			n++
		}
	}
	return n
}

// OperationCount sums operations over all paths.
func (s *OpenAPISpec) OperationCount() int {
	n := 0
	for _, p := range s.Paths {
		n += p.OperationCount()
	}
	return n
}

// Operation is a single verb on a path.
type Operation struct {
	Summary     string        `json:"summary,omitempty"`
	Description string        `json:"description,omitempty"`
	OperationID string        `json:"operationId,omitempty"`
	Tags        []string      `json:"tags,omitempty"`
	Parameters  []Parameter   `json:"parameters,omitempty"`
	RequestBody *RequestBody  `json:"requestBody,omitempty"`
	Responses   []Response    `json:"responses"`
	Security    []SecurityReq `json:"security,omitempty"`
}

// SecurityReq maps a scheme name to its scopes.
type SecurityReq map[string][]string

// Parameter locations.
const (
	InQuery  = "query"
	InHeader = "header"
	InPath   = "path"
	InCookie = "cookie"
)

// Parameter is an operation parameter.
type Parameter struct {
	Name        string `json:"name"`
	In          string `json:"in"`
	Description string `json:"description,omitempty"`
	Required    bool   `json:"required"`
}

// RequestBody keeps the declared media types in source order.
type RequestBody struct {
	Description  string   `json:"description,omitempty"`
	Required     bool     `json:"required"`
	ContentTypes []string `json:"content_types"`
}

// Response is one status-code entry, kept in source order.
type Response struct {
	Status      string `json:"status"`
	Description string `json:"description"`
}
