// Package retrieval turns a user query into ranked endpoint chunks.
package retrieval

import (
	"strings"

	"github.com/MereWhiplash/specrag/internal/apperr"
	"github.com/MereWhiplash/specrag/internal/types"
)

// MaxTopK bounds how many results a single query may ask for.
const MaxTopK = 20

// keywordRule maps a set of trigger substrings to one filter value.
type keywordRule struct {
	Value    string
	Keywords []string
}

// Rules are checked in order; the first rule with a matching keyword wins.
var (
	methodRules = []keywordRule{
		{Value: "POST", Keywords: []string{"등록", "생성", "추가", "post", "create"}},
		{Value: "GET", Keywords: []string{"조회", "확인", "검색", "get", "read", "fetch"}},
		{Value: "PUT", Keywords: []string{"수정", "변경", "업데이트", "put", "update"}},
		{Value: "DELETE", Keywords: []string{"삭제", "제거", "취소", "delete", "remove", "cancel"}},
		{Value: "PATCH", Keywords: []string{"일부수정", "patch"}},
	}

	tagRules = []keywordRule{
		{Value: "payment", Keywords: []string{"결제", "payment", "pay"}},
		{Value: "user", Keywords: []string{"사용자", "유저", "회원", "user", "member"}},
		{Value: "order", Keywords: []string{"주문", "order"}},
		{Value: "product", Keywords: []string{"상품", "제품", "product", "item"}},
	}
)

func firstMatch(rules []keywordRule, lowered string) (string, bool) {
	for _, r := range rules {
		for _, kw := range r.Keywords {
			if strings.Contains(lowered, kw) {
				return r.Value, true
			}
		}
	}
	return "", false
}

// QueryProcessor normalizes queries and infers filters from keyword cues.
type QueryProcessor struct {
	defaultTopK int
}

// NewQueryProcessor returns a processor that uses defaultTopK when a query
// does not ask for a specific count.
func NewQueryProcessor(defaultTopK int) *QueryProcessor {
	return &QueryProcessor{defaultTopK: defaultTopK}
}

// ProcessQuery normalizes query, merges inferred filters under the explicit
// ones and resolves top-k.
func (p *QueryProcessor) ProcessQuery(query string, filters types.Filters, topK int) (types.QueryRequest, error) {
	normalized := Normalize(query)
	if normalized == "" {
		return types.QueryRequest{}, apperr.New(apperr.KindRetrieval, "query cannot be empty")
	}

	if topK == 0 {
		topK = p.defaultTopK
	}
	if topK < 1 || topK > MaxTopK {
		return types.QueryRequest{}, apperr.New(apperr.KindRetrieval, "top_k must be between 1 and %d, got %d", MaxTopK, topK)
	}

	merged := ExtractFilters(normalized)
	for k, v := range filters {
		merged[k] = v
	}
	if len(merged) == 0 {
		merged = nil
	}

	return types.QueryRequest{Query: normalized, Filters: merged, TopK: topK}, nil
}

// Normalize trims query and collapses whitespace runs to single spaces.
func Normalize(query string) string {
	return strings.Join(strings.Fields(query), " ")
}

// ExtractFilters infers method and tag filters from a normalized query.
func ExtractFilters(query string) types.Filters {
	lowered := strings.ToLower(query)
	filters := types.Filters{}
	if method, ok := firstMatch(methodRules, lowered); ok {
		filters[types.FilterMethod] = method
	}
	if tag, ok := firstMatch(tagRules, lowered); ok {
		filters[types.FilterTags] = tag
	}
	return filters
}
