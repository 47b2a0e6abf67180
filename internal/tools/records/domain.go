package records

import (
	"fmt"
	"regexp"

	"github.com/mkd-neo4j/odoo-support-mcp/internal/odoo"
	"github.com/mkd-neo4j/odoo-support-mcp/internal/tools"
)

var fieldNamePattern = regexp.MustCompile(`^[a-z_][a-z0-9_]*(\.[a-z_][a-z0-9_]*)*$`)

var prefixOperators = map[string]bool{"&": true, "|": true, "!": true}

var comparators = map[string]bool{
	"=": true, "!=": true, ">": true, ">=": true, "<": true, "<=": true, "=?": true,
	"like": true, "not like": true, "ilike": true, "not ilike": true, "=like": true, "=ilike": true,
	"in": true, "not in": true, "child_of": true, "parent_of": true, "any": true, "not any": true,
}

func validFieldName(name string) bool {
	return fieldNamePattern.MatchString(name)
}

// parseDomain checks the structural shape of a search domain: a list of
// [field, comparator, value] triples, optionally interleaved with "&", "|" and "!".
func parseDomain(raw any) (odoo.Domain, error) {
	items, ok := raw.([]any)
	if !ok {
		return nil, &tools.ValidationError{Field: "domain", Reason: "must be a list of [field, operator, value] triples"}
	}

	domain := make(odoo.Domain, 0, len(items))
	for i, item := range items {
		switch term := item.(type) {
		case string:
			if !prefixOperators[term] {
				return nil, domainError(i, fmt.Sprintf("unknown logical operator %q", term))
			}
			domain = append(domain, term)
		case []any:
			if len(term) != 3 {
				return nil, domainError(i, fmt.Sprintf("expected 3 elements, got %d", len(term)))
			}
			field, ok := term[0].(string)
			if !ok || !validFieldName(field) {
				return nil, domainError(i, fmt.Sprintf("invalid field name %v", term[0]))
			}
			op, ok := term[1].(string)
			if !ok || !comparators[op] {
				return nil, domainError(i, fmt.Sprintf("invalid operator %v", term[1]))
			}
			domain = append(domain, odoo.Cond(field, op, term[2]))
		default:
			return nil, domainError(i, "must be a triple or a logical operator")
		}
	}
	return domain, nil
}

func domainError(i int, reason string) error {
	return &tools.ValidationError{Field: fmt.Sprintf("domain[%d]", i), Reason: reason}
}
