package template

import (
	"fmt"
	"regexp"

	"github.com/pkg/errors"
)

const prefix = "@"

var (
	// tplRegexp is compiled regexp for templates in stage configuration
	tplRegexp *regexp.Regexp
)

func init() {
	r, err := regexp.Compile(`@\{[^}]*\}`)
	if err != nil {
		panic(errors.Wrap(err, "cannot compile template regexp"))
	}
	tplRegexp = r
}

// Template is a representation of a configuration value holding expressions.
type Template struct {
	input interface{}
}

// New returns a new Template from the given structure
func New(in interface{}) *Template {
	return &Template{
		input: in,
	}
}

// Expression is a template element to be resolved, written @{path.to.value}
type Expression struct {
	Text string
}

func (expr Expression) String() string {
	return fmt.Sprintf("%s{%s}", prefix, expr.Text)
}

// FindAll finds all expressions within the template, walking maps and slices.
func (tpl *Template) FindAll() []Expression {
	var exprs []Expression
	find(&exprs, tpl.input)
	return exprs
}

func find(expressions *[]Expression, in interface{}) {
	switch v := in.(type) {
	case map[string]interface{}:
		for _, e := range v {
			find(expressions, e)
		}
	case []interface{}:
		for _, e := range v {
			find(expressions, e)
		}
	case string:
		*expressions = append(*expressions, findExpressions(v)...)
	}
}

// findExpressions finds the template expressions from the string
func findExpressions(in string) []Expression {
	var exprs []Expression
	for _, str := range tplRegexp.FindAllString(in, -1) {
		if e := asExpression(str); e.Text != "" {
			exprs = append(exprs, e)
		}
	}
	return exprs
}

// asExpression creates a template expression from a matched string.
func asExpression(in string) Expression {
	return Expression{Text: in[len(prefix)+1 : len(in)-1]}
}
