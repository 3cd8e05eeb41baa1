package template

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExpressionString(t *testing.T) {
	e := Expression{
		Text: "params.single",
	}
	assert.Equal(t, "@{params.single}", e.String())
}

func TestTemplateFindAll(t *testing.T) {
	in := map[string]interface{}{
		"key1": "@{params.param1}",
		"key2": "http://@{params.uri}/foo/@{params.path.foo}@{}",
		"obj": map[string]interface{}{
			"key3": "@{params.B}",
		},
		"list": []interface{}{"@{params.C}", 3},
		"key4": true,
	}

	tpl := New(in)
	expressions := tpl.FindAll()
	assert.Len(t, expressions, 5)
	assert.Contains(t, expressions, Expression{Text: "params.param1"})
	assert.Contains(t, expressions, Expression{Text: "params.uri"})
	assert.Contains(t, expressions, Expression{Text: "params.path.foo"})
	assert.Contains(t, expressions, Expression{Text: "params.B"})
	assert.Contains(t, expressions, Expression{Text: "params.C"})
}
