package maps

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGet(t *testing.T) {
	m := map[string]interface{}{
		"str": "foo",
		"num": 1,
		"obj": map[string]interface{}{
			"bool":  false,
			"array": []string{"toto", "tutu", "tata"},
		},
	}
	str := Get(m, "str")
	assert.Equal(t, "foo", str)

	bool := Get(m, "obj.bool")
	assert.Equal(t, false, bool)

	null := Get(m, "obj.bool.null")
	assert.Nil(t, null)
}

func TestDecode(t *testing.T) {
	var out struct {
		Count int           `json:"count"`
		Delay time.Duration `json:"delay"`
		Flag  bool          `json:"flag"`
	}
	err := Decode(map[string]interface{}{
		"count": "3",
		"delay": "1s",
		"flag":  true,
	}, &out)
	require.NoError(t, err)
	assert.Equal(t, 3, out.Count)
	assert.Equal(t, time.Second, out.Delay)
	assert.True(t, out.Flag)

	err = Decode(map[string]interface{}{"count": []int{1}}, &out)
	require.Error(t, err)
}

func TestBool(t *testing.T) {
	m := map[string]interface{}{
		"yes":   true,
		"str":   "true",
		"zero":  0,
		"wrong": []string{"a"},
	}
	cases := []struct {
		key      string
		expected bool
		err      bool
	}{
		{"yes", true, false},
		{"str", true, false},
		{"zero", false, false},
		{"missing", false, false},
		{"wrong", false, true},
	}
	for _, c := range cases {
		t.Run(c.key, func(t *testing.T) {
			b, err := Bool(m, c.key)
			if c.err {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, c.expected, b)
		})
	}
}
