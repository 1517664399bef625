package common

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMustGetJSONString(t *testing.T) {
	assert.Equal(t, "{}", MustGetJSONString(nil))
	assert.Equal(t, "{}", MustGetJSONString(make(chan int)))
	assert.Equal(t, `{"a":1}`, MustGetJSONString(map[string]int{"a": 1}))
}

func TestTrimIP(t *testing.T) {
	assert.Equal(t, "127.0.0.1", TrimIP("127.0.0.1:8080"))
	assert.Equal(t, "[::1]", TrimIP("[::1]:443"))
	assert.Equal(t, "localhost", TrimIP("localhost"))
}
