package utils

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"
)

func TestMarshalNoEscape(t *testing.T) {
	data, err := MarshalNoEscape(map[string]string{"text": "<topic_idea>"})
	require.NoError(t, err)
	assert.Equal(t, `{"text":"<topic_idea>"}`, string(data))
}

func TestTruncateMessageContents(t *testing.T) {
	long := strings.Repeat("a", 300)
	body := []byte(`{"tool_type":"topic_brainstorm","messages":[{"role":"user","content":"short"},{"role":"assistant","content":"` + long + `"}]}`)

	out := TruncateMessageContents(body, 200)

	assert.Equal(t, "short", gjson.GetBytes(out, "messages.0.content").String())
	truncated := gjson.GetBytes(out, "messages.1.content").String()
	assert.True(t, strings.HasPrefix(truncated, strings.Repeat("a", 200)))
	assert.Contains(t, truncated, "(300 chars)")
	assert.Equal(t, "topic_brainstorm", gjson.GetBytes(out, "tool_type").String())
}

func TestMaskKey(t *testing.T) {
	assert.Equal(t, "(empty)", MaskKey(""))
	assert.Equal(t, "****", MaskKey("shortkey"))
	assert.Equal(t, "sk-ant-0...wxyz", MaskKey("sk-ant-0123456789abcdwxyz"))
}
