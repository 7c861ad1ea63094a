package messages

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseType(t *testing.T) {
	tests := []struct {
		name    string
		data    string
		want    string
		wantErr bool
	}{
		{
			name: "action frame",
			data: `{"type":"action.attack","target_id":"front"}`,
			want: MessageTypeActionAttack,
		},
		{
			name: "chat frame",
			data: `{"type":"chat.message","message":"hi"}`,
			want: MessageTypeChatMessage,
		},
		{
			name:    "missing type",
			data:    `{"message":"hi"}`,
			wantErr: true,
		},
		{
			name:    "not json",
			data:    `hello`,
			wantErr: true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseType([]byte(tt.data))
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestClientEscapeBenchIndex(t *testing.T) {
	msg := &ClientEscape{}
	require.NoError(t, json.Unmarshal([]byte(`{"type":"action.escape","bench_index":0}`), msg))
	require.NotNil(t, msg.BenchIndex)
	assert.Equal(t, 0, *msg.BenchIndex)

	// absent and zero must be distinguishable
	msg = &ClientEscape{}
	require.NoError(t, json.Unmarshal([]byte(`{"type":"action.escape"}`), msg))
	assert.Nil(t, msg.BenchIndex)
}

func TestNotices(t *testing.T) {
	assert.Equal(t, &ServerNotice{Type: MessageTypeError, Message: "boom"}, NewError("boom"))
	assert.Equal(t, &ServerNotice{Type: MessageTypeWarning, Message: "careful"}, NewWarning("careful"))
	assert.Equal(t, &ServerNotice{Type: MessageTypeInfo, Message: "fyi"}, NewInfo("fyi"))
}
