package a2a_test

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dispatch-gateway/dispatch-gateway/a2a"
)

func TestPartUnmarshalValidation(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{name: "valid text part", input: `{"kind":"text","text":"5"}`},
		{name: "valid data part", input: `{"kind":"data","data":{"value":5}}`},
		{name: "text part without text", input: `{"kind":"text"}`, wantErr: true},
		{name: "data part without data", input: `{"kind":"data"}`, wantErr: true},
		{name: "unknown kind", input: `{"kind":"video"}`, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var part a2a.Part
			err := json.Unmarshal([]byte(tt.input), &part)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestMessageText(t *testing.T) {
	message := a2a.Message{
		Role: "user",
		Parts: []a2a.Part{
			a2a.TextPart("5"),
			{Kind: "data", Data: map[string]any{"ignored": true}},
			a2a.TextPart("1"),
		},
	}
	assert.Equal(t, "51", message.Text())
}

func TestNewAgentTextMessage(t *testing.T) {
	message := a2a.NewAgentTextMessage("7")

	assert.Equal(t, "agent", message.Role)
	assert.NotEmpty(t, message.MessageID)
	require.Len(t, message.Parts, 1)
	assert.Equal(t, "text", message.Parts[0].Kind)
	assert.Equal(t, "7", message.Text())
}
