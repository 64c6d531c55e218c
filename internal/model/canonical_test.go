package model

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMessage_RoundTrip(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(m *AsyncMessage)
	}{
		{"plain", func(m *AsyncMessage) {}},
		{"empty params", func(m *AsyncMessage) { m.Params = nil }},
		{"empty function", func(m *AsyncMessage) { m.Function = "" }},
		{"trigger without key", func(m *AsyncMessage) {
			m.Trigger = &Trigger{Address: SCAddress([]byte("watched"))}
			m.CanBeExecuted = false
		}},
		{"trigger with key", func(m *AsyncMessage) {
			m.Trigger = &Trigger{Address: SCAddress([]byte("watched")), DatastoreKey: []byte("balance")}
			m.CanBeExecuted = false
		}},
		{"trigger with empty key", func(m *AsyncMessage) {
			m.Trigger = &Trigger{Address: UserAddress([]byte("watched")), DatastoreKey: []byte{}}
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := testMessage(3, 7, 2, 1500, 90)
			tt.mutate(&m)
			m.ComputeHash()

			back, err := testCodec.DecodeMessage(m.Bytes())
			require.NoError(t, err)
			assert.Equal(t, m, back)
			assert.Equal(t, m.Bytes(), back.Bytes())
		})
	}
}

func TestMessage_HashDependsOnEveryField(t *testing.T) {
	base := testMessage(3, 7, 2, 1500, 90)
	changes := []func(m *AsyncMessage){
		func(m *AsyncMessage) { m.EmissionIndex++ },
		func(m *AsyncMessage) { m.Function = "other" },
		func(m *AsyncMessage) { m.Coins++ },
		func(m *AsyncMessage) { m.ValidityEnd.Period++ },
		func(m *AsyncMessage) { m.Params = []byte{9} },
		func(m *AsyncMessage) { m.CanBeExecuted = !m.CanBeExecuted },
	}
	for i, change := range changes {
		m := base.Clone()
		change(&m)
		m.ComputeHash()
		assert.NotEqual(t, base.Hash, m.Hash, "change %d", i)
	}
}

func TestDecodeMessage_Malformed(t *testing.T) {
	good := testMessage(3, 7, 2, 1500, 90)

	tests := []struct {
		name  string
		codec Codec
		bytes func() []byte
		field string
	}{
		{
			name:  "truncated",
			codec: testCodec,
			bytes: func() []byte { b := good.Bytes(); return b[:len(b)-5] },
		},
		{
			name:  "trailing bytes",
			codec: testCodec,
			bytes: func() []byte { return append(good.Bytes(), 0) },
			field: "message",
		},
		{
			name:  "thread out of range",
			codec: Codec{ThreadCount: 4, MaxMessageData: 1024, MaxKeyLength: 255},
			bytes: good.Bytes,
			field: "emission_slot",
		},
		{
			name:  "params too long",
			codec: Codec{ThreadCount: 32, MaxMessageData: 2, MaxKeyLength: 255},
			bytes: good.Bytes,
			field: "params",
		},
		{
			name:  "key too long",
			codec: Codec{ThreadCount: 32, MaxMessageData: 1024, MaxKeyLength: 3},
			bytes: func() []byte {
				m := good.Clone()
				m.Trigger = &Trigger{Address: SCAddress([]byte("w")), DatastoreKey: []byte("long key")}
				return m.Bytes()
			},
			field: "trigger.key",
		},
		{
			name:  "bad boolean",
			codec: testCodec,
			bytes: func() []byte { b := good.Bytes(); b[len(b)-1] = 2; return b },
			field: "can_be_executed",
		},
		{
			name:  "function not utf-8",
			codec: testCodec,
			bytes: func() []byte { m := good.Clone(); m.Function = "\xff\xfe"; return m.Bytes() },
			field: "function",
		},
		{
			name:  "unknown address kind",
			codec: testCodec,
			bytes: func() []byte { m := good.Clone(); m.Sender.Kind = 9; return m.Bytes() },
			field: "sender",
		},
		{
			name:  "empty",
			codec: testCodec,
			bytes: func() []byte { return nil },
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tt.codec.DecodeMessage(tt.bytes())
			require.Error(t, err)
			assert.True(t, IsMalformed(err), "got %v", err)

			var ce *CodecError
			require.True(t, errors.As(err, &ce))
			assert.Equal(t, ErrCodeMalformedData, ce.Code)
			if tt.field != "" {
				assert.Equal(t, tt.field, ce.Field)
			}
		})
	}
}

func TestCodecError_Message(t *testing.T) {
	err := malformed("params", 12, "length %d exceeds maximum %d", 5, 2)
	assert.Equal(t, "MALFORMED_DATA: params: length 5 exceeds maximum 2 (offset=12)", err.Error())
	assert.False(t, IsMalformed(errors.New("other")))
}
