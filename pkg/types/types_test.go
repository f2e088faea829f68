package types

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPoolIdStringAndIsAdmin(t *testing.T) {
	assert.Equal(t, "0.0", AdminPoolId.String())
	assert.True(t, AdminPoolId.IsAdmin())

	p := PoolId{Major: 1, Minor: 2}
	assert.Equal(t, "1.2", p.String())
	assert.False(t, p.IsAdmin())
}

func TestPoolIdMarshalUnmarshalTextRoundTrip(t *testing.T) {
	p := PoolId{Major: 7, Minor: 3}

	text, err := p.MarshalText()
	require.NoError(t, err)
	assert.Equal(t, "7.3", string(text))

	var got PoolId
	require.NoError(t, got.UnmarshalText(text))
	assert.Equal(t, p, got)
}

func TestPoolIdUnmarshalTextRejectsMalformed(t *testing.T) {
	var p PoolId
	assert.Error(t, p.UnmarshalText([]byte("not-a-pool-id")))
}

func TestPoolIdAsJSONObjectKey(t *testing.T) {
	m := map[PoolId]string{
		{Major: 1, Minor: 0}: "admin pool replacement",
	}
	data, err := json.Marshal(m)
	require.NoError(t, err)
	assert.JSONEq(t, `{"1.0":"admin pool replacement"}`, string(data))
}

func TestPoolQueryConstructors(t *testing.T) {
	assert.Equal(t, PoolQuery{Kind: PoolQueryLocal}, QueryLocal())
	assert.Equal(t, PoolQuery{Kind: PoolQueryDynamic}, QueryDynamic())
	assert.Equal(t, PoolQuery{Kind: PoolQuerySpecific, NodeID: NodeId(5)}, QuerySpecific(NodeId(5)))
}

func TestTagIdString(t *testing.T) {
	tag := TagId{Major: 4, Minor: 1}
	assert.Equal(t, "4.1", tag.String())
}
