package models

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestOptional_Unmarshal(t *testing.T) {
	var body struct {
		Absent  Optional[int]    `json:"absent"`
		Cleared Optional[int]    `json:"cleared"`
		Score   Optional[int]    `json:"score"`
		Name    Optional[string] `json:"name"`
	}
	require.NoError(t, json.Unmarshal([]byte(`{"cleared": null, "score": 4, "name": ""}`), &body))

	require.False(t, body.Absent.Set)

	require.True(t, body.Cleared.Set)
	require.True(t, body.Cleared.Null)
	require.Zero(t, body.Cleared.Value)

	require.True(t, body.Score.Set)
	require.False(t, body.Score.Null)
	require.Equal(t, 4, body.Score.Value)

	require.True(t, body.Name.Set)
	require.False(t, body.Name.Null)
	require.Empty(t, body.Name.Value)
}

func TestOptional_UnmarshalWrongType(t *testing.T) {
	var body struct {
		Score Optional[int] `json:"score"`
	}
	require.Error(t, json.Unmarshal([]byte(`{"score": "high"}`), &body))
}

func TestOptional_Marshal(t *testing.T) {
	raw, err := json.Marshal(struct {
		A Optional[int] `json:"a"`
		B Optional[int] `json:"b"`
		C Optional[int] `json:"c"`
	}{B: Optional[int]{Set: true, Null: true}, C: Some(5)})
	require.NoError(t, err)
	require.JSONEq(t, `{"a": null, "b": null, "c": 5}`, string(raw))
}
