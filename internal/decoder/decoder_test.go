package decoder

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sample struct {
	A int      `json:"a"`
	B []string `json:"b"`
}

func TestDecodeFencedJSON(t *testing.T) {
	got, err := Decode[sample]("```json\n{\"a\":1}\n```")
	require.NoError(t, err)
	assert.Equal(t, 1, got.A)
}

func TestDecodeVariants(t *testing.T) {
	tests := []struct {
		name string
		raw  string
	}{
		{"bare", `{"a":2,"b":["x"]}`},
		{"padded", "  \n{\"a\":2,\"b\":[\"x\"]}\n\t"},
		{"fence without tag", "```\n{\"a\":2,\"b\":[\"x\"]}\n```"},
		{"prose wrapped", "Sure! Here is the JSON you asked for: {\"a\":2,\"b\":[\"x\"]} Let me know."},
		{"label prefix", "Result: {\"a\":2,\"b\":[\"x\"]}"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Decode[sample](tt.raw)
			require.NoError(t, err)
			assert.Equal(t, sample{A: 2, B: []string{"x"}}, got)
		})
	}
}

func TestDecodeStringWithBraces(t *testing.T) {
	got, err := Decode[map[string]string](`Note {"k":"va}l{ue \" x"} trailing`)
	require.NoError(t, err)
	assert.Equal(t, `va}l{ue " x`, got["k"])
}

func TestExtractArrays(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want string
	}{
		{"fenced array in prose", "Sure!\n```json\n[{\"a\":1},{\"a\":2}]\n```", `[{"a":1},{"a":2}]`},
		{"bare array in prose", "Here you go: [{\"a\":1},{\"a\":2}] done", `[{"a":1},{"a":2}]`},
		{"bracketed note before object", "[draft] result: {\"a\":3}", `{"a":3}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Extract(tt.raw))
		})
	}

	got, err := Decode[[]sample]("Sure!\n```json\n[{\"a\":1},{\"a\":2}]\n```")
	require.NoError(t, err)
	assert.Len(t, got, 2)
}

func TestDecodeIsIdempotentUnderWrapping(t *testing.T) {
	raw := `{"a":7,"b":["p","q"]}`
	direct, err := Decode[sample](raw)
	require.NoError(t, err)

	wrapped, err := Decode[sample]("```json\n" + raw + "\n```")
	require.NoError(t, err)
	assert.Equal(t, direct, wrapped)
}

func TestDecodeMalformed(t *testing.T) {
	for _, raw := range []string{"", "   ", "not json at all", "```json\n{\"a\":\n```", `{"a":1}{"a":2}`} {
		_, err := Decode[sample](raw)
		require.Error(t, err, raw)
		assert.True(t, IsMalformed(err), raw)
		assert.False(t, IsContractViolation(err), raw)
	}
}

func TestDecodeContractViolation(t *testing.T) {
	type profile struct {
		Archetype string `json:"archetype"`
	}
	_, err := Decode[profile](`{"archetype":"Sage"}`, WithSchema("voice_profile"))
	require.Error(t, err)
	assert.True(t, IsContractViolation(err))
	assert.False(t, IsMalformed(err))

	var cv *ContractViolationError
	require.ErrorAs(t, err, &cv)
	assert.Equal(t, "voice_profile", cv.Schema)
	assert.NotEmpty(t, cv.Violations)
}

func TestDecodeWithSchemaAccepts(t *testing.T) {
	type viral struct {
		ViralPosts []struct {
			Platform string `json:"platform"`
			Text     string `json:"post_text"`
		} `json:"viral_posts"`
	}
	got, err := Decode[viral]("```json\n{\"viral_posts\":[{\"platform\":\"TikTok\",\"post_text\":\"hook\"}]}\n```", WithSchema("viral_posts"))
	require.NoError(t, err)
	require.Len(t, got.ViralPosts, 1)
	assert.Equal(t, "TikTok", got.ViralPosts[0].Platform)
}

func TestUnknownSchema(t *testing.T) {
	_, err := Decode[sample](`{"a":1}`, WithSchema("nope"))
	require.Error(t, err)
	assert.False(t, IsContractViolation(err))
}
