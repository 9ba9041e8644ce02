// ABOUTME: Tests for partial-update wrappers
// ABOUTME: Checks absent vs null vs value semantics in Go and JSON

package entity

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpt_ApplyTo(t *testing.T) {
	v := "old"

	Opt[string]{}.ApplyTo(&v)
	assert.Equal(t, "old", v)

	Set("new").ApplyTo(&v)
	assert.Equal(t, "new", v)
}

func TestApplyNullable(t *testing.T) {
	profile := NewID[Profile]()
	u := User{Profile: &profile}

	UserUpdate{}.Apply(&u)
	require.NotNil(t, u.Profile, "absent field must leave value unchanged")

	UserUpdate{Profile: Set(Null[ID[Profile]]())}.Apply(&u)
	assert.Nil(t, u.Profile, "Set(Null()) must clear the value")

	other := NewID[Profile]()
	UserUpdate{Profile: Set(Value(other))}.Apply(&u)
	require.NotNil(t, u.Profile)
	assert.Equal(t, other, *u.Profile)
}

func TestTeamUpdate_JSON(t *testing.T) {
	tests := []struct {
		name      string
		body      string
		wantName  bool
		wantDesc  bool
		wantValue *string
	}{
		{name: "empty", body: `{}`},
		{name: "name only", body: `{"name":"x"}`, wantName: true},
		{name: "explicit null description", body: `{"description":null}`, wantDesc: true},
		{name: "description value", body: `{"description":"d"}`, wantDesc: true, wantValue: ptr("d")},
		{name: "null name stays absent", body: `{"name":null}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var p TeamUpdate
			require.NoError(t, json.Unmarshal([]byte(tt.body), &p))

			_, hasName := p.Name.Get()
			assert.Equal(t, tt.wantName, hasName)

			desc, hasDesc := p.Description.Get()
			assert.Equal(t, tt.wantDesc, hasDesc)
			if hasDesc {
				assert.Equal(t, tt.wantValue, desc.Ptr())
			}
		})
	}
}

func TestOpt_MarshalOmitsAbsent(t *testing.T) {
	data, err := json.Marshal(TeamUpdate{Name: Set("a"), Description: Set(Null[string]())})
	require.NoError(t, err)
	assert.JSONEq(t, `{"name":"a","description":null}`, string(data))
}

func ptr[T any](v T) *T { return &v }
