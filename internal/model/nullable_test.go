package model

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNullableDistinguishesAbsentFromNull(t *testing.T) {
	var in struct {
		Bio    Nullable[string] `json:"bio"`
		Branch Nullable[string] `json:"branch"`
		Year   Nullable[int]    `json:"graduationYear"`
	}
	require.NoError(t, json.Unmarshal([]byte(`{"bio":null,"graduationYear":2024}`), &in))

	assert.True(t, in.Bio.Set)
	assert.Nil(t, in.Bio.Value)

	assert.False(t, in.Branch.Set)

	assert.True(t, in.Year.Set)
	require.NotNil(t, in.Year.Value)
	assert.Equal(t, 2024, *in.Year.Value)
}

func TestNullableRejectsWrongType(t *testing.T) {
	var in struct {
		Year Nullable[int] `json:"graduationYear"`
	}
	assert.Error(t, json.Unmarshal([]byte(`{"graduationYear":"soon"}`), &in))
}

func TestSameCollege(t *testing.T) {
	x, y := "x", "y"
	a := &User{ID: "a", CollegeID: &x}
	b := &User{ID: "b", CollegeID: &y}
	c := &User{ID: "c", CollegeID: &x}
	none := &User{ID: "n"}

	assert.False(t, a.SameCollege(b))
	assert.True(t, a.SameCollege(c))
	assert.False(t, none.SameCollege(&User{ID: "m"}))
}
