package selection

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestController_Toggle(t *testing.T) {
	c := New()
	assert.Equal(t, ModeInline, c.Mode())

	c.Toggle("a")
	assert.True(t, c.Has("a"))
	assert.Equal(t, ModeBulk, c.Mode())

	c.Toggle("a")
	assert.False(t, c.Has("a"))
	assert.Equal(t, ModeInline, c.Mode())
}

func TestController_SelectAll(t *testing.T) {
	tests := []struct {
		name    string
		initial []string
		visible []string
		want    []string
	}{
		{name: "empty selects visible", visible: []string{"b", "a"}, want: []string{"a", "b"}},
		{name: "exact match clears", initial: []string{"a", "b"}, visible: []string{"a", "b"}, want: []string{}},
		{name: "partial becomes visible", initial: []string{"a"}, visible: []string{"a", "b"}, want: []string{"a", "b"}},
		{name: "hidden ids are dropped", initial: []string{"a", "z"}, visible: []string{"a"}, want: []string{"a"}},
		{name: "nothing visible clears", initial: []string{"a"}, visible: nil, want: []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := New()
			for _, id := range tt.initial {
				c.Toggle(id)
			}
			c.SelectAll(tt.visible)
			assert.Equal(t, tt.want, c.IDs())
		})
	}
}

func TestController_ModeTracksSize(t *testing.T) {
	c := New()
	ops := []func(){
		func() { c.Toggle("a") },
		func() { c.SelectAll([]string{"a", "b", "c"}) },
		func() { c.Remove("b") },
		func() { c.Retain([]string{"c"}) },
		func() { c.Clear() },
		func() { c.SelectAll(nil) },
	}
	for _, op := range ops {
		op()
		if c.Len() > 0 {
			assert.Equal(t, ModeBulk, c.Mode())
		} else {
			assert.Equal(t, ModeInline, c.Mode())
		}
	}
}

func TestController_Retain(t *testing.T) {
	c := New()
	c.SelectAll([]string{"a", "b", "c"})
	c.Retain([]string{"c", "d"})
	assert.Equal(t, []string{"c"}, c.IDs())
}
