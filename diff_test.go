package vcedit

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestChanges(t *testing.T) {
	tests := []struct {
		name    string
		oldHTML string
		newHTML string
		want    []Change
	}{
		{
			name:    "Identical",
			oldHTML: `<div id="a">x</div>`,
			newHTML: `<div id="a">x</div>`,
			want:    nil,
		},
		{
			name:    "Text",
			oldHTML: "<p>Hello</p>",
			newHTML: "<p>Hello World</p>",
			want: []Change{
				{Kind: ChangeText, Path: "body > p", OldValue: "Hello", NewValue: "Hello World"},
			},
		},
		{
			name:    "Attribute Added",
			oldHTML: `<div id="a">x</div>`,
			newHTML: `<div id="a" style="color: red;">x</div>`,
			want: []Change{
				{Kind: ChangeAttr, Path: "body > div#a", Key: "style", NewValue: "color: red;"},
			},
		},
		{
			name:    "Attributes Sorted",
			oldHTML: `<div class="k" title="t">x</div>`,
			newHTML: `<div class="z" style="s">x</div>`,
			want: []Change{
				{Kind: ChangeAttr, Path: "body > div", Key: "class", OldValue: "k", NewValue: "z"},
				{Kind: ChangeAttr, Path: "body > div", Key: "style", NewValue: "s"},
				{Kind: ChangeAttr, Path: "body > div", Key: "title", OldValue: "t"},
			},
		},
		{
			name:    "Insert",
			oldHTML: `<div id="a"></div>`,
			newHTML: `<div id="a"></div><div id="a"></div>`,
			want: []Change{
				{Kind: ChangeInsert, Path: "body", NewValue: `<div id="a"></div>`},
			},
		},
		{
			name:    "Remove",
			oldHTML: `<p>1</p><p>2</p>`,
			newHTML: `<p>1</p>`,
			want: []Change{
				{Kind: ChangeRemove, Path: "body", OldValue: `<p>2</p>`},
			},
		},
		{
			name:    "Replace",
			oldHTML: `<p>x</p>`,
			newHTML: `<span>x</span>`,
			want: []Change{
				{Kind: ChangeRemove, Path: "body", OldValue: `<p>x</p>`},
				{Kind: ChangeInsert, Path: "body", NewValue: `<span>x</span>`},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Changes(tt.oldHTML, tt.newHTML)
			if err != nil {
				t.Fatalf("Changes failed: %v", err)
			}
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("Changes mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestChangeString(t *testing.T) {
	c := Change{Kind: ChangeAttr, Path: "body > div#a", Key: "style", OldValue: "", NewValue: "color: red;"}
	want := `attr body > div#a [style] "" -> "color: red;"`
	if got := c.String(); got != want {
		t.Errorf("Got %s, want %s", got, want)
	}
}
