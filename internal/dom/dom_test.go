package dom

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testPage = `<html><head><title>t</title></head><body>
<div class="region outer">
  <ul>
    <li class="item"><a href="/Meeting.aspx?Id=1" aria-label="HTML Agenda for Regular">one</a></li>
    <li class="item"><a href="https://other.example.com/doc.pdf">two</a></li>
    <li class="item">
        three
        and   a half
    </li>
  </ul>
</div>
</body></html>`

func mustParse(t *testing.T, source, location string) *Page {
	t.Helper()
	page, err := ParseString(source, location)
	require.NoError(t, err)
	return page
}

func TestLocatorSelector(t *testing.T) {
	assert.Equal(t, ".past-meetings-region", ClassName("past-meetings-region").Selector())
	assert.Equal(t, "div.Year0 > div", CSS("div.Year0 > div").Selector())
	assert.Contains(t, ClassName("x").String(), "class name")
	assert.Contains(t, CSS("a").String(), "css selector")
}

func TestFindOne(t *testing.T) {
	page := mustParse(t, testPage, "https://pub.example.com/?Year=2025")

	t.Run("by class name", func(t *testing.T) {
		el, err := page.FindOne(ClassName("region"))
		require.NoError(t, err)
		items, err := el.FindAll(ClassName("item"))
		require.NoError(t, err)
		assert.Len(t, items, 3)
	})

	t.Run("missing element", func(t *testing.T) {
		_, err := page.FindOne(ClassName("past-meetings-region"))
		require.Error(t, err)
		assert.True(t, errors.Is(err, ErrNotFound))
	})

	t.Run("invalid selector", func(t *testing.T) {
		_, err := page.FindOne(CSS("div[["))
		require.Error(t, err)
		assert.False(t, errors.Is(err, ErrNotFound))
	})

	t.Run("empty locator", func(t *testing.T) {
		_, err := page.FindAll(ClassName("  "))
		assert.Error(t, err)
	})
}

func TestFindAllEmptyIsNotError(t *testing.T) {
	page := mustParse(t, testPage, "")
	found, err := page.FindAll(ClassName("MeetingTypeList"))
	require.NoError(t, err)
	assert.Empty(t, found)
}

func TestAttributeResolvesLinks(t *testing.T) {
	page := mustParse(t, testPage, "https://pub.example.com/?Year=2025")

	anchors, err := page.FindAll(CSS("li.item > a"))
	require.NoError(t, err)
	require.Len(t, anchors, 2)

	href, ok := anchors[0].Attribute("href")
	assert.True(t, ok)
	assert.Equal(t, "https://pub.example.com/Meeting.aspx?Id=1", href)

	href, ok = anchors[1].Attribute("href")
	assert.True(t, ok)
	assert.Equal(t, "https://other.example.com/doc.pdf", href)

	label, ok := anchors[0].Attribute("aria-label")
	assert.True(t, ok)
	assert.Equal(t, "HTML Agenda for Regular", label)

	_, ok = anchors[0].Attribute("title")
	assert.False(t, ok)
}

func TestAttributeWithoutLocation(t *testing.T) {
	page := mustParse(t, testPage, "")
	a, err := page.FindOne(CSS(`a[aria-label*="HTML Agenda"]`))
	require.NoError(t, err)
	href, _ := a.Attribute("href")
	assert.Equal(t, "/Meeting.aspx?Id=1", href)
}

func TestBaseElement(t *testing.T) {
	page := mustParse(t, `<html><head><base href="https://cdn.example.com/root/"></head>
<body><a href="file.pdf">f</a></body></html>`, "")
	a, err := page.FindOne(CSS("a"))
	require.NoError(t, err)
	href, _ := a.Attribute("href")
	assert.Equal(t, "https://cdn.example.com/root/file.pdf", href)
}

func TestText(t *testing.T) {
	page := mustParse(t, testPage, "")
	items, err := page.FindAll(ClassName("item"))
	require.NoError(t, err)
	require.Len(t, items, 3)

	assert.Equal(t, "one", items[0].Text())
	assert.Equal(t, "three and a half", items[2].Text())
}

func TestTextRendering(t *testing.T) {
	tests := []struct {
		name   string
		markup string
		want   string
	}{
		{
			name:   "br breaks the line",
			markup: `Thursday, March 06, 2025<br>9:30 AM`,
			want:   "Thursday, March 06, 2025\n9:30 AM",
		},
		{
			name:   "self-closing br",
			markup: `Hearing Room<br/>3rd Floor`,
			want:   "Hearing Room\n3rd Floor",
		},
		{
			name:   "block children on their own lines",
			markup: `<div>Thursday, March 06, 2025</div><p>Hearing Room</p>`,
			want:   "Thursday, March 06, 2025\nHearing Room",
		},
		{
			name:   "inline children stay on the line",
			markup: `Regular <span>Meeting</span> <b>Thursday</b>`,
			want:   "Regular Meeting Thursday",
		},
		{
			name:   "source newlines collapse",
			markup: "Commissioners Hearing Room,\n      3rd Floor",
			want:   "Commissioners Hearing Room, 3rd Floor",
		},
		{
			name:   "script skipped",
			markup: `9:30 AM<script>var x = 1;</script>`,
			want:   "9:30 AM",
		},
		{
			name:   "style skipped",
			markup: `9:30 AM<style>.a { color: red }</style>`,
			want:   "9:30 AM",
		},
		{
			name:   "template skipped",
			markup: `Virtual<template><p>stamp</p></template>`,
			want:   "Virtual",
		},
		{
			name:   "noscript skipped",
			markup: `Virtual<noscript>Enable JavaScript</noscript>`,
			want:   "Virtual",
		},
		{
			name:   "hidden attribute skipped",
			markup: `Virtual<span hidden>Zoom link</span>`,
			want:   "Virtual",
		},
		{
			name:   "inline display none skipped",
			markup: `Virtual<span style="display: none">hidden</span>`,
			want:   "Virtual",
		},
		{
			name:   "everything at once",
			markup: `Thursday, March 06, 2025<br>9:30 AM<span style="display:none">hidden</span><script>var x=1;</script>`,
			want:   "Thursday, March 06, 2025\n9:30 AM",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			page := mustParse(t, `<html><body><div id="d">`+tt.markup+`</div></body></html>`, "")
			el, err := page.FindOne(CSS("#d"))
			require.NoError(t, err)
			assert.Equal(t, tt.want, el.Text())
		})
	}
}

func TestTruncate(t *testing.T) {
	tests := []struct {
		name string
		in   string
		n    int
		want string
	}{
		{name: "shorter than limit", in: "abc", n: 10, want: "abc"},
		{name: "exact", in: "abc", n: 3, want: "abc"},
		{name: "cut", in: "abcdef", n: 4, want: "abcd"},
		{name: "multibyte", in: "ééééé", n: 2, want: "éé"},
		{name: "no limit", in: "abc", n: 0, want: "abc"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Truncate(tt.in, tt.n))
		})
	}
}

func TestPreview(t *testing.T) {
	page := mustParse(t, strings.Repeat("x", 1500), "")
	assert.Len(t, page.Preview(1000), 1000)
	assert.Len(t, page.Source(), 1500)
}
