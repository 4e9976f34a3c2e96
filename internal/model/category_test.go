package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCategorize(t *testing.T) {
	cases := []struct {
		name  string
		app   string
		title string
		want  int
	}{
		{"editor by app", "Code", "main.go - myproject", CategoryDevelopment},
		{"terminal by app", "WindowsTerminal", "~", CategoryDevelopment},
		{"source file in title", "someapp", "review of parser.py", CategoryDevelopment},
		{"plain browser", "firefox", "Hacker News - Mozilla Firefox", CategoryBrowser},
		{"chat app", "Discord", "#general", CategoryCommunication},
		{"spotify app", "Spotify", "Artist - Song", CategoryEntertainment},
		{"notes app", "Obsidian", "daily notes", CategoryProductivity},
		{"file manager", "explorer", "Downloads", CategorySystem},
		{"unmatched", "randomapp", "random window", CategoryOther},
		{"empty", "", "", CategoryOther},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, Categorize(tc.app, tc.title))
		})
	}
}

// Media playing inside a browser must classify as Entertainment, not
// Browser: the title rule runs before the browser app rule.
func TestCategorize_EntertainmentBeatsBrowser(t *testing.T) {
	assert.Equal(t, CategoryEntertainment, Categorize("chrome", "Lofi Beats - YouTube"))
	assert.Equal(t, CategoryEntertainment, Categorize("firefox", "Song Title • Artist Name"))
	assert.Equal(t, CategoryEntertainment, Categorize("msedge", "Liked Songs - Spotify"))
}

func TestCategorize_CaseInsensitive(t *testing.T) {
	assert.Equal(t, Categorize("FIREFOX", "News"), Categorize("firefox", "news"))
	assert.Equal(t, CategoryDevelopment, Categorize("GOLAND", ""))
}

func TestDefaultCategories(t *testing.T) {
	cats := DefaultCategories()
	assert.Len(t, cats, 7)

	seen := map[int]bool{}
	for _, c := range cats {
		assert.False(t, seen[c.ID], "duplicate category ID %d", c.ID)
		seen[c.ID] = true
		assert.NotEmpty(t, c.Name)
	}
	assert.Equal(t, "Other", cats[len(cats)-1].Name)
}

func TestCategoryName(t *testing.T) {
	assert.Equal(t, "Development", CategoryName(CategoryDevelopment))
	assert.Equal(t, "Other", CategoryName(CategoryOther))
	assert.Equal(t, "Other", CategoryName(999))
}

func TestHashString_CaseInsensitive(t *testing.T) {
	assert.Equal(t, HashString("Firefox"), HashString("firefox"))
	assert.Equal(t, HashString("FIREFOX"), HashString("fireFOX"))
	assert.NotEqual(t, HashString("firefox"), HashString("chrome"))
}
