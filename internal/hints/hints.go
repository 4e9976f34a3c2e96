// Package hints turns a free-text activity query into storage filters: a
// category to pre-filter on and keywords to match against app names and
// window titles. The mapping is a fixed table, not a model; it exists so
// "what songs did I listen to" reaches for Spotify rows instead of
// scanning everything.
package hints

import "strings"

// Hints is the extracted filter set. An empty Categories slice means no
// category filter. Keywords are lowercase and deduplicated; Categories
// are deduplicated in rule order.
type Hints struct {
	Keywords   []string
	Categories []int
}

// Category IDs mirror the seeded category table.
const (
	categoryDevelopment   = 1
	categoryBrowser       = 2
	categoryCommunication = 3
	categoryEntertainment = 4
	categoryProductivity  = 5
)

// hintRule maps trigger terms found in a query to filter keywords and an
// optional category. Keywords and categories from every matching rule
// accumulate, so "music and meetings" filters on both.
type hintRule struct {
	triggers   []string
	keywords   []string
	categoryID int
}

var hintRules = []hintRule{
	{
		triggers:   []string{"song", "songs", "music", "listen", "listening", "playlist"},
		keywords:   []string{"spotify", "soundcloud", "apple music", "•"},
		categoryID: categoryEntertainment,
	},
	{
		triggers:   []string{"video", "videos", "watch", "watching", "movie", "show"},
		keywords:   []string{"youtube", "netflix", "twitch", "vlc"},
		categoryID: categoryEntertainment,
	},
	{
		triggers:   []string{"coding", "code", "program", "programming", "develop", "debugging"},
		keywords:   []string{"code", "git", "terminal"},
		categoryID: categoryDevelopment,
	},
	{
		triggers:   []string{"browse", "browsing", "website", "websites", "web", "google", "search"},
		keywords:   []string{"chrome", "firefox", "edge"},
		categoryID: categoryBrowser,
	},
	{
		triggers:   []string{"chat", "chatting", "message", "messages", "meeting", "call"},
		keywords:   []string{"slack", "discord", "teams", "zoom"},
		categoryID: categoryCommunication,
	},
	{
		triggers:   []string{"write", "writing", "notes", "document", "documents"},
		keywords:   []string{"notion", "obsidian", "word", "docs"},
		categoryID: categoryProductivity,
	},
}

// aliasGroups expands an app mentioned by a common alternate name into
// every name it may be recorded under.
var aliasGroups = [][]string{
	{"vs code", "vscode", "visual studio code", "code"},
	{"chrome", "google chrome"},
	{"edge", "microsoft edge", "msedge"},
	{"terminal", "windows terminal", "windowsterminal", "powershell", "cmd"},
	{"word", "microsoft word", "winword"},
	{"excel", "microsoft excel"},
	{"teams", "microsoft teams"},
	{"spotify"},
	{"firefox", "mozilla firefox"},
}

// Extract derives filters from a query. It never fails: a query with no
// recognized terms yields empty hints, which callers treat as "no
// pre-filter".
func Extract(query string) Hints {
	q := strings.ToLower(query)
	words := strings.FieldsFunc(q, func(r rune) bool {
		return r == ' ' || r == '\t' || r == ',' || r == '?' || r == '.' || r == '!'
	})
	wordSet := make(map[string]bool, len(words))
	for _, w := range words {
		wordSet[w] = true
	}

	var h Hints
	seen := make(map[string]bool)
	add := func(kw string) {
		if !seen[kw] {
			seen[kw] = true
			h.Keywords = append(h.Keywords, kw)
		}
	}
	seenCat := make(map[int]bool)

	for _, rule := range hintRules {
		matched := false
		for _, trig := range rule.triggers {
			if wordSet[trig] {
				matched = true
				break
			}
		}
		if !matched {
			continue
		}
		if !seenCat[rule.categoryID] {
			seenCat[rule.categoryID] = true
			h.Categories = append(h.Categories, rule.categoryID)
		}
		for _, kw := range rule.keywords {
			add(kw)
		}
	}

	// App aliases apply whether or not a rule matched: mentioning an app
	// by any of its names searches all of them.
	for _, group := range aliasGroups {
		for _, name := range group {
			if containsName(q, wordSet, name) {
				for _, alias := range group {
					add(alias)
				}
				break
			}
		}
	}

	return h
}

// containsName matches single-word names against the word set and
// multi-word names as substrings, so "vs code" triggers its alias group
// while plain "vs" does not.
func containsName(query string, wordSet map[string]bool, name string) bool {
	if strings.ContainsRune(name, ' ') {
		return strings.Contains(query, name)
	}
	return wordSet[name]
}
