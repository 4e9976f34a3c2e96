package model

import "strings"

// Category IDs. These are stable: they appear in persisted rows and in the
// seeded categories table.
const (
	CategoryDevelopment   = 1
	CategoryBrowser       = 2
	CategoryCommunication = 3
	CategoryEntertainment = 4
	CategoryProductivity  = 5
	CategorySystem        = 6
	CategoryOther         = 7
)

// Category is a classification bucket for activity records.
type Category struct {
	ID       int      `json:"id"`
	Name     string   `json:"name"`
	Icon     string   `json:"icon"`
	Color    string   `json:"color"`
	Keywords []string `json:"keywords"`
	Apps     []string `json:"apps"`
}

// DefaultCategories returns the seven seeded categories.
func DefaultCategories() []Category {
	return []Category{
		{ID: CategoryDevelopment, Name: "Development", Icon: "code", Color: "#3b82f6",
			Keywords: []string{"vscode", "terminal", "git", "code"}, Apps: []string{"Code.exe", "git-bash.exe"}},
		{ID: CategoryBrowser, Name: "Browser", Icon: "globe", Color: "#10b981",
			Keywords: []string{"chrome", "firefox", "edge"}, Apps: []string{"chrome.exe", "firefox.exe", "msedge.exe"}},
		{ID: CategoryCommunication, Name: "Communication", Icon: "message-circle", Color: "#8b5cf6",
			Keywords: []string{"slack", "discord", "teams"}, Apps: []string{"slack.exe", "discord.exe"}},
		{ID: CategoryEntertainment, Name: "Entertainment", Icon: "play", Color: "#f59e0b",
			Keywords: []string{"youtube", "spotify", "netflix"}, Apps: []string{"spotify.exe"}},
		{ID: CategoryProductivity, Name: "Productivity", Icon: "check-square", Color: "#ec4899",
			Keywords: []string{"notion", "obsidian", "todo"}, Apps: []string{"notion.exe", "obsidian.exe"}},
		{ID: CategorySystem, Name: "System", Icon: "settings", Color: "#6b7280",
			Keywords: []string{"explorer", "settings"}, Apps: []string{"explorer.exe"}},
		{ID: CategoryOther, Name: "Other", Icon: "more-horizontal", Color: "#9ca3af"},
	}
}

// CategoryName maps a category ID to its display name. Unknown IDs map to
// "Other".
func CategoryName(id int) string {
	switch id {
	case CategoryDevelopment:
		return "Development"
	case CategoryBrowser:
		return "Browser"
	case CategoryCommunication:
		return "Communication"
	case CategoryEntertainment:
		return "Entertainment"
	case CategoryProductivity:
		return "Productivity"
	case CategorySystem:
		return "System"
	default:
		return "Other"
	}
}

// categoryRule is one entry of the classification rule list. Rules are
// evaluated top to bottom and the first match wins; the order is
// load-bearing (entertainment-by-title must beat browser-by-app, so that
// Spotify playing inside a browser tab lands in Entertainment).
type categoryRule struct {
	categoryID    int
	appContains   []string
	titleContains []string
}

var categoryRules = []categoryRule{
	{
		categoryID: CategoryDevelopment,
		appContains: []string{
			"code", "vscode", "cursor", "idea", "pycharm", "webstorm",
			"phpstorm", "rider", "clion", "goland", "android studio",
			"eclipse", "sublime", "atom", "vim", "neovim", "emacs",
			"git", "terminal", "powershell", "cmd", "windowsterminal",
			"postman", "insomnia", "docker",
		},
		titleContains: []string{"visual studio"},
	},
	{
		// Source-file extensions in the title mean the editor check above
		// missed a development tool.
		categoryID: CategoryDevelopment,
		titleContains: []string{
			".ts", ".tsx", ".js", ".jsx", ".py", ".rs", ".go", ".java",
			".cpp", ".cs", ".rb", ".php", ".vue", ".svelte", ".html",
			".css", ".scss", ".json", ".toml", ".yaml", ".yml", ".md", ".sql",
		},
	},
	{
		// Entertainment by title is checked before Browser by app. Spotify
		// web titles use the "Song • Artist" bullet format.
		categoryID:  CategoryEntertainment,
		appContains: []string{"spotify", "netflix", "youtube", "vlc", "media player"},
		titleContains: []string{
			"spotify", "youtube", "netflix", "twitch", "soundcloud",
			"apple music", "liked songs", "•",
		},
	},
	{
		categoryID: CategoryBrowser,
		appContains: []string{
			"chrome", "firefox", "edge", "brave", "opera", "vivaldi",
			"safari", "webview2", "msedgewebview",
		},
	},
	{
		categoryID: CategoryCommunication,
		appContains: []string{
			"slack", "discord", "teams", "zoom", "telegram", "whatsapp",
			"signal", "skype", "outlook", "thunderbird", "gmail",
		},
	},
	{
		categoryID: CategoryProductivity,
		appContains: []string{
			"notion", "obsidian", "todo", "word", "excel", "powerpoint",
			"onenote", "notepad", "figma",
		},
		titleContains: []string{"notion", "google docs", "google sheets"},
	},
	{
		categoryID: CategorySystem,
		appContains: []string{
			"explorer", "settings", "task manager", "control panel",
			"systemsettings",
		},
	},
}

// Categorize resolves a category ID from an app name and window title by
// walking the ordered rule list. Unmatched input falls back to Other.
func Categorize(appName, windowTitle string) int {
	app := strings.ToLower(appName)
	title := strings.ToLower(windowTitle)

	for _, rule := range categoryRules {
		for _, kw := range rule.appContains {
			if strings.Contains(app, kw) {
				return rule.categoryID
			}
		}
		for _, kw := range rule.titleContains {
			if strings.Contains(title, kw) {
				return rule.categoryID
			}
		}
	}
	return CategoryOther
}
