package registry

// Entry is an immutable catalog record.
type Entry struct {
	Slug           string `json:"slug"`
	WebSlug        string `json:"webSlug,omitempty"`
	Name           string `json:"name"`
	Domain         string `json:"domain"`
	Description    string `json:"description"`
	LlmsTxtURL     string `json:"llmsTxtUrl"`
	LlmsFullTxtURL string `json:"llmsFullTxtUrl,omitempty"`
	Category       string `json:"category"`
}

// HasFull reports whether the entry publishes an extended llms-full.txt.
func (e Entry) HasFull() bool {
	return e.LlmsFullTxtURL != ""
}

// Primary categories, in display order.
const (
	CategoryFramework = "framework"
	CategoryLibrary   = "library"
	CategoryLanguage  = "language"
	CategoryRuntime   = "runtime"
	CategoryDatabase  = "database"
	CategoryCloud     = "cloud"
	CategoryAI        = "ai"
	CategoryTooling   = "tooling"
	CategoryTesting   = "testing"
	CategoryOther     = "other"
)

// Categories is the fixed primary-category set.
var Categories = []string{
	CategoryFramework,
	CategoryLibrary,
	CategoryLanguage,
	CategoryRuntime,
	CategoryDatabase,
	CategoryCloud,
	CategoryAI,
	CategoryTooling,
	CategoryTesting,
	CategoryOther,
}

// IsCategory reports whether c is one of the primary categories.
func IsCategory(c string) bool {
	for _, known := range Categories {
		if c == known {
			return true
		}
	}
	return false
}

// Source identifies which tier served the loaded entries.
type Source string

const (
	SourceNone    Source = ""
	SourceCache   Source = "cache"
	SourceRemote  Source = "remote"
	SourceBundled Source = "bundled"
	SourceStatic  Source = "static"
)
