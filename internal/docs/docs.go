// Package docs embeds the markdown guides printed by `folio guide`.
package docs

import (
	"embed"
	"io/fs"
	"path"
	"sort"
	"strings"
)

//go:embed content/*.md
var contentFS embed.FS

type Topic struct {
	Name  string `json:"name"`
	Title string `json:"title"`
}

// Topics lists the embedded guides sorted by name. Title is the first
// markdown heading of each guide.
func Topics() []Topic {
	entries, err := fs.Glob(contentFS, "content/*.md")
	if err != nil {
		return []Topic{}
	}
	topics := make([]Topic, 0, len(entries))
	for _, p := range entries {
		name := strings.TrimSuffix(path.Base(p), path.Ext(p))
		if name == "" {
			continue
		}
		body, _ := contentFS.ReadFile(p)
		topics = append(topics, Topic{Name: name, Title: title(string(body))})
	}
	sort.Slice(topics, func(i, j int) bool { return topics[i].Name < topics[j].Name })
	return topics
}

func Get(topic string) (string, bool) {
	topic = strings.ToLower(strings.TrimSpace(topic))
	if topic == "" || strings.ContainsAny(topic, `/\`) {
		return "", false
	}
	b, err := contentFS.ReadFile(path.Join("content", topic+".md"))
	if err != nil {
		return "", false
	}
	return string(b), true
}

func title(body string) string {
	for _, line := range strings.Split(body, "\n") {
		if t, ok := strings.CutPrefix(strings.TrimSpace(line), "# "); ok {
			return strings.TrimSpace(t)
		}
	}
	return ""
}
