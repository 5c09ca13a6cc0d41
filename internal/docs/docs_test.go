package docs

import (
	"strings"
	"testing"
)

func TestTopics_HaveTitles(t *testing.T) {
	topics := Topics()
	if len(topics) == 0 {
		t.Fatalf("expected embedded topics")
	}
	for i, tp := range topics {
		if tp.Title == "" {
			t.Fatalf("topic %q has no heading", tp.Name)
		}
		if i > 0 && topics[i-1].Name > tp.Name {
			t.Fatalf("topics not sorted: %q before %q", topics[i-1].Name, tp.Name)
		}
	}
}

func TestGet(t *testing.T) {
	body, ok := Get(" Cache ")
	if !ok || !strings.Contains(body, "ROOT_QUERY") {
		t.Fatalf("expected cache guide; ok=%v", ok)
	}
	for _, bad := range []string{"", "missing", "../docs"} {
		if _, ok := Get(bad); ok {
			t.Fatalf("expected %q to be unknown", bad)
		}
	}
}
