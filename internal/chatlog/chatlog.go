// Package chatlog reads exported chat history in JSONL form.
package chatlog

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/cognicore/chatpulse/pkg/chatpulse/ingest"
)

// Record is one exported message line.
type Record struct {
	ID        string    `json:"id"`
	ServerID  string    `json:"server_id"`
	ChannelID string    `json:"channel_id"`
	AuthorID  string    `json:"author_id"`
	Content   string    `json:"content"`
	Reactions int       `json:"reactions"`
	Timestamp time.Time `json:"timestamp"`
	Format    string    `json:"format,omitempty"` // "html" bodies are reduced to text
}

// Message converts the record, falling back to defaultServer when the
// export omits the server id.
func (r Record) Message(defaultServer string) ingest.Message {
	content := r.Content
	if strings.EqualFold(r.Format, "html") {
		content = ingest.StripHTML(content)
	}
	server := r.ServerID
	if server == "" {
		server = defaultServer
	}
	return ingest.Message{
		ExternalID:    r.ID,
		ServerID:      server,
		ChannelID:     r.ChannelID,
		AuthorID:      r.AuthorID,
		Content:       content,
		ReactionCount: r.Reactions,
		Timestamp:     r.Timestamp,
	}
}

// LineError describes a line that could not be parsed.
type LineError struct {
	Path string
	Line int
	Err  error
}

func (e LineError) Error() string {
	return fmt.Sprintf("%s:%d: %v", e.Path, e.Line, e.Err)
}

// LoadFromJSONL loads records from a JSONL file. Malformed lines are skipped
// and reported; blank lines are ignored.
func LoadFromJSONL(path string) ([]Record, []LineError, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, fmt.Errorf("read file %s: %w", path, err)
	}

	var (
		records []Record
		skipped []LineError
	)
	lines := strings.Split(string(data), "\n")

	for i, line := range lines {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		var rec Record
		if err := json.Unmarshal([]byte(line), &rec); err != nil {
			skipped = append(skipped, LineError{Path: path, Line: i + 1, Err: err})
			continue
		}
		records = append(records, rec)
	}

	return records, skipped, nil
}

// Expand resolves glob patterns (including **) to a sorted, de-duplicated
// file list. A pattern without meta characters must name an existing file.
func Expand(patterns []string) ([]string, error) {
	seen := make(map[string]struct{})
	var out []string
	for _, pattern := range patterns {
		matches, err := doublestar.FilepathGlob(pattern)
		if err != nil {
			return nil, fmt.Errorf("expand %q: %w", pattern, err)
		}
		found := 0
		for _, m := range matches {
			if info, err := os.Stat(m); err != nil || info.IsDir() {
				continue
			}
			found++
			if _, ok := seen[m]; ok {
				continue
			}
			seen[m] = struct{}{}
			out = append(out, m)
		}
		if found == 0 {
			return nil, fmt.Errorf("no files match %q", pattern)
		}
	}
	sort.Strings(out)
	return out, nil
}
