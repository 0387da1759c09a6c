package configloader

import (
	"log/slog"
	"strings"
	"sync"
)

// InstructionsFile maps capability ids to instruction text.
const InstructionsFile = "instructions.yaml"

// Instruction sources, logged when an id is first resolved.
const (
	SourceFile    = "file"
	SourceYAML    = "yaml"
	SourceDefault = "default"
)

// 内置默认指令，外部文件缺失时使用。
var defaultInstructions = map[string]string{
	"general":     "You are a helpful general-purpose assistant. Answer clearly and concisely.",
	"file_search": "You answer questions using the user's local documents. Ground every claim in the provided search results and cite file paths. If nothing relevant was found, say so.",
	"web_search":  "You answer questions about current events using the provided web search results. Cite the URLs you rely on and mention when results may be stale.",
	"secondary":   "You are a creative and coding assistant. Write working code with brief explanations, and write vivid, original prose when asked for creative work.",
	"offline":     "You are a local assistant running without internet access. Answer from your own knowledge and say when a question needs live data.",
}

const genericInstructions = "You are a helpful assistant."

// Instructions resolves system instructions per capability id.
// Lookup order: <dir>/<id>.md, then the instructions.yaml entry, then a
// built-in default. Load never fails and resolves each id once.
type Instructions struct {
	loader   *Loader
	mu       sync.Mutex
	resolved map[string]string
}

func NewInstructions(loader *Loader) *Instructions {
	return &Instructions{
		loader:   loader,
		resolved: make(map[string]string),
	}
}

// Load returns the instructions for id.
func (in *Instructions) Load(id string) string {
	in.mu.Lock()
	defer in.mu.Unlock()

	if text, ok := in.resolved[id]; ok {
		return text
	}

	text, source := in.resolve(id)
	in.resolved[id] = text
	slog.Info("instructions resolved", "capability", id, "source", source)
	return text
}

// Source reports where id's instructions come from without caching.
func (in *Instructions) Source(id string) string {
	_, source := in.resolve(id)
	return source
}

func (in *Instructions) resolve(id string) (string, string) {
	if in.loader != nil {
		if data, err := in.loader.ReadFileWithFallback(id + ".md"); err == nil {
			if text := strings.TrimSpace(string(data)); text != "" {
				return text, SourceFile
			}
		}

		v, err := in.loader.LoadCached(InstructionsFile, func() any { return &map[string]string{} })
		if err == nil {
			if text := strings.TrimSpace((*v.(*map[string]string))[id]); text != "" {
				return text, SourceYAML
			}
		}
	}

	if text, ok := defaultInstructions[id]; ok {
		return text, SourceDefault
	}
	return genericInstructions, SourceDefault
}

// Reset drops resolved instructions so edited files are picked up.
func (in *Instructions) Reset() {
	in.mu.Lock()
	defer in.mu.Unlock()
	in.resolved = make(map[string]string)
	if in.loader != nil {
		in.loader.ClearCache()
	}
}
