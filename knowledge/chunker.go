package knowledge

import (
	"strings"

	"github.com/memtide/memtide/config"
)

// Chunker splits document text into retrieval-sized pieces. It cuts on
// markdown headings and paragraph breaks, merges small sections up to the
// target size and hard-splits anything still over the maximum, so a chunk
// never ends mid-line.
type Chunker struct {
	targetSize int
	maxSize    int
}

func NewChunker(conf *config.KnowledgeConfig) *Chunker {
	if conf == nil {
		conf = config.NewKnowledgeConfig()
	}
	return &Chunker{
		targetSize: conf.ChunkTargetSize,
		maxSize:    conf.ChunkMaxSize,
	}
}

func (c *Chunker) Split(text string) []string {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}
	if len(text) <= c.maxSize {
		return []string{text}
	}

	var chunks []string
	for _, section := range c.merge(splitSections(text)) {
		if len(section) > c.maxSize {
			chunks = append(chunks, c.hardSplit(section)...)
		} else {
			chunks = append(chunks, section)
		}
	}
	return chunks
}

// splitSections cuts on heading lines and blank-line paragraph breaks.
func splitSections(text string) []string {
	var (
		sections []string
		current  []string
	)
	flush := func() {
		if s := strings.TrimSpace(strings.Join(current, "\n")); s != "" {
			sections = append(sections, s)
		}
		current = nil
	}

	for _, line := range strings.Split(text, "\n") {
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, "#") || trimmed == "" {
			flush()
			if trimmed == "" {
				continue
			}
		}
		current = append(current, line)
	}
	flush()

	return sections
}

// merge joins adjacent sections while the combination stays within the
// target size.
func (c *Chunker) merge(sections []string) []string {
	var (
		merged []string
		accum  string
	)
	for _, section := range sections {
		if accum == "" {
			accum = section
			continue
		}
		if combined := accum + "\n\n" + section; len(combined) <= c.targetSize {
			accum = combined
		} else {
			merged = append(merged, accum)
			accum = section
		}
	}
	if accum != "" {
		merged = append(merged, accum)
	}
	return merged
}

// hardSplit breaks an oversized section on line boundaries. A single line
// longer than the target becomes its own chunk rather than being cut.
func (c *Chunker) hardSplit(text string) []string {
	var (
		chunks  []string
		current []string
		size    int
	)
	for _, line := range strings.Split(text, "\n") {
		if size+len(line) > c.targetSize && len(current) > 0 {
			if s := strings.TrimSpace(strings.Join(current, "\n")); s != "" {
				chunks = append(chunks, s)
			}
			current, size = nil, 0
		}
		current = append(current, line)
		size += len(line) + 1
	}
	if s := strings.TrimSpace(strings.Join(current, "\n")); s != "" {
		chunks = append(chunks, s)
	}
	return chunks
}
