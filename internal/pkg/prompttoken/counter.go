package prompttoken

import (
	"fmt"

	"github.com/pkoukk/tiktoken-go"
)

const encodingName = "cl100k_base"

// Counter counts prompt tokens with a tiktoken BPE encoding. Safe for
// concurrent use.
type Counter struct {
	enc *tiktoken.Tiktoken
}

func NewCounter() (*Counter, error) {
	enc, err := tiktoken.GetEncoding(encodingName)
	if err != nil {
		return nil, fmt.Errorf("load %s encoding: %w", encodingName, err)
	}
	return &Counter{enc: enc}, nil
}

// Count returns the number of tokens in text
func (c *Counter) Count(text string) int {
	return len(c.enc.Encode(text, nil, nil))
}

// TailWithinBudget returns the longest suffix of texts whose combined token
// count stays within budget. The first element of texts is the oldest entry.
// A budget <= 0 returns texts unchanged.
func (c *Counter) TailWithinBudget(texts []string, budget int) []string {
	if budget <= 0 {
		return texts
	}
	total := 0
	start := len(texts)
	for i := len(texts) - 1; i >= 0; i-- {
		total += c.Count(texts[i])
		if total > budget {
			break
		}
		start = i
	}
	return texts[start:]
}
