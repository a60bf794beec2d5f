package compression

import (
	"fmt"
	"strings"

	"mercator-hq/ganymede/pkg/config"
)

// charsPerToken is the fixed characters-per-token ratio used for token
// estimation. It is a coarse approximation, not a real tokenizer; changing
// it changes observable compression and retry behavior.
const charsPerToken = 4

// truncateTokensPerMessage converts the token budget into a message count
// for the truncate strategy: the retained suffix holds maxTokens/100
// messages, independent of actual message sizes.
const truncateTokensPerMessage = 100

// summaryLabel prefixes the synthetic system message produced by the
// summarize strategy.
const summaryLabel = "Summary of earlier conversation: "

// tailMessages is the number of trailing messages the summarize strategy
// keeps verbatim.
const tailMessages = 3

// EstimateTokens estimates the token count of a message history as the sum
// of each message's content length divided by the characters-per-token
// ratio, truncated per message.
func EstimateTokens(messages []Message) int {
	total := 0
	for _, m := range messages {
		total += len(m.Content) / charsPerToken
	}
	return total
}

// Compressor shrinks conversation histories according to a configured
// strategy and token budget. It is stateless and safe for concurrent use.
type Compressor struct {
	cfg config.CompressionConfig
}

// NewCompressor creates a compressor from compression configuration.
// SummaryThreshold is expected to be at most MaxTokens; this is the
// caller's responsibility and is not enforced here.
func NewCompressor(cfg config.CompressionConfig) *Compressor {
	return &Compressor{cfg: cfg}
}

// Compress applies the configured strategy to the history. Input already
// within the token budget passes through unchanged. The result's token
// estimate is always recomputed from the output message set, never copied
// from the pre-compression estimate.
func (c *Compressor) Compress(messages []Message) (*Compressed, error) {
	estimate := EstimateTokens(messages)
	if estimate <= c.cfg.MaxTokens {
		return &Compressed{
			Original:        messages,
			Messages:        messages,
			EstimatedTokens: estimate,
		}, nil
	}

	var (
		out     []Message
		summary string
	)

	switch c.cfg.Strategy {
	case config.CompressionTruncate:
		out = c.truncate(messages)
	case config.CompressionSummarize:
		out, summary = c.summarize(messages)
	case config.CompressionHybrid:
		if estimate > c.cfg.SummaryThreshold {
			out, summary = c.summarize(messages)
		} else {
			out = c.truncate(messages)
		}
	default:
		return nil, fmt.Errorf("unknown compression strategy %q", c.cfg.Strategy)
	}

	return &Compressed{
		Original:        messages,
		Messages:        out,
		Summary:         summary,
		EstimatedTokens: EstimateTokens(out),
	}, nil
}

// truncate keeps only the last maxTokens/100 messages. The retained
// sequence is a suffix of the input and may drop a leading system message.
func (c *Compressor) truncate(messages []Message) []Message {
	keep := c.cfg.MaxTokens / truncateTokensPerMessage
	if keep >= len(messages) {
		return messages
	}
	return messages[len(messages)-keep:]
}

// summarize collapses the middle of the conversation into one synthetic
// system message. A leading system message is kept first; the last three
// messages are kept verbatim; everything in between is concatenated into
// the summary. Histories too short to have a middle pass through unchanged.
func (c *Compressor) summarize(messages []Message) ([]Message, string) {
	if len(messages) <= tailMessages+1 {
		return messages, ""
	}

	old := messages[1 : len(messages)-tailMessages]

	parts := make([]string, len(old))
	for i, m := range old {
		parts[i] = m.Content
	}
	summary := summaryLabel + strings.Join(parts, " ")

	out := make([]Message, 0, tailMessages+2)
	if messages[0].Role == RoleSystem {
		out = append(out, messages[0])
	}
	out = append(out, Message{
		Role:    RoleSystem,
		Content: summary,
		Kind:    KindSystem,
	})
	out = append(out, messages[len(messages)-tailMessages:]...)

	return out, summary
}
