package llm

import (
	"context"
	"fmt"
	"strings"

	"github.com/akolanti/StudyRAG/internal/domain/commonModels"
)

type AnswerType string

const (
	AnswerShort  AnswerType = "short"
	AnswerMedium AnswerType = "medium"
	AnswerLong   AnswerType = "long"
)

// ParseAnswerType maps anything unknown (including "") to AnswerLong.
func ParseAnswerType(s string) AnswerType {
	switch AnswerType(strings.ToLower(strings.TrimSpace(s))) {
	case AnswerShort:
		return AnswerShort
	case AnswerMedium:
		return AnswerMedium
	default:
		return AnswerLong
	}
}

func (a AnswerType) Instruction() string {
	switch a {
	case AnswerShort:
		return "Answer briefly in 2-mark exam format."
	case AnswerMedium:
		return "Answer clearly in 5-mark exam format with headings."
	default:
		return "Answer in detailed 13-mark exam format with headings and subheadings."
	}
}

// Provider generates an answer grounded only in contexts. Callers never pass
// an empty contexts slice.
type Provider interface {
	Generate(ctx context.Context, question string, contexts []commonModels.RetrievalResult, answerType AnswerType) (string, error)
}

const systemPrompt = `You are a university exam answer generator.

IMPORTANT RULES:
- Use ONLY the given context
- Do NOT use your own knowledge
- Do NOT say "context not available"
- Do NOT refuse to answer
- Write in clear academic language`

func SystemPrompt() string {
	return systemPrompt
}

// BuildPrompt numbers the context passages in retrieval order.
func BuildPrompt(question string, contexts []commonModels.RetrievalResult, answerType AnswerType) string {
	var sb strings.Builder
	sb.WriteString("Context:\n")
	for i, c := range contexts {
		if i > 0 {
			sb.WriteString("\n\n")
		}
		fmt.Fprintf(&sb, "%d. %s", i+1, c.Text)
	}
	fmt.Fprintf(&sb, "\n\nQuestion:\n%s\n\nInstruction:\n%s\n", question, answerType.Instruction())
	return sb.String()
}
