package chat

import (
	"strings"

	"github.com/helixir/arxivchat/internal/domain"
)

// Section headers embedded in every prompt. Cleanup looks for the first two
// to detect a reply that echoed the prompt back.
const (
	HeaderContext      = "**Research Paper Context:**"
	HeaderInstructions = "**Instructions for high-quality responses:**"
	HeaderQuestion     = "**User Question**"
	HeaderGuidelines   = "**Response Guidelines:**"
	HeaderResponse     = "**Your comprehensive response:**"
)

const promptPreamble = "You are a research assistant with broad scientific expertise. " +
	"Answer questions about the research paper below, grounding your answer in the paper " +
	"and adding what you know about the surrounding field."

var instructionLines = []string{
	"1. **Go deep**: explain the reasoning and details, do not just restate the abstract",
	"2. **Draw on the field**: connect the paper's content with what you know about its research area",
	"3. **Teach**: make difficult ideas approachable for a motivated reader",
	"4. **Format with Markdown**: use **bold**, *italics*, bullet points and numbered lists where they help",
	"5. **Stay on topic**: only answer questions about this paper or its research area",
	"6. **Give context**: place the work within related research",
}

var guidelineLines = []string{
	"- Questions about content, method or implications: answer in detail",
	"- Requests to explain a concept: tie the explanation back to this paper",
	"- Questions unrelated to research: politely steer the user back to the paper",
	"- Format the answer with Markdown",
	"- Cite concrete examples and related work when useful",
}

// BuildPrompt renders the single user message sent to the language model for
// a question about paper.
func BuildPrompt(paper *domain.Paper, message string) string {
	var b strings.Builder

	b.WriteString(promptPreamble)
	b.WriteString("\n\n")

	b.WriteString(HeaderContext)
	b.WriteString("\n- **Title**: ")
	b.WriteString(paper.Title)
	b.WriteString("\n- **Authors**: ")
	b.WriteString(paper.AuthorList())
	b.WriteString("\n- **Categories**: ")
	b.WriteString(paper.CategoryList())
	b.WriteString("\n- **Abstract**: ")
	b.WriteString(paper.Abstract)
	b.WriteString("\n\n")

	b.WriteString(HeaderInstructions)
	b.WriteString("\n")
	b.WriteString(strings.Join(instructionLines, "\n"))
	b.WriteString("\n\n")

	b.WriteString(HeaderQuestion)
	b.WriteString(": ")
	b.WriteString(message)
	b.WriteString("\n\n")

	b.WriteString(HeaderGuidelines)
	b.WriteString("\n")
	b.WriteString(strings.Join(guidelineLines, "\n"))
	b.WriteString("\n\n")

	b.WriteString(HeaderResponse)
	return b.String()
}
