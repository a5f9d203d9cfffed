package driven

// PromptStore provides access to generation prompt templates.
// Implementations may load prompts from files or embed them in the binary.
type PromptStore interface {
	// Load returns the prompt template for the given name.
	Load(name string) (string, error)

	// Reload clears any cached prompts, forcing fresh loads on next access.
	Reload()
}

// Well-known prompt names used by the digest pipeline.
// All are system prompts with no format placeholders.
const (
	// PromptStructure is the system prompt for the structure pass.
	PromptStructure = "structure_system"

	// PromptExtraction is the system prompt for proposition extraction.
	PromptExtraction = "extraction_system"

	// PromptSynthesis is the system prompt for takeaway synthesis.
	PromptSynthesis = "synthesis_system"
)
