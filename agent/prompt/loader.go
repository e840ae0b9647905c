package prompt

import (
	_ "embed"
	"fmt"
	"strings"

	contractx "github.com/tanpawarit/hcp-interaction-agent/agent/contract"
)

var (
	//go:embed template/classifier.txt
	classifierRaw string

	//go:embed template/extraction_system.txt
	extractionSystemRaw string

	//go:embed template/extraction.txt
	extractionRaw string

	//go:embed template/summary.txt
	summaryRaw string

	//go:embed template/next_best_action.txt
	nextBestActionRaw string
)

// PromptSet holds loaded prompt content.
type PromptSet struct {
	Classifier       string
	ExtractionSystem string
	Extraction       string
	Summary          string
	NextBestAction   string
}

// LoadPromptSet returns a PromptSet with trimmed prompt strings.
func LoadPromptSet() PromptSet {
	return PromptSet{
		Classifier:       strings.TrimSpace(classifierRaw),
		ExtractionSystem: strings.TrimSpace(extractionSystemRaw),
		Extraction:       strings.TrimSpace(extractionRaw),
		Summary:          strings.TrimSpace(summaryRaw),
		NextBestAction:   strings.TrimSpace(nextBestActionRaw),
	}
}

func (p PromptSet) Validate() error {
	prompts := map[string]string{
		"classifier":        p.Classifier,
		"extraction_system": p.ExtractionSystem,
		"extraction":        p.Extraction,
		"summary":           p.Summary,
		"next_best_action":  p.NextBestAction,
	}
	for name, body := range prompts {
		if body == "" {
			return fmt.Errorf("%w: %s", contractx.ErrPromptMissing, name)
		}
	}
	return nil
}

// ExtractionInput appends the rep's free text to the extraction instructions.
func (p PromptSet) ExtractionInput(freeText string) string {
	return p.Extraction + "\n\n" + freeText
}
