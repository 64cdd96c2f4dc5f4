package domain

// ScenarioTurn is one scripted exchange inside a scenario.
type ScenarioTurn struct {
	Prompt         string   `json:"prompt"`
	Keywords       []string `json:"keywords,omitempty"`
	Hints          []string `json:"hints"`
	SampleResponse string   `json:"sample_response"`
	GrammarFocus   string   `json:"grammar_focus"`
}

// PhrasebookEntry pairs an English phrase with its Japanese translation.
type PhrasebookEntry struct {
	English  string `json:"english"`
	Japanese string `json:"japanese"`
}

// ScenarioRecord describes one practice scenario. Records are loaded once at
// startup and never mutated afterwards.
type ScenarioRecord struct {
	ID          string            `json:"id"`
	Title       string            `json:"title"`
	Description string            `json:"description"`
	PartnerRole string            `json:"partner_role"`
	Goals       []string          `json:"goals"`
	Turns       []ScenarioTurn    `json:"turns"`
	Tips        []string          `json:"tips"`
	Phrasebook  []PhrasebookEntry `json:"phrasebook"`
}
