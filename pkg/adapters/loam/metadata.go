package loam

// StateMetadata is the frontmatter (or JSON/YAML body) of a state document.
// It uses "mapstructure" tags to match the keys Loam decodes into typed documents.
type StateMetadata struct {
	ID          string            `json:"id" mapstructure:"id"`
	Initial     bool              `json:"initial" mapstructure:"initial"`
	Order       int               `json:"order" mapstructure:"order"`
	Transitions map[string]string `json:"transitions" mapstructure:"transitions"`
}
