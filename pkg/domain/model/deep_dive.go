package model

// DeepDive is an ephemeral research expansion of an Insight. It is never persisted.
type DeepDive struct {
	Analysis string           `json:"analysis"`
	Sources  []DeepDiveSource `json:"sources"`
}

// DeepDiveSource is a citation returned by grounded research
type DeepDiveSource struct {
	Title string `json:"title"`
	URI   string `json:"uri"`
}
