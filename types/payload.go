package types

// Payload is the JSON body posted to a search endpoint.
type Payload struct {
	Query string `json:"query"`
	Limit int    `json:"limit"`
}
