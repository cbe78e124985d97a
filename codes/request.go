package codes

// Request carries the context of one step to the model. Code and Error are set for repairs.
type Request struct {
	Step      string
	Objective string
	Metadata  string
	Hints     string
	Code      string
	Error     string
}
