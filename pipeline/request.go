package pipeline

// Pipeline runs every loaded configuration over the request text and sends
// one JSON document, keyed by configuration name, on the returned channel.
type Pipeline func(request Request) <-chan string

type Request struct {
	Text string `json:"text"`
	Tid  string `json:"tid"`
}

type Result struct {
	ConfigName string
	Data       interface{}
}
