package neoseed

// Reporter receives the human-readable progress of a Loader run. Step is
// called before an operation starts and exactly one of Done or Failed after
// it finishes.
type Reporter interface {
	Section(title string)
	Step(msg string)
	Done(msg string)
	Failed(msg string, err error)
	Row(format string, args ...any)
}

// NopReporter discards everything.
type NopReporter struct{}

func (NopReporter) Section(string) {}
func (NopReporter) Step(string) {}
func (NopReporter) Done(string) {}
func (NopReporter) Failed(string, error) {}
func (NopReporter) Row(string, ...any) {}
