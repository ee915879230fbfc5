package clip

// headlessBackend stands in when no clipboard can be reached. Reads are empty
// and writes fail with ErrUnavailable.
type headlessBackend struct{}

func (headlessBackend) Name() string           { return "headless (no clipboard)" }
func (headlessBackend) ReadText() string       { return "" }
func (headlessBackend) WriteText(string) error { return ErrUnavailable }
