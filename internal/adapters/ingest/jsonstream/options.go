package jsonstream

// Option configures a Reader
type Option func(*settings)

type settings struct {
	path  []string
	label string
}

// WithPath sets the dotted collection path ("annotations", "data.items").
// An empty path means the document itself is the array
func WithPath(p string) Option {
	return func(s *settings) { s.path = splitPath(p) }
}

// WithLabel names the source in errors and logs, e.g. "annotations"
func WithLabel(label string) Option {
	return func(s *settings) { s.label = label }
}

func splitPath(p string) []string {
	var out []string
	start := 0
	for i := 0; i <= len(p); i++ {
		if i == len(p) || p[i] == '.' {
			if seg := p[start:i]; seg != "" {
				out = append(out, seg)
			}
			start = i + 1
		}
	}
	return out
}
