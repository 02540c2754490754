package usecases

// Router picks the output channel for a successful output. It is resolved
// once per run, before the first record.
type Router interface {
	Channel(format string) int
}

// FixedRouter sends every output to channel 0.
type FixedRouter struct{}

func (FixedRouter) Channel(string) int { return 0 }

// FormatRouter sends a format to the channel matching the position of its
// first occurrence in the requested list. Positions beyond the channel count
// fall back to channel 0.
type FormatRouter struct {
	channels map[string]int
}

func NewFormatRouter(formats []string, channelCount int) FormatRouter {
	r := FormatRouter{channels: make(map[string]int, len(formats))}
	for i, f := range formats {
		if _, seen := r.channels[f]; seen {
			continue
		}
		if i < channelCount {
			r.channels[f] = i
		} else {
			r.channels[f] = 0
		}
	}
	return r
}

func (r FormatRouter) Channel(format string) int {
	return r.channels[format]
}

func newRouter(opts RunOptions) Router {
	if opts.RouteByFormat {
		return NewFormatRouter(opts.Formats, opts.ChannelCount)
	}
	return FixedRouter{}
}
