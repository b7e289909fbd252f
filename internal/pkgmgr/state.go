package pkgmgr

// State is a Manager's position in the cache lifecycle.
type State int

const (
	Uncached State = iota
	Installing
	Cached
	Updating
	Failed
)

func (s State) String() string {
	switch s {
	case Uncached:
		return "uncached"
	case Installing:
		return "installing"
	case Cached:
		return "cached"
	case Updating:
		return "updating"
	case Failed:
		return "failed"
	default:
		return "unknown"
	}
}
