package tui

// viewKind enumerates the closed set of screens. Dispatch over views is an
// exhaustive type switch in the model; the sealed marker keeps the set
// closed to this package.
type viewKind int

const (
	kindLogin viewKind = iota
	kindTimeline
	kindThread
	kindProfile
	kindNotifications
	kindComposer
)

func (k viewKind) String() string {
	switch k {
	case kindLogin:
		return "login"
	case kindTimeline:
		return "timeline"
	case kindThread:
		return "thread"
	case kindProfile:
		return "profile"
	case kindNotifications:
		return "notifications"
	case kindComposer:
		return "composer"
	default:
		return "unknown"
	}
}

type view interface {
	kind() viewKind
	generation() int
	sealed()
}

// viewStack holds the navigable screens; the last element is visible. It is
// never empty while the session runs: pop at depth 1 is a no-op, so ESC at
// the root does nothing.
type viewStack struct {
	views []view
}

func newViewStack(root view) *viewStack {
	return &viewStack{views: []view{root}}
}

func (s *viewStack) top() view {
	return s.views[len(s.views)-1]
}

func (s *viewStack) push(v view) {
	s.views = append(s.views, v)
}

func (s *viewStack) pop() bool {
	if len(s.views) <= 1 {
		return false
	}
	s.views[len(s.views)-1] = nil
	s.views = s.views[:len(s.views)-1]
	return true
}

func (s *viewStack) replace(v view) {
	s.views[len(s.views)-1] = v
}

// reset drops everything and installs a new root, used when the session
// expires and the login screen takes over.
func (s *viewStack) reset(root view) {
	s.views = s.views[:0]
	s.views = append(s.views, root)
}

func (s *viewStack) depth() int {
	return len(s.views)
}

// byGeneration finds the live view a completion message belongs to. A nil
// result means the view was popped or replaced and the completion is stale.
func (s *viewStack) byGeneration(gen int) view {
	for _, v := range s.views {
		if v.generation() == gen {
			return v
		}
	}
	return nil
}
