package il

// Frame is a runtime activation binding one label's arguments.
type Frame struct {
	UID    uint64
	Parent *Frame
	Label  *Label
	Args   []Any
}

// NewFrame returns a child of parent for an activation of label. If label
// is already active somewhere up the chain, the new frame replaces that
// activation: its parent becomes the ancestor's parent. A chain therefore
// never holds the same label twice.
func NewFrame(parent *Frame, label *Label, args []Any) *Frame {
	for f := parent; f != nil; f = f.Parent {
		if f.Label == label {
			parent = f.Parent
			break
		}
	}
	return &Frame{
		UID:    nextUID(),
		Parent: parent,
		Label:  label,
		Args:   append([]Any(nil), args...),
	}
}

// Lookup resolves p against the chain. A vararg parameter yields every
// argument from its index on; any other parameter yields one value, None
// when the call supplied too few arguments.
func (f *Frame) Lookup(p *Parameter) ([]Any, bool) {
	for ; f != nil; f = f.Parent {
		if f.Label != p.label {
			continue
		}
		if p.Vararg {
			if p.Index >= len(f.Args) {
				return nil, true
			}
			return f.Args[p.Index:], true
		}
		if p.Index < len(f.Args) {
			return f.Args[p.Index : p.Index+1], true
		}
		return []Any{None}, true
	}
	return nil, false
}

// Depth is the number of frames in the chain.
func (f *Frame) Depth() int {
	n := 0
	for ; f != nil; f = f.Parent {
		n++
	}
	return n
}

// Count returns how many frames in the chain activate label.
func (f *Frame) Count(label *Label) int {
	n := 0
	for ; f != nil; f = f.Parent {
		if f.Label == label {
			n++
		}
	}
	return n
}

// Closure pairs a label with the frame it closes over.
type Closure struct {
	UID   uint64
	Label *Label
	Frame *Frame
}

func NewClosure(label *Label, frame *Frame) *Closure {
	return &Closure{UID: nextUID(), Label: label, Frame: frame}
}
