package il

import (
	"io"
	"strconv"
	"strings"

	"github.com/thiremani/corvid/types"
)

// printer names nodes by discovery order so that dumps of equal graphs are
// identical regardless of uids.
type printer struct {
	labels map[*Label]int
	params map[*Parameter]int
}

// Dump renders every label reachable from entry in textual IL notation.
func Dump(entry *Label) string {
	var sb strings.Builder
	Fprint(&sb, entry)
	return sb.String()
}

func Fprint(w io.Writer, entry *Label) {
	labels := Reachable(entry)
	p := &printer{
		labels: make(map[*Label]int, len(labels)),
		params: make(map[*Parameter]int),
	}
	for i, l := range labels {
		p.labels[l] = i
	}
	for _, l := range labels {
		io.WriteString(w, p.label(l))
		io.WriteString(w, "\n")
	}
}

func (p *printer) label(l *Label) string {
	var sb strings.Builder
	sb.WriteString("(label ")
	sb.WriteString(p.labelName(l))
	sb.WriteString(" (")
	for i, param := range l.Params {
		if i > 0 {
			sb.WriteString(" ")
		}
		sb.WriteString(p.paramName(param))
		if param.Type != types.Any {
			sb.WriteString(":")
			sb.WriteString(param.Type.String())
		}
	}
	sb.WriteString(")")
	if !l.body.IsEmpty() {
		sb.WriteString("\n  (")
		sb.WriteString(p.operand(l.body.Enter))
		for _, a := range l.body.Args {
			sb.WriteString(" ")
			sb.WriteString(p.operand(a))
		}
		sb.WriteString(")")
	}
	sb.WriteString(")")
	return sb.String()
}

func (p *printer) labelName(l *Label) string {
	name := l.Name
	if name == "" {
		name = "L"
	}
	if i, ok := p.labels[l]; ok {
		return name + "#" + strconv.Itoa(i)
	}
	return l.String()
}

func (p *printer) paramName(param *Parameter) string {
	name := param.Name
	if name == "" {
		id, ok := p.params[param]
		if !ok {
			id = len(p.params)
			p.params[param] = id
		}
		name = "%" + strconv.Itoa(id)
	}
	if param.Vararg {
		name += "..."
	}
	return name
}

func (p *printer) operand(v Any) string {
	switch d := v.Data.(type) {
	case *Label:
		return p.labelName(d)
	case *Parameter:
		return p.paramName(d)
	}
	return v.String()
}
