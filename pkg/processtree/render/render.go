package render

import (
	"fmt"
	"io"
	"slices"
	"strings"

	"github.com/aquilax/truncate"
	mapset "github.com/deckarep/golang-set/v2"
	"github.com/kubescape/pgtree/pkg/processtree/builder"
	"github.com/kubescape/pgtree/pkg/processtree/store"
)

const (
	rootPrefix = " "
	pidWidth   = 5
	omission   = "…"
)

// Options controls one rendering pass.
type Options struct {
	// ChildrenOnly hides the ancestors of the targets.
	ChildrenOnly bool
	// Fields are the extra columns printed between the command and its arguments.
	Fields []string
	// MaxArgsWidth truncates the arguments column when positive.
	MaxArgsWidth int
}

// Result is the outcome of a rendering pass.
type Result struct {
	// Lines is the number of processes written.
	Lines int
	// Selected holds every target and descendant of a target that was
	// visited, the last visited first.
	Selected []string
}

// Renderer writes a forest as an indented tree, one process per line.
type Renderer struct {
	theme Theme
	out   io.Writer
}

// NewRenderer creates a renderer writing to out.
func NewRenderer(theme Theme, out io.Writer) *Renderer {
	return &Renderer{
		theme: theme,
		out:   out,
	}
}

type frame struct {
	pid     string
	prefix  string
	printIt bool
	inScope bool
	last    bool
}

// Render walks the forest depth first from its roots. Each pid is visited at
// most once, so corrupted parent links cannot make the walk loop.
func (r *Renderer) Render(s *store.Store, f *builder.Forest, opts Options) (Result, error) {
	var result Result
	if f == nil || f.Empty() {
		return result, nil
	}

	visited := mapset.NewThreadUnsafeSet[string]()
	stack := make([]frame, 0, len(f.Roots))
	stack = pushChildren(stack, f.Roots, rootPrefix, !opts.ChildrenOnly, false)

	for len(stack) > 0 {
		fr := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		if !visited.Add(fr.pid) {
			continue
		}

		printIt, inScope := fr.printIt, fr.inScope
		linePrefix := fr.prefix
		if f.IsTarget(fr.pid) {
			printIt, inScope = true, true
			linePrefix = r.theme.Selected + dropFirstRune(fr.prefix)
		}

		var next string
		if rec, ok := s.Record(fr.pid); ok && printIt {
			var branch string
			switch {
			case fr.prefix == rootPrefix:
				branch, next = rootPrefix, rootPrefix
			case fr.last:
				branch, next = r.theme.LastChild, "  "
			default:
				branch, next = r.theme.Child, r.theme.NotChild
			}
			if _, err := fmt.Fprintln(r.out, linePrefix+branch+r.formatRecord(rec, opts)); err != nil {
				return result, fmt.Errorf("write process %s: %w", fr.pid, err)
			}
			result.Lines++
			if inScope {
				result.Selected = append(result.Selected, fr.pid)
			}
		}

		stack = pushChildren(stack, f.ChildrenOf(fr.pid), fr.prefix+next, printIt, inScope)
	}

	slices.Reverse(result.Selected)
	return result, nil
}

// pushChildren stacks pids so that the first one is popped first.
func pushChildren(stack []frame, pids []string, prefix string, printIt, inScope bool) []frame {
	for i := len(pids) - 1; i >= 0; i-- {
		stack = append(stack, frame{
			pid:     pids[i],
			prefix:  prefix,
			printIt: printIt,
			inScope: inScope,
			last:    i == len(pids)-1,
		})
	}
	return stack
}

func (r *Renderer) formatRecord(rec *store.ProcessRecord, opts Options) string {
	var b strings.Builder
	b.WriteString(r.theme.Colorize(FieldPid, fmt.Sprintf("%-*s", pidWidth, rec.Pid)))
	b.WriteString(r.theme.Colorize(FieldUser, " ("+rec.User+") "))
	b.WriteString(r.theme.Colorize(FieldComm, "["+rec.Comm+"] "))
	for _, name := range opts.Fields {
		b.WriteString(r.theme.Colorize(FieldExtra, rec.Field(name)+" "))
	}
	args := rec.Args
	if opts.MaxArgsWidth > 0 {
		args = truncate.Truncate(args, opts.MaxArgsWidth, omission, truncate.PositionEnd)
	}
	b.WriteString(args)
	return b.String()
}

func dropFirstRune(s string) string {
	for i := range s {
		if i > 0 {
			return s[i:]
		}
	}
	return ""
}
