package nodegl

import (
	"bufio"
	"fmt"
	"io"
	"strings"
)

// Dot returns the graph rooted at n in Graphviz DOT format.
func (n *Node) Dot() string {
	var sb strings.Builder
	if err := WriteDot(&sb, n); err != nil {
		return ""
	}
	return sb.String()
}

// WriteDot writes the graph rooted at root in Graphviz DOT format. Shared
// nodes appear once. Lists flagged as packed are drawn as a single record
// listing their elements; the elements themselves are not expanded.
func WriteDot(w io.Writer, root *Node) error {
	bw := bufio.NewWriter(w)
	fmt.Fprintln(bw, "digraph nodegl {")
	fmt.Fprintln(bw, "    node [shape=box style=rounded fontname=monospace]")
	if root != nil && !root.destroyed {
		seen := make(map[*Node]bool)
		writeDotNode(bw, root, seen)
	}
	fmt.Fprintln(bw, "}")
	return bw.Flush()
}

func dotID(n *Node) string {
	return fmt.Sprintf("%s_%d", n.class.name, n.id)
}

var (
	dotEscaper    = strings.NewReplacer(`\`, `\\`, `"`, `\"`)
	recordEscaper = strings.NewReplacer(`\`, `\\`, `"`, `\"`, "{", `\{`, "}", `\}`, "|", `\|`, "<", `\<`, ">", `\>`)
)

func dotEscape(s string) string { return dotEscaper.Replace(s) }

// recordEscape also escapes the characters that structure record labels.
func recordEscape(s string) string { return recordEscaper.Replace(s) }

func writeDotNode(w io.Writer, n *Node, seen map[*Node]bool) {
	if seen[n] {
		return
	}
	seen[n] = true

	label := []string{dotEscape(n.class.name)}
	if n.name != n.class.name {
		label = append(label, dotEscape(n.name))
	}
	for i := range n.class.params {
		par := &n.class.params[i]
		if par.Type == ParamNode || par.Type == ParamNodeList {
			continue
		}
		label = append(label, dotEscape(par.Key+": "+formatParam(n.priv, par)))
	}
	fmt.Fprintf(w, "    %s [label=\"%s\"]\n", dotID(n), strings.Join(label, `\n`))

	for i := range n.class.params {
		par := &n.class.params[i]
		switch p := par.field(n.priv).(type) {
		case **Node:
			if *p != nil {
				writeDotEdge(w, n, par, dotID(*p))
				writeDotNode(w, *p, seen)
			}
		case *[]*Node:
			if len(*p) == 0 {
				continue
			}
			if par.Flags&FlagDotDisplayPacked != 0 {
				writeDotPacked(w, n, par, *p)
				continue
			}
			for _, child := range *p {
				writeDotEdge(w, n, par, dotID(child))
				writeDotNode(w, child, seen)
			}
		}
	}
}

func writeDotEdge(w io.Writer, from *Node, par *Param, to string) {
	if par.Flags&FlagDotDisplayFieldName != 0 {
		fmt.Fprintf(w, "    %s -> %s [label=\"%s\"]\n", dotID(from), to, dotEscape(par.Key))
		return
	}
	fmt.Fprintf(w, "    %s -> %s\n", dotID(from), to)
}

func writeDotPacked(w io.Writer, from *Node, par *Param, list []*Node) {
	id := fmt.Sprintf("%s_%s", dotID(from), par.Key)
	fields := make([]string, len(list))
	for i, child := range list {
		fields[i] = recordEscape(dotSummary(child))
	}
	fmt.Fprintf(w, "    %s [shape=record label=\"%s|{%s}\"]\n", id, recordEscape(par.Key), strings.Join(fields, "|"))
	writeDotEdge(w, from, par, id)
}

// dotSummary renders a packed element on one line.
func dotSummary(n *Node) string {
	if n.priv == nil {
		return n.name
	}
	if kf, ok := n.priv.(*animKeyFrame); ok {
		value := findParam(n.class.params, "value")
		return fmt.Sprintf("%g: %s %s", kf.time, formatParam(n.priv, value), kf.easing)
	}
	parts := make([]string, 0, len(n.class.params))
	for i := range n.class.params {
		par := &n.class.params[i]
		if par.Type == ParamNode || par.Type == ParamNodeList {
			continue
		}
		parts = append(parts, formatParam(n.priv, par))
	}
	return n.name + " " + strings.Join(parts, " ")
}
