package issuegraph

import (
	"fmt"
	"io"
	"strconv"
	"strings"
)

var dotEscaper = strings.NewReplacer(`\`, `\\`, `"`, `\"`, "\n", `\n`)

func quote(s string) string {
	return `"` + dotEscaper.Replace(s) + `"`
}

// dotWriter keeps the first write error so the serializer can stay linear.
type dotWriter struct {
	w   io.Writer
	err error
}

func (d *dotWriter) line(depth int, format string, args ...any) {
	if d.err != nil {
		return
	}
	_, d.err = fmt.Fprintf(d.w, "%s%s\n", strings.Repeat("  ", depth), fmt.Sprintf(format, args...))
}

type attr struct {
	key, value string
}

func attrList(attrs []attr) string {
	parts := make([]string, 0, len(attrs))
	for _, a := range attrs {
		parts = append(parts, a.key+"="+quote(a.value))
	}
	return strings.Join(parts, "; ")
}

func nodeAttrs(a Attributes) []attr {
	attrs := []attr{{"label", a.Label}}
	if a.Shape != "" {
		attrs = append(attrs, attr{"shape", a.Shape})
	}
	if a.Fill != "" {
		attrs = append(attrs, attr{"style", "filled"}, attr{"fillcolor", a.Fill})
	}
	if a.Border != "" {
		attrs = append(attrs, attr{"color", a.Border})
	}
	if a.PenWidth > 0 {
		attrs = append(attrs, attr{"penwidth", strconv.Itoa(a.PenWidth)})
	}
	attrs = append(attrs, attr{"peripheries", strconv.Itoa(a.Peripheries)})
	if a.URL != "" {
		attrs = append(attrs, attr{"URL", a.URL})
	}
	return append(attrs, attr{"tooltip", a.Tooltip})
}

func nodeName(id int) string {
	return "n_" + strconv.Itoa(id)
}

// WriteDOT serializes g as a Graphviz digraph.
func WriteDOT(w io.Writer, g *Graph) error {
	d := &dotWriter{w: w}
	d.line(0, "digraph %s {", quote(g.Name))
	d.line(1, `node[shape="rect"];`)
	for _, c := range g.Clusters {
		writeCluster(d, 1, c)
	}
	for _, e := range g.Edges {
		var attrs []attr
		if e.Color != "" {
			attrs = append(attrs, attr{"color", e.Color})
		}
		if e.NoConstraint {
			attrs = append(attrs, attr{"constraint", "false"})
		}
		if len(attrs) == 0 {
			d.line(1, "%s -> %s;", nodeName(e.From), nodeName(e.To))
			continue
		}
		d.line(1, "%s -> %s [%s];", nodeName(e.From), nodeName(e.To), attrList(attrs))
	}
	d.line(0, "}")
	return d.err
}

func writeCluster(d *dotWriter, depth int, c *Cluster) {
	d.line(depth, "subgraph cluster_%d {", c.ID)
	if c.Fill != "" {
		d.line(depth+1, `style="filled";`)
		d.line(depth+1, "fillcolor=%s;", quote(c.Fill))
	}
	d.line(depth+1, "label=%s;", quote(c.Label))
	if c.FontSize > 0 {
		d.line(depth+1, `fontsize="%d";`, c.FontSize)
	}
	for _, child := range c.Children {
		writeCluster(d, depth+1, child)
	}
	for _, n := range c.Nodes {
		d.line(depth+1, "%s [%s];", nodeName(n.ID), attrList(nodeAttrs(n.Attrs)))
	}
	d.line(depth, "}")
}
