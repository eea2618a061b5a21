package dicomrecord

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/suyashkumar/dicom/dicomtag"
	"github.com/suyashkumar/dicom/element"
)

const ruleWidth = 80

// WriteReport renders the metadata sidecar: the key fields that are present,
// optional pixel statistics, then every element in the dataset.
func WriteReport(w io.Writer, rec *Record, stats *Stats) error {
	bw := bufio.NewWriter(w)

	heavy := strings.Repeat("=", ruleWidth)
	light := strings.Repeat("-", ruleWidth)

	fmt.Fprintln(bw, heavy)
	fmt.Fprintln(bw, "DICOM Metadata")
	fmt.Fprintln(bw, heavy)
	fmt.Fprintln(bw)

	fmt.Fprintln(bw, "Key Information:")
	fmt.Fprintln(bw, light)
	for _, field := range KeyFields {
		vals, exists := rec.Lookup(field.Tag)
		if !exists {
			continue
		}
		fmt.Fprintf(bw, "%s: %s\n", field.Name, renderValues(vals))
	}

	if stats != nil && stats.N > 0 {
		fmt.Fprintln(bw)
		fmt.Fprintln(bw, "Pixel Statistics:")
		fmt.Fprintln(bw, light)
		fmt.Fprintf(bw, "Samples: %d\n", stats.N)
		fmt.Fprintf(bw, "Min: %g\n", stats.Min)
		fmt.Fprintf(bw, "Max: %g\n", stats.Max)
		fmt.Fprintf(bw, "Mean: %.4f\n", stats.Mean)
		fmt.Fprintf(bw, "StdDev: %.4f\n", stats.StdDev)
		fmt.Fprintf(bw, "Median: %g\n", stats.Median)
	}

	fmt.Fprintln(bw)
	fmt.Fprintln(bw, heavy)
	fmt.Fprintln(bw, "Complete DICOM Header:")
	fmt.Fprintln(bw, heavy)
	fmt.Fprintln(bw)

	for _, elem := range rec.Elements {
		writeElement(bw, elem, 0)
	}

	return bw.Flush()
}

func writeElement(w io.Writer, elem *element.Element, depth int) {
	indent := strings.Repeat("  ", depth)

	name := "____"
	if tagInfo, err := dicomtag.Find(elem.Tag); err == nil && tagInfo.Name != "" {
		name = tagInfo.Name
	}

	if elem.Tag == tagItem {
		fmt.Fprintf(w, "%s%s Item\n", indent, tagString(elem.Tag))
		for _, v := range elem.Value {
			if child, ok := v.(*element.Element); ok {
				writeElement(w, child, depth+1)
			}
		}
		return
	}

	children := make([]*element.Element, 0)
	for _, v := range elem.Value {
		if child, ok := v.(*element.Element); ok {
			children = append(children, child)
		}
	}

	if len(children) > 0 {
		fmt.Fprintf(w, "%s%s %-36s %s: <sequence, %d items>\n", indent, tagString(elem.Tag), name, elem.VR, len(children))
		for _, child := range children {
			writeElement(w, child, depth+1)
		}
		return
	}

	fmt.Fprintf(w, "%s%s %-36s %s: %s\n", indent, tagString(elem.Tag), name, elem.VR, renderValues(elem.Value))
}

func tagString(t dicomtag.Tag) string {
	return fmt.Sprintf("(%04X,%04X)", t.Group, t.Element)
}

// renderValues prints a lone value as is and several values as a bracketed
// list.
func renderValues(vals []interface{}) string {
	if len(vals) == 1 {
		return valueString(vals[0])
	}

	parts := make([]string, 0, len(vals))
	for _, v := range vals {
		parts = append(parts, valueString(v))
	}

	return "[" + strings.Join(parts, ", ") + "]"
}
