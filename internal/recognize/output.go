package recognize

import (
	"fmt"
	"strings"
)

// MarkedText renders the output with a header line before every segment:
//
//	--- segment 2/5 [1900,3900) ---
//
// Segments that kept no text still get a header, so a reader can see where
// each segment's contribution starts and ends.
func (o *Output) MarkedText() string {
	var b strings.Builder
	total := len(o.Segments)
	for i, st := range o.Segments {
		if i > 0 {
			b.WriteByte('\n')
		}
		fmt.Fprintf(&b, "--- segment %d/%d [%d,%d) ---", i+1, total, st.Segment.Top, st.Segment.Bottom)
		if st.Text != "" {
			b.WriteByte('\n')
			b.WriteString(st.Text)
		}
	}
	return b.String()
}

// Render returns MarkedText when markers is set and Text otherwise.
func (o *Output) Render(markers bool) string {
	if markers {
		return o.MarkedText()
	}
	return o.Text
}
