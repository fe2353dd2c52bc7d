package extract

import (
	"fmt"
	"strings"
	"testing"
)

// resultPageHTML builds a snapshot whose result container holds the given
// number of segment rows, nested the way the live page lays them out.
func resultPageHTML(segments int) string {
	var rows strings.Builder
	for i := 1; i <= segments; i++ {
		fmt.Fprintf(&rows, "<div>segment %d</div>", i)
	}
	return `<html><body>
		<div>
			<div>header</div>
			<div>
				<div>
					<div>
						<div>form</div>
						<div>
							<div>tabs</div>
							<div>notice</div>
							<div>` + rows.String() + `</div>
						</div>
					</div>
				</div>
			</div>
		</div>
	</body></html>`
}

func TestSegmentCountFromHTML(t *testing.T) {
	testCases := []struct {
		name string
		html string
		want int
	}{
		{name: "single segment", html: resultPageHTML(1), want: 1},
		{name: "multi segment", html: resultPageHTML(3), want: 3},
		{name: "empty container", html: resultPageHTML(0), want: 0},
		{name: "no container", html: "<html><body><div>error page</div></body></html>", want: 0},
		{name: "empty document", html: "", want: 0},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			if got := SegmentCountFromHTML(tc.html); got != tc.want {
				t.Errorf("SegmentCountFromHTML = %d, want %d", got, tc.want)
			}
		})
	}
}
