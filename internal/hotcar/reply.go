package hotcar

import (
	"fmt"
	"strings"
)

// Reply renders the acknowledgement posted in response to a validated
// report, crediting the reporter. Returns "" for candidates that should
// not be acknowledged.
func (e *Extractor) Reply(handle string, c Candidate) string {
	if len(c.Cars) != 1 {
		return ""
	}
	if _, ok := e.carRanges[c.Cars[0][:1]]; !ok {
		return ""
	}

	car := c.Cars[0]
	authority := strings.ToLower(e.authority)
	if color := c.Color(); color != "NONE" {
		title := strings.ToUpper(color[:1]) + strings.ToLower(color[1:])
		return fmt.Sprintf("@%s %s line car %s is a #%s #hotcar HT @%s", authority, title, car, authority, handle)
	}
	return fmt.Sprintf("@%s Car %s is a #%s #hotcar HT @%s", authority, car, authority, handle)
}
