package mergerequest

import "strings"

// FormatTitle builds the merge request title: each ticket id in brackets, in
// the order given, then the target branch in brackets, a space and the plain
// title. FormatTitle("test MR", "uat", []string{"ES-123", "ES-234"}) returns
// "[ES-123][ES-234][uat] test MR".
func FormatTitle(plainTitle, targetBranch string, ticketIDs []string) string {
	var b strings.Builder
	for _, id := range ticketIDs {
		b.WriteString("[")
		b.WriteString(id)
		b.WriteString("]")
	}
	b.WriteString("[")
	b.WriteString(targetBranch)
	b.WriteString("] ")
	b.WriteString(plainTitle)
	return b.String()
}
