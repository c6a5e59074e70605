package narrator

import (
	"regexp"
	"strings"
)

var hashtagRe = regexp.MustCompile(`#([\p{L}\p{N}_]+)`)

// replacements are applied in order.
var replacements = [][2]string{
	{"```", ""},
	{"***", "*"},
	{"**", "*"},
	{"___", "_"},
	{"__", "_"},
}

// Sanitize normalises model output for Telegram's legacy Markdown parser.
func Sanitize(text string) string {
	text = hashtagRe.ReplaceAllStringFunc(text, func(tag string) string {
		return "#" + strings.ReplaceAll(tag[1:], "_", `\_`)
	})
	for _, r := range replacements {
		text = strings.ReplaceAll(text, r[0], r[1])
	}
	for i := 0; i < 9; i++ {
		text = strings.ReplaceAll(text, "  ", " ")
	}
	text = strings.ReplaceAll(text, "<mark>", "_")
	text = strings.ReplaceAll(text, "</mark>", "_")
	return strings.TrimSpace(text)
}

// hashtag turns a label into a single escaped hashtag word.
func hashtag(label string) string {
	label = strings.NewReplacer("/", "", " ", `\_`).Replace(label)
	return "#" + label
}
