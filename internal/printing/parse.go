package printing

import (
	"strings"

	"github.com/alecthomas/participle/v2"
	"github.com/alecthomas/participle/v2/lexer"
)

var (
	spoolLexer = lexer.MustSimple([]lexer.SimpleRule{
		{Name: "Whitespace", Pattern: `[ \t\r]+`},
		{Name: "Punct", Pattern: `[:()]`},
		{Name: "Word", Pattern: `[^\s:()]+`},
	})

	statusParser = participle.MustBuild[statusLine](
		participle.Lexer(spoolLexer),
		participle.Elide("Whitespace"),
	)

	replyParser = participle.MustBuild[lpReply](
		participle.Lexer(spoolLexer),
		participle.Elide("Whitespace"),
	)
)

// statusLine is one top-level line of `lpstat -p -d`.
type statusLine struct {
	Printer *printerLine `parser:"  'printer' @@"`
	Default *string      `parser:"| 'system' 'default' 'destination' ':' @Word"`
}

// printerLine is the part after "printer", e.g.
// "HP_LaserJet is idle.  enabled since ..." or
// "Canon now printing Canon-12.  enabled since ...".
type printerLine struct {
	Name   string   `parser:"@Word"`
	Status []string `parser:"@(Word | Punct)*"`
}

// lpReply is the first line `lp` prints on success:
// "request id is HP_LaserJet-42 (1 file(s))".
type lpReply struct {
	JobID string   `parser:"'request' 'id' 'is' @Word"`
	Rest  []string `parser:"@(Word | Punct)*"`
}

// parseStatus extracts printers and the default destination from lpstat
// output. Continuation lines (indented) and unrecognized lines are ignored.
func parseStatus(out string) []Printer {
	var printers []Printer
	var def string
	for _, line := range strings.Split(out, "\n") {
		if line == "" || line[0] == ' ' || line[0] == '\t' {
			continue
		}
		st, err := statusParser.ParseString("", line)
		if err != nil {
			continue
		}
		switch {
		case st.Default != nil:
			def = *st.Default
		case st.Printer != nil:
			printers = append(printers, Printer{
				Name:        st.Printer.Name,
				Description: describe(line, st.Printer.Name),
				State:       stateOf(st.Printer.Status),
			})
		}
	}
	for i := range printers {
		printers[i].IsDefault = printers[i].Name == def
	}
	return printers
}

// describe returns the text after " is ", or name when there is none.
func describe(line, name string) string {
	if _, rest, ok := strings.Cut(line, " is "); ok && strings.TrimSpace(rest) != "" {
		return strings.TrimSpace(rest)
	}
	return name
}

func stateOf(status []string) PrinterState {
	for i, w := range status {
		switch strings.ToLower(strings.TrimRight(w, ".,")) {
		case "idle":
			return StateIdle
		case "processing":
			return StateProcessing
		case "printing":
			if i > 0 && status[i-1] == "now" {
				return StateProcessing
			}
		case "stopped", "disabled":
			return StateStopped
		}
	}
	return StateUnknown
}

// parseJobID finds the request id in lp output.
func parseJobID(out string) (string, bool) {
	for _, line := range strings.Split(out, "\n") {
		reply, err := replyParser.ParseString("", strings.TrimSpace(line))
		if err == nil {
			return reply.JobID, true
		}
	}
	return "", false
}
