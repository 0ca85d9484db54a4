// internal/escpos/codepage.go
package escpos

import (
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"
)

// Codepage pairs a single-byte character map with the command selecting it on the printer
type Codepage struct {
	Name   string
	Map    *charmap.Charmap
	Select []byte
}

// ASCIICodepage is the terminal fallback: 7-bit text, everything else becomes '?'
var ASCIICodepage = Codepage{
	Name:   "ascii",
	Select: ESC_POS_COMMANDS.SELECT_CODEPAGE_PC437,
}

var knownCodepages = map[string]Codepage{
	"cp850": {
		Name:   "cp850",
		Map:    charmap.CodePage850,
		Select: ESC_POS_COMMANDS.SELECT_CODEPAGE_PC850,
	},
	"cp858": {
		Name:   "cp858",
		Map:    charmap.CodePage858,
		Select: ESC_POS_COMMANDS.SELECT_CODEPAGE_PC858,
	},
	"iso-8859-1": {
		Name:   "iso-8859-1",
		Map:    charmap.ISO8859_1,
		Select: ESC_POS_COMMANDS.SELECT_CODEPAGE_WPC1252,
	},
	"windows-1252": {
		Name:   "windows-1252",
		Map:    charmap.Windows1252,
		Select: ESC_POS_COMMANDS.SELECT_CODEPAGE_WPC1252,
	},
}

// DefaultCodepages is the preference order used when none is configured
var DefaultCodepages = []string{"cp850", "iso-8859-1", "windows-1252"}

// LookupCodepage resolves a codepage by name, case-insensitively
func LookupCodepage(name string) (Codepage, bool) {
	cp, ok := knownCodepages[strings.ToLower(strings.TrimSpace(name))]
	return cp, ok
}

// TextEncoder transcodes strings into the byte encoding of one selected codepage.
// It is immutable after construction and safe for concurrent use.
type TextEncoder struct {
	codepage Codepage
}

// NewTextEncoder picks the first available codepage from preferred, in order.
// Unknown names are skipped; when nothing matches the encoder degrades to ASCII.
func NewTextEncoder(preferred []string) *TextEncoder {
	if len(preferred) == 0 {
		preferred = DefaultCodepages
	}
	for _, name := range preferred {
		if cp, ok := LookupCodepage(name); ok {
			return &TextEncoder{codepage: cp}
		}
	}
	return &TextEncoder{codepage: ASCIICodepage}
}

// NewTextEncoderFor builds an encoder pinned to a single codepage
func NewTextEncoderFor(cp Codepage) *TextEncoder {
	return &TextEncoder{codepage: cp}
}

// Name returns the selected codepage name
func (e *TextEncoder) Name() string {
	return e.codepage.Name
}

// Codepage returns the selected codepage
func (e *TextEncoder) Codepage() Codepage {
	return e.codepage
}

// Preamble returns the commands that select the international charset and codepage
func (e *TextEncoder) Preamble() []byte {
	out := make([]byte, 0, len(ESC_POS_COMMANDS.SELECT_CHARSET_USA)+len(e.codepage.Select))
	out = append(out, ESC_POS_COMMANDS.SELECT_CHARSET_USA...)
	return append(out, e.codepage.Select...)
}

// Encode transcodes text rune by rune. Runes the codepage cannot represent,
// and invalid UTF-8, become '?'. It never fails.
func (e *TextEncoder) Encode(text string) []byte {
	out := make([]byte, 0, len(text))
	for _, r := range text {
		switch {
		case r == utf8.RuneError:
			out = append(out, '?')
		case r < utf8.RuneSelf:
			out = append(out, byte(r))
		case e.codepage.Map != nil:
			if b, ok := e.codepage.Map.EncodeRune(r); ok {
				out = append(out, b)
			} else {
				out = append(out, '?')
			}
		default:
			out = append(out, '?')
		}
	}
	return out
}

// EncodeDocument returns the preamble followed by the encoded text
func (e *TextEncoder) EncodeDocument(text string) []byte {
	return append(e.Preamble(), e.Encode(text)...)
}
