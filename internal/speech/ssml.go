package speech

import (
	"bytes"
	"encoding/xml"
)

// BuildSSML wraps text in the single-voice SSML document sent to the engine.
// Voice and text are XML-escaped so reply text cannot inject markup.
func BuildSSML(voice, text string) string {
	var b bytes.Buffer
	b.WriteString("<speak version='1.0' xmlns='http://www.w3.org/2001/10/synthesis' xml:lang='en-US'><voice name='")
	_ = xml.EscapeText(&b, []byte(voice))
	b.WriteString("'>")
	_ = xml.EscapeText(&b, []byte(text))
	b.WriteString("</voice></speak>")
	return b.String()
}
