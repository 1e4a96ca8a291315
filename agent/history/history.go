// Package history converts caller-supplied conversation turns into the
// model-facing message sequence for one run.
package history

import (
	"bytes"
	"encoding/base64"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	"image/png"
	"strings"

	"github.com/coachdesk/coachdesk/agent/contract"
)

const (
	// maxTurns bounds how much history is forwarded to the model.
	maxTurns = 24

	// fallbackMime is used when an attachment is outside the allow-list and
	// cannot be re-encoded.
	fallbackMime = "image/jpeg"
)

var allowedImageMime = map[string]struct{}{
	"image/jpeg": {},
	"image/png":  {},
	"image/gif":  {},
	"image/webp": {},
}

// Transform maps the most recent turns plus the new user prompt into
// messages. A turn is included only if it carries text or an image
// attachment. If the prompt repeats the text of the last user-attributed
// history turn it is not appended twice.
func Transform(turns []contract.Turn, prompt string) []contract.Message {
	if len(turns) > maxTurns {
		turns = turns[len(turns)-maxTurns:]
	}

	messages := make([]contract.Message, 0, len(turns)+1)
	lastUserText := ""
	for _, turn := range turns {
		msg, ok := toMessage(turn)
		if !ok {
			continue
		}
		if msg.Role == contract.RoleUser {
			lastUserText = userText(msg)
		}
		messages = append(messages, msg)
	}

	prompt = strings.TrimSpace(prompt)
	if prompt != "" && prompt != lastUserText {
		messages = append(messages, contract.Message{Role: contract.RoleUser, Text: prompt})
	}
	return messages
}

func toMessage(turn contract.Turn) (contract.Message, bool) {
	text := strings.TrimSpace(turn.Text)

	role := turn.Role
	if role != contract.RoleAssistant {
		role = contract.RoleUser
	}

	images := make([]contract.Part, 0, len(turn.Attachments))
	for _, att := range turn.Attachments {
		if len(att.Data) == 0 {
			continue
		}
		images = append(images, inlineAttachment(att))
	}

	if text == "" && len(images) == 0 {
		return contract.Message{}, false
	}

	if len(images) == 0 {
		return contract.Message{Role: role, Text: text}, true
	}

	parts := make([]contract.Part, 0, len(images)+1)
	if text != "" {
		parts = append(parts, contract.Part{Text: text})
	}
	parts = append(parts, images...)
	return contract.Message{Role: role, Parts: parts}, true
}

// inlineAttachment embeds attachment bytes as a data URL. Types outside the
// allow-list are re-encoded to PNG when the source can be decoded; otherwise
// the original bytes are forwarded under the fallback MIME type.
func inlineAttachment(att contract.Attachment) contract.Part {
	mime := strings.ToLower(strings.TrimSpace(att.MimeType))
	data := att.Data

	if _, ok := allowedImageMime[mime]; !ok {
		if reencoded, err := reencodePNG(data); err == nil {
			data = reencoded
			mime = "image/png"
		} else {
			mime = fallbackMime
		}
	}

	return contract.Part{
		ImageURL: "data:" + mime + ";base64," + base64.StdEncoding.EncodeToString(data),
	}
}

func reencodePNG(data []byte) ([]byte, error) {
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func userText(msg contract.Message) string {
	if msg.Text != "" {
		return msg.Text
	}
	// A sole text part counts as the turn's text for dedup purposes.
	if len(msg.Parts) == 1 && msg.Parts[0].Text != "" {
		return msg.Parts[0].Text
	}
	return ""
}
