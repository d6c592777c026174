package bot

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// stripMention removes every "@username" occurrence from text and reports
// whether the bot was mentioned at all. Matching is case-insensitive, as
// Telegram usernames are, and compares against the original bytes: lowering
// the whole message first would shift byte offsets for runes like 'İ' whose
// lowercase form has a different length.
func stripMention(text, username string) (string, bool) {
	if username == "" {
		return strings.TrimSpace(text), false
	}

	mentioned := false
	var b strings.Builder
	for i := 0; i < len(text); {
		if text[i] == '@' && matchesUsername(text[i+1:], username) {
			mentioned = true
			i += 1 + len(username)
			continue
		}
		b.WriteByte(text[i])
		i++
	}
	return strings.TrimSpace(b.String()), mentioned
}

// matchesUsername reports whether rest starts with username followed by a
// non-username rune, so "@beer_botler" is not a mention of "beer_bot".
// Telegram usernames are ASCII, so byte offsets into rest are rune-safe.
func matchesUsername(rest, username string) bool {
	if len(rest) < len(username) {
		return false
	}
	if !strings.EqualFold(rest[:len(username)], username) {
		return false
	}
	next, _ := utf8.DecodeRuneInString(rest[len(username):])
	return !isUsernameRune(next)
}

func isUsernameRune(r rune) bool {
	return r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r)
}

// isCommand reports whether the message is a bot command. Telegram routes
// unknown commands to the plain text handler too, and the sommelier must not
// treat them as questions.
func isCommand(text string) bool {
	return strings.HasPrefix(text, "/")
}

// parseToggle interprets a /barhopping argument. It accepts English and
// Russian forms; anything else is not a toggle and the handler reports the
// current state instead.
func parseToggle(arg string) (on, ok bool) {
	switch strings.ToLower(strings.TrimSpace(arg)) {
	case "on", "вкл":
		return true, true
	case "off", "выкл":
		return false, true
	}
	return false, false
}
