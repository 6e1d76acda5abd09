package emoji

// isEmojiRune reports whether a rune belongs to an emoji-bearing Unicode
// block. The ranges cover arrows, time symbols, miscellaneous symbols,
// dingbats, and everything from U+1F000 up.
func isEmojiRune(r rune) bool {
	switch {
	case r >= 0x2190 && r <= 0x21FF: // Arrows
		return true
	case r >= 0x23E9 && r <= 0x23FF: // Time symbols
		return true
	case r >= 0x2600 && r <= 0x26FF: // Miscellaneous Symbols
		return true
	case r >= 0x2700 && r <= 0x27BF: // Dingbats
		return true
	case r >= 0x2B00 && r <= 0x2BFF: // Miscellaneous Symbols and Arrows
		return true
	}
	return r >= 0x1F000
}

// isEmojiGrapheme reports whether a grapheme cluster renders as an emoji.
// Keycap sequences like 1️⃣ start with a plain digit, so the combining
// enclosing keycap (U+20E3) is checked first. Multi-rune clusters (flags,
// skin tones, ZWJ sequences) are judged by their first rune.
func isEmojiGrapheme(runes []rune) bool {
	if len(runes) == 0 {
		return false
	}
	for _, r := range runes {
		if r == 0x20E3 {
			return true
		}
	}
	return isEmojiRune(runes[0])
}
