package similarity

import "strings"

var soundexClass = [26]byte{
	'0', '1', '2', '3', '0', '1', '2', // a b c d e f g
	'h', '0', '2', '2', '4', '5', '5', // h i j k l m n
	'0', '1', '2', '6', '2', '3', '0', // o p q r s t u
	'1', 'h', '2', '0', '2', // v w x y z
}

// PhoneticCode returns the four character sound code of word.
// Letters outside a-z are ignored; a word without letters has no code.
func PhoneticCode(word string) string {
	letters := make([]byte, 0, len(word))
	for _, r := range strings.ToLower(word) {
		if r >= 'a' && r <= 'z' {
			letters = append(letters, byte(r))
		}
	}
	if len(letters) == 0 {
		return ""
	}

	code := []byte{letters[0] - 'a' + 'A'}
	last := soundexClass[letters[0]-'a']
	for _, l := range letters[1:] {
		class := soundexClass[l-'a']
		switch class {
		case 'h':
			// h and w neither code nor separate letters of the same class
			continue
		case '0':
			last = '0'
			continue
		}
		if class != last {
			code = append(code, class)
			if len(code) == 4 {
				break
			}
		}
		last = class
	}

	for len(code) < 4 {
		code = append(code, '0')
	}
	return string(code[:4])
}

// PhoneticMatch reports whether a and b share a non-empty sound code
func PhoneticMatch(a, b string) bool {
	ca := PhoneticCode(a)
	return ca != "" && ca == PhoneticCode(b)
}

// PhoneticMatchAny reports whether any word of query sounds like any word of text
func PhoneticMatchAny(query, text string) bool {
	textCodes := make(map[string]struct{})
	for _, w := range Words(text) {
		if c := PhoneticCode(w); c != "" {
			textCodes[c] = struct{}{}
		}
	}
	if len(textCodes) == 0 {
		return false
	}
	for _, w := range Words(query) {
		if _, ok := textCodes[PhoneticCode(w)]; ok {
			return true
		}
	}
	return false
}

// Words splits s on anything that is not a letter or digit
func Words(s string) []string {
	return strings.FieldsFunc(s, func(r rune) bool {
		return !(r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z' || r >= '0' && r <= '9')
	})
}
