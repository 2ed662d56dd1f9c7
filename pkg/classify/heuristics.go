package classify

import "unicode"

// actionVerbs are prefixes that mark a variable as function-like when
// followed by an uppercase letter, or when the name is the verb itself.
var actionVerbs = []string{
	"set", "get", "update", "delete", "create", "fetch", "load",
	"toggle", "increment", "decrement", "dispatch", "navigate",
	"logout", "login", "submit", "register", "reset", "clear",
}

// IsFunctionLikeName reports whether a variable name strongly suggests a
// callable action by naming convention.
//
// Matches: "on"/"handle" followed by an uppercase letter, or an action verb
// followed by an uppercase letter, or an exact action-verb match.
func IsFunctionLikeName(name string) bool {
	if hasCamelPrefix(name, "on") || hasCamelPrefix(name, "handle") {
		return true
	}
	for _, verb := range actionVerbs {
		if name == verb || hasCamelPrefix(name, verb) {
			return true
		}
	}
	return false
}

// hasCamelPrefix reports whether name starts with prefix followed by an
// uppercase letter.
func hasCamelPrefix(name, prefix string) bool {
	if len(name) <= len(prefix) {
		return false
	}
	if name[:len(prefix)] != prefix {
		return false
	}
	return unicode.IsUpper(rune(name[len(prefix)]))
}
