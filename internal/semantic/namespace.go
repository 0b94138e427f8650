package semantic

import (
	"regexp"
	"strings"
)

// GlobalNamespace is the name of the namespace outside any declaration.
const GlobalNamespace = `\`

var unresolvedNames = map[string]bool{
	"self": true, "static": true, "parent": true, "$this": true,
	"array": true, "string": true, "int": true, "integer": true,
	"bool": true, "boolean": true, "float": true, "double": true,
	"mixed": true, "void": true, "callable": true, "iterable": true,
	"object": true, "resource": true, "null": true, "false": true,
	"true": true, "never": true,
}

var identifierName = regexp.MustCompile(`^\\?[\pL_][\pL\pN_]*(\\[\pL_][\pL\pN_]*)*$`)

// namespaceScope tracks the namespace being scanned and the aliases
// imported into it with use.
type namespaceScope struct {
	current string
	// aliases maps a lowercased alias to a fully qualified name.
	aliases map[string]string
}

func (n *namespaceScope) reset() {
	n.current = GlobalNamespace
	n.aliases = nil
}

// enter switches to the given namespace and forgets earlier aliases.
func (n *namespaceScope) enter(name string) {
	n.current = fullyQualify(name)
	n.aliases = nil
}

// use records an import. The alias defaults to the last segment.
func (n *namespaceScope) use(name, alias string) (fullName, effectiveAlias string) {
	fullName = fullyQualify(name)
	if alias == "" {
		alias = lastSegment(fullName)
	}
	if n.aliases == nil {
		n.aliases = make(map[string]string)
	}
	n.aliases[strings.ToLower(alias)] = fullName
	return fullName, alias
}

// resolveClass resolves a class, interface or trait reference.
func (n *namespaceScope) resolveClass(name string) string {
	if name == "" || unresolvedNames[strings.ToLower(name)] || !identifierName.MatchString(name) {
		return name
	}
	if strings.HasPrefix(name, NamespaceSeparator) {
		return name
	}
	first, rest, qualified := strings.Cut(name, NamespaceSeparator)
	if qualified && strings.EqualFold(first, "namespace") {
		return n.join(rest)
	}
	if target, ok := n.aliases[strings.ToLower(first)]; ok {
		if qualified {
			return target + NamespaceSeparator + rest
		}
		return target
	}
	if n.current == GlobalNamespace {
		return name
	}
	return n.join(name)
}

// resolveFunction resolves a function name. Unqualified names are left
// alone since PHP falls back to the global function at run time.
func (n *namespaceScope) resolveFunction(name string) string {
	if !strings.Contains(name, NamespaceSeparator) {
		return name
	}
	if strings.HasPrefix(name, NamespaceSeparator) {
		return name
	}
	first, rest, _ := strings.Cut(name, NamespaceSeparator)
	if strings.EqualFold(first, "namespace") {
		return n.join(rest)
	}
	if target, ok := n.aliases[strings.ToLower(first)]; ok {
		return target + NamespaceSeparator + rest
	}
	return n.join(name)
}

func (n *namespaceScope) join(name string) string {
	if n.current == GlobalNamespace {
		return NamespaceSeparator + name
	}
	return n.current + NamespaceSeparator + name
}

func fullyQualify(name string) string {
	if name == "" {
		return GlobalNamespace
	}
	if strings.HasPrefix(name, NamespaceSeparator) {
		return name
	}
	return NamespaceSeparator + name
}

func lastSegment(name string) string {
	if i := strings.LastIndex(name, NamespaceSeparator); i >= 0 {
		return name[i+1:]
	}
	return name
}
