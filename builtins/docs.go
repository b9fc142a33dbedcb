package builtins

// FuncSpec documents a helper.
type FuncSpec struct {
	Name    string
	Doc     string
	Args    []string
	Returns string
	Example string
}

// Docs returns documentation for the default helpers.
func Docs() []FuncSpec {
	return helperDocs
}

var helperDocs = []FuncSpec{
	{
		Name:    "abs",
		Doc:     "Return the absolute value of a number",
		Args:    []string{"value"},
		Returns: "int|float",
		Example: "{{ delta|abs }}",
	},
	{
		Name:    "capitalize",
		Doc:     "Upper-case the first character",
		Args:    []string{"value"},
		Returns: "string",
		Example: "{{ name|capitalize }}",
	},
	{
		Name:    "cycle",
		Doc:     "Cycle through the given values",
		Args:    []string{"values"},
		Returns: "cycler",
		Example: "{% assign rows = cycle(['odd', 'even']) %}{{ rows.next() }}",
	},
	{
		Name:    "default",
		Doc:     "Return a fallback when the value is null, false or empty",
		Args:    []string{"value", "fallback?"},
		Returns: "any",
		Example: "{{ title|default('Untitled') }}",
	},
	{
		Name:    "dump",
		Doc:     "Render a value as indented JSON for debugging",
		Args:    []string{"value"},
		Returns: "string",
		Example: "<pre>{{ user|dump }}</pre>",
	},
	{
		Name:    "escape",
		Doc:     "Escape HTML special characters (alias: esc)",
		Args:    []string{"value", "double_encode?"},
		Returns: "string",
		Example: "{{ html|escape }}",
	},
	{
		Name:    "first",
		Doc:     "Return the first character or entry",
		Args:    []string{"value", "fallback?"},
		Returns: "any",
		Example: "{{ items|first }}",
	},
	{
		Name:    "format",
		Doc:     "Format arguments according to a format string",
		Args:    []string{"format", "args..."},
		Returns: "string",
		Example: "{{ '%s has %d items'|format(name, count) }}",
	},
	{
		Name:    "isDivisibleBy",
		Doc:     "Check whether a number is divisible by another",
		Args:    []string{"value", "divisor"},
		Returns: "bool",
		Example: "{% if loop.index|isDivisibleBy(3) %}",
	},
	{
		Name:    "isEmpty",
		Doc:     "Check whether a value is null, an empty string or an empty container",
		Args:    []string{"value"},
		Returns: "bool",
		Example: "{% if items|isEmpty %}",
	},
	{
		Name:    "isEven",
		Doc:     "Check whether a number, or the length of a value, is even",
		Args:    []string{"value"},
		Returns: "bool",
		Example: "{% if loop.index|isEven %}",
	},
	{
		Name:    "isIterable",
		Doc:     "Check whether a value can be iterated",
		Args:    []string{"value"},
		Returns: "bool",
		Example: "{% if items|isIterable %}",
	},
	{
		Name:    "isOdd",
		Doc:     "Check whether a number, or the length of a value, is odd",
		Args:    []string{"value"},
		Returns: "bool",
		Example: "{% if loop.index|isOdd %}",
	},
	{
		Name:    "join",
		Doc:     "Join the entries of a container with a separator",
		Args:    []string{"values", "separator?"},
		Returns: "string",
		Example: "{{ tags|join(', ') }}",
	},
	{
		Name:    "jsonEncode",
		Doc:     "Encode a value as JSON",
		Args:    []string{"value"},
		Returns: "string",
		Example: "{! config|jsonEncode !}",
	},
	{
		Name:    "keys",
		Doc:     "Return the keys of a container",
		Args:    []string{"value"},
		Returns: "list",
		Example: "{{ settings|keys|join(', ') }}",
	},
	{
		Name:    "last",
		Doc:     "Return the last character or entry",
		Args:    []string{"value", "fallback?"},
		Returns: "any",
		Example: "{{ items|last }}",
	},
	{
		Name:    "length",
		Doc:     "Return the number of characters or entries",
		Args:    []string{"value"},
		Returns: "int",
		Example: "{{ items|length }}",
	},
	{
		Name:    "lower",
		Doc:     "Convert to lowercase",
		Args:    []string{"value"},
		Returns: "string",
		Example: "{{ name|lower }}",
	},
	{
		Name:    "nl2br",
		Doc:     "Insert line break tags before newlines",
		Args:    []string{"value", "xhtml?"},
		Returns: "string",
		Example: "{{ body|nl2br }}",
	},
	{
		Name:    "range",
		Doc:     "Return the inclusive sequence between two numbers",
		Args:    []string{"lower", "upper", "step?"},
		Returns: "range",
		Example: "{% for i in range(1, 10, 2) %}",
	},
	{
		Name:    "repeat",
		Doc:     "Repeat a string, twice by default",
		Args:    []string{"value", "times?"},
		Returns: "string",
		Example: "{{ '-'|repeat(20) }}",
	},
	{
		Name:    "replace",
		Doc:     "Replace occurrences of strings or regular expressions",
		Args:    []string{"value", "search", "replacement?", "regex?"},
		Returns: "string",
		Example: "{{ title|replace('/\\s+/', '-', true) }}",
	},
	{
		Name:    "title",
		Doc:     "Upper-case the first character of each word",
		Args:    []string{"value"},
		Returns: "string",
		Example: "{{ heading|title }}",
	},
	{
		Name:    "trim",
		Doc:     "Strip characters, whitespace by default, from both ends",
		Args:    []string{"value", "characters?"},
		Returns: "string",
		Example: "{{ input|trim }}",
	},
	{
		Name:    "truncate",
		Doc:     "Shorten a string to a display width and mark the cut",
		Args:    []string{"value", "limit?", "continuation?"},
		Returns: "string",
		Example: "{{ summary|truncate(80) }}",
	},
	{
		Name:    "unescape",
		Doc:     "Convert HTML entities back to characters",
		Args:    []string{"value"},
		Returns: "string",
		Example: "{{ encoded|unescape }}",
	},
	{
		Name:    "upper",
		Doc:     "Convert to uppercase",
		Args:    []string{"value"},
		Returns: "string",
		Example: "{{ name|upper }}",
	},
	{
		Name:    "urlEncode",
		Doc:     "Encode a string for use in a URL query",
		Args:    []string{"value"},
		Returns: "string",
		Example: "<a href=\"/search?q={{ query|urlEncode }}\">",
	},
}
