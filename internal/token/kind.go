package token

// Kind represents the category of a source token.
type Kind uint8

const (
	// Invalid indicates an erroneous token.
	Invalid Kind = iota
	// EOF marks the end of the source input.
	EOF

	// Ident represents an identifier token.
	Ident

	// KwFn represents the 'fn' keyword.
	KwFn // fn
	// KwClass represents the 'class' keyword.
	KwClass // class
	// KwElem represents the 'elem' keyword.
	KwElem // elem
	// KwExtends represents the 'extends' keyword.
	KwExtends // extends
	// KwLet represents the 'let' keyword.
	KwLet // let
	// KwReturn represents the 'return' keyword.
	KwReturn // return
	// KwNew represents the 'new' keyword.
	KwNew // new
	// KwAwait represents the 'await' keyword.
	KwAwait // await
	// KwThis represents the 'this' keyword.
	KwThis // this
	// KwNull represents the 'null' literal keyword.
	KwNull // null
	// KwTrue represents the 'true' literal keyword.
	KwTrue // true
	// KwFalse represents the 'false' literal keyword.
	KwFalse // false

	// IntLit represents an integer literal token.
	IntLit
	// FloatLit represents a float literal token.
	FloatLit
	// StringLit represents a string literal token.
	StringLit

	// LParen represents '('.
	LParen // (
	// RParen represents ')'.
	RParen // )
	// LBrace represents '{'.
	LBrace // {
	// RBrace represents '}'.
	RBrace // }
	// Lt represents '<'.
	Lt // <
	// Gt represents '>'.
	Gt // >
	// Comma represents ','.
	Comma // ,
	// Dot represents '.'.
	Dot // .
	// Semicolon represents ';'.
	Semicolon // ;
	// Colon represents ':'.
	Colon // :
	// Question represents '?'.
	Question // ?
	// Assign represents '='.
	Assign // =
)

var kindNames = [...]string{
	Invalid:   "invalid",
	EOF:       "eof",
	Ident:     "ident",
	KwFn:      "fn",
	KwClass:   "class",
	KwElem:    "elem",
	KwExtends: "extends",
	KwLet:     "let",
	KwReturn:  "return",
	KwNew:     "new",
	KwAwait:   "await",
	KwThis:    "this",
	KwNull:    "null",
	KwTrue:    "true",
	KwFalse:   "false",
	IntLit:    "int",
	FloatLit:  "float",
	StringLit: "string",
	LParen:    "(",
	RParen:    ")",
	LBrace:    "{",
	RBrace:    "}",
	Lt:        "<",
	Gt:        ">",
	Comma:     ",",
	Dot:       ".",
	Semicolon: ";",
	Colon:     ":",
	Question:  "?",
	Assign:    "=",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) && kindNames[k] != "" {
		return kindNames[k]
	}
	return "unknown"
}
