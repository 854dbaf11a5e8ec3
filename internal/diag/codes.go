package diag

import (
	"fmt"
)

// Code identifies a diagnostic category.
type Code uint16

const (
	// UnknownCode — на первое время, для нераспределённых диагностик.
	UnknownCode Code = 0

	// Лексические
	LexUnknownChar        Code = 1001
	LexUnterminatedString Code = 1002
	LexBadNumber          Code = 1003

	// Синтаксические
	SynUnexpectedToken  Code = 2001
	SynExpectIdentifier Code = 2002
	SynExpectType       Code = 2003
	SynUnclosedDelim    Code = 2004
	SynExpectSemicolon  Code = 2005
	SynDuplicateDecl    Code = 2006

	// Проверка типов (только вне режима записи наблюдений)
	TypUnknownName     Code = 3001
	TypUnknownMember   Code = 3002
	TypArityMismatch   Code = 3003
	TypNotAwaitable    Code = 3004
	TypUnknownTypeName Code = 3005
	TypNotCallable     Code = 3006

	// I/O и индекс деклараций
	IOLoadFileError Code = 7001
	IdxStaleDecl    Code = 7002
	IdxCacheError   Code = 7003

	// Наблюдаемость
	ObsTimings Code = 7100
)

func (c Code) String() string {
	return fmt.Sprintf("VES%04d", uint16(c))
}
