package typ

import (
	"errors"
	"fmt"
	"strings"
)

// ErrMismatch — базовая ошибка несовместимости типов; unify оборачивает её
// контекстом. Проверять через errors.Is.
var ErrMismatch = errors.New("type mismatch")

// ErrNotDenotable means the type has no written annotation form.
var ErrNotDenotable = errors.New("type not denotable in annotation syntax")

// Print renders t in annotation syntax. Types that cannot be written down
// (Var, ThisDep, Unknown, bare null, table templates) return ErrNotDenotable;
// a candidate that fails to print simply produces no suggestion.
func Print(t Type) (string, error) {
	var sb strings.Builder
	if err := printTo(&sb, t); err != nil {
		return "", err
	}
	return sb.String(), nil
}

func printTo(sb *strings.Builder, t Type) error {
	switch x := t.(type) {
	case *Prim:
		if x.Kind == PNull {
			return fmt.Errorf("%w: null", ErrNotDenotable)
		}
		sb.WriteString(x.String())
		return nil
	case *Class:
		sb.WriteString(x.Name)
		if len(x.Args) == 0 {
			return nil
		}
		sb.WriteByte('<')
		for i, a := range x.Args {
			if i > 0 {
				sb.WriteString(", ")
			}
			if err := printTo(sb, a); err != nil {
				return err
			}
		}
		sb.WriteByte('>')
		return nil
	case *Nullable:
		sb.WriteByte('?')
		return printTo(sb, x.Elem)
	case *Async:
		sb.WriteString("Async<")
		if err := printTo(sb, x.Elem); err != nil {
			return err
		}
		sb.WriteByte('>')
		return nil
	case *Var:
		return fmt.Errorf("%w: unresolved %s", ErrNotDenotable, x)
	case *ThisDep:
		return fmt.Errorf("%w: %s", ErrNotDenotable, x)
	case *Unknown:
		return fmt.Errorf("%w: unknown", ErrNotDenotable)
	case *ParamRef:
		return fmt.Errorf("%w: template %s", ErrNotDenotable, x)
	default:
		return fmt.Errorf("%w: %T", ErrNotDenotable, t)
	}
}
