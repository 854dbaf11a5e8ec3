// Package testkit holds structural invariant checks shared by parser tests
// and fuzz harnesses.
package testkit

import (
	"fmt"

	"fortio.org/safecast"

	"vesna/internal/ast"
	"vesna/internal/source"
)

// CheckSpanInvariants runs a minimal set of span invariants on a parsed file:
// 1) every declaration span is non-empty and within file content bounds
// 2) name spans sit inside their declaration span
// 3) params, members and methods sit inside their owner's span
func CheckSpanInvariants(f *ast.File) error {
	if f == nil || f.Src == nil {
		return fmt.Errorf("nil file")
	}

	limit, err := safecast.Conv[uint32](len(f.Src.Content))
	if err != nil {
		return fmt.Errorf("len content overflow: %w", err)
	}

	for _, d := range f.Decls {
		sp := d.Span()
		if sp.Empty() {
			return fmt.Errorf("%s: empty decl span %v", d.DeclName(), sp)
		}
		if sp.File != f.Src.ID {
			return fmt.Errorf("%s: span file mismatch: got=%d want=%d", d.DeclName(), sp.File, f.Src.ID)
		}
		if sp.End > limit {
			return fmt.Errorf("%s: decl span %v beyond content (%d bytes)", d.DeclName(), sp, limit)
		}

		switch d := d.(type) {
		case *ast.FnDecl:
			if err := checkFn(d, sp); err != nil {
				return err
			}
		case *ast.ClassDecl:
			if err := within(d.NameSpan, sp, d.Name+" name"); err != nil {
				return err
			}
			for _, m := range d.Members {
				if err := within(m.Span(), sp, d.Name+"."+m.Name); err != nil {
					return err
				}
			}
			for _, m := range d.Methods {
				msp := m.Span()
				if err := within(msp, sp, d.Name+"."+m.Name); err != nil {
					return err
				}
				if err := checkFn(m, msp); err != nil {
					return err
				}
			}
		}
	}
	return nil
}

// checkFn verifies the name and parameter spans of one function or method.
func checkFn(fn *ast.FnDecl, sp source.Span) error {
	if err := within(fn.NameSpan, sp, fn.Name+" name"); err != nil {
		return err
	}
	for _, p := range fn.Params {
		if p.NameSpan.Empty() {
			return fmt.Errorf("%s: empty span for param %s", fn.Name, p.Name)
		}
		if err := within(p.Span(), sp, fn.Name+" param "+p.Name); err != nil {
			return err
		}
	}
	if fn.RetOff > sp.End {
		return fmt.Errorf("%s: return annotation offset %d beyond span %v", fn.Name, fn.RetOff, sp)
	}
	return nil
}

// within reports an error when inner is not fully contained in outer.
func within(inner, outer source.Span, what string) error {
	if inner.Start < outer.Start || inner.End > outer.End {
		return fmt.Errorf("%s: span %v escapes %v", what, inner, outer)
	}
	return nil
}
