// Package ast defines the syntax tree for Vesna source files.
//
// Nodes are plain pointers produced once by the parser and read by the
// declaration indexer and the checker; nothing mutates a tree after parsing,
// so trees can be shared across worker goroutines without locking.
package ast

import (
	"vesna/internal/source"
)

// Node is implemented by every syntax node.
type Node interface {
	Span() source.Span
}

// File is one parsed source file.
type File struct {
	Src   *source.File
	Decls []Decl
}

func (f *File) Span() source.Span {
	if f.Src == nil {
		return source.Span{}
	}
	return source.Span{File: f.Src.ID, Start: 0, End: uint32(len(f.Src.Content))}
}

// Funcs returns the top-level functions of the file.
func (f *File) Funcs() []*FnDecl {
	var out []*FnDecl
	for _, d := range f.Decls {
		if fn, ok := d.(*FnDecl); ok {
			out = append(out, fn)
		}
	}
	return out
}

// Classes returns the class declarations of the file.
func (f *File) Classes() []*ClassDecl {
	var out []*ClassDecl
	for _, d := range f.Decls {
		if c, ok := d.(*ClassDecl); ok {
			out = append(out, c)
		}
	}
	return out
}
