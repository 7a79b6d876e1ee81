package main

import (
	"go/ast"
	"go/types"

	"golang.org/x/tools/go/analysis"
	"golang.org/x/tools/go/analysis/passes/inspect"
	"golang.org/x/tools/go/ast/inspector"
)

const doc = `no_fiber_query_values: prevent reading list query params through fiber.Ctx

(*fiber.Ctx).Query and (*fiber.Ctx).Queries keep only one value per key, so
title=a&title=b silently turns into title=a. Handlers feeding a query schema
must parse the raw query string instead:

	q := utils.ParseQueryString(string(c.Request().URI().QueryString()))
`

const fiberCtx = "github.com/gofiber/fiber/v2.Ctx"

var Analyzer = &analysis.Analyzer{
	Name:     "no_fiber_query_values",
	Doc:      doc,
	Requires: []*analysis.Analyzer{inspect.Analyzer},
	Run:      run,
}

var forbidden = map[string]string{
	"Query":   "(*fiber.Ctx).Query drops repeated keys; parse c.Request().URI().QueryString() with utils.ParseQueryString",
	"Queries": "(*fiber.Ctx).Queries drops repeated keys; parse c.Request().URI().QueryString() with utils.ParseQueryString",
}

func run(pass *analysis.Pass) (interface{}, error) {
	inspect := pass.ResultOf[inspect.Analyzer].(*inspector.Inspector)

	nodeFilter := []ast.Node{
		(*ast.CallExpr)(nil),
	}

	inspect.Preorder(nodeFilter, func(n ast.Node) {
		call := n.(*ast.CallExpr)

		fun, ok := call.Fun.(*ast.SelectorExpr)
		if !ok {
			return
		}
		msg, ok := forbidden[fun.Sel.Name]
		if !ok {
			return
		}
		if isFiberCtx(pass.TypesInfo.TypeOf(fun.X)) {
			pass.Reportf(call.Pos(), "%s", msg)
		}
	})

	return nil, nil
}

func isFiberCtx(t types.Type) bool {
	if t == nil {
		return false
	}
	if ptr, ok := t.(*types.Pointer); ok {
		t = ptr.Elem()
	}
	named, ok := t.(*types.Named)
	if !ok {
		return false
	}
	obj := named.Obj()
	return obj.Pkg() != nil && obj.Pkg().Path()+"."+obj.Name() == fiberCtx
}
