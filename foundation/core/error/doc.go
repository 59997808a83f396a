// Package error provides structured error handling for the mBASIC services.
//
// Package: error
// Title: mBASIC Error Handling Framework
// Description: Structured errors with codes, severities and details for
//              infrastructure failures. Source diagnostics produced by the
//              lexer and parser are plain data (package basic/diag) and are
//              not represented with this type.
// Author: msto63
// Version: v0.2.0
// Created: 2025-01-24
// Modified: 2026-10-19
//
// Change History:
// - 2025-01-24 v0.1.0: Initial implementation with contextual errors and codes
// - 2026-10-19 v0.2.0: Reduced to the codes used by the front-end services
//
// Usage:
//
//	import mdwerror "github.com/msto63/mbasic/foundation/core/error"
//
//	err := mdwerror.Wrap(ioErr, "failed to read source file").
//		WithCode(mdwerror.CodeIOError).
//		WithDetail("path", path)
//
//	if mdwerror.HasCode(err, mdwerror.CodeNotFound) {
//		// ...
//	}
//
//	w.WriteHeader(mdwerror.GetCode(err).HTTPStatus())
package error
