// Package rxcore is a PCRE-compatible regular expression front end: it
// parses a pattern into an AST, rewrites UTF-8 range literals for a
// UTF-16 matcher, and emits linear backtracking-VM bytecode. It does not
// execute that bytecode — compiling a pattern here produces a
// *writer.Program (this repo's RegexCode) for a separate, out-of-scope
// matching engine to run.
//
// The pipeline is strictly one-directional: raw pattern -> preprocessed
// pattern + options -> AST -> transformed AST -> Program. Compile chains
// every stage; callers who need an intermediate result (the AST before
// transformation, say) call parser.Parse and transform.Apply directly.
package rxcore
