// Package browsertest contains the browser-facing test API and the Gherkin
// step definitions built on it.
//
// The central type is AppWorld, which corresponds to one scenario's view of
// the application under test: a browser session plus the server address the
// scenario was given. Navigating through AppWorld installs a console-capture
// script into the page, so scenarios and benchmarks can assert on exactly
// what the application logged.
//
// Console log matching is deliberately strict: an expectation only matches if
// the captured sequence is structurally equal to the expected sequence, in
// order, with nothing extra. Extra, missing, or reordered entries keep the
// poll running until its deadline. Loosening this to a contains-style match
// would change what existing feature files assert.
package browsertest
