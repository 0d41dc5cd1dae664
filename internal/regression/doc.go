// Package regression executes notebooks and compares the executed document
// with its input.
//
// A Checker produces a Result holding the raw structural diff, the diff with
// volatile paths filtered out, a rendered diff string and the executed
// notebook. Execution itself is delegated to an Executor; the default runs
// `jupyter nbconvert --execute`, and any timeout policy lives there.
package regression
