// Package steppy runs jobs: ordered lists of named steps that share a context,
// thread their outputs forward to later steps and record caveats when a remote
// resource already existed.
//
// A job is strictly linear. Steps run one at a time in declaration order and the
// first failing step aborts the job. Steps that produce a value are declared with
// Produce and a typed Key; pure side-effect steps are declared with Effect and
// never add an entry to the outputs.
package steppy
