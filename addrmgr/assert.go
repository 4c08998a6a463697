package addrmgr

// assert panics on an invariant violation. Per the error-handling design,
// ref-count and bucket-accounting failures indicate a logic bug, not a
// recoverable runtime condition, and must abort rather than silently
// paper over a broken structure.
func assert(cond bool, msg string) {
	if !cond {
		panic("addrmgr: invariant violation: " + msg)
	}
}
