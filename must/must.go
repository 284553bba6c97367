// Package must holds internal invariant assertions. A failed assertion is a
// programming error, not a runtime condition, so it panics.
package must

// Be panics with msg unless expr holds.
func Be(expr bool, msg string) {
	if !expr {
		panic("assertion failed: " + msg)
	}
}

// NilErr panics when err is non-nil. Use it only where an error genuinely
// cannot occur.
func NilErr(err error) {
	if nil != err {
		panic("expected nil error, got: " + err.Error())
	}
}
