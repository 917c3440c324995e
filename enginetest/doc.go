// Package enginetest provides a compliance test suite for simrun engine
// implementations, plus a scripted fake session for testing code that
// consumes the simrun API without spawning a real engine process.
//
// Run the compliance suite from an implementation's own test package:
//
//	func TestCompliance(t *testing.T) {
//		enginetest.RunEngineTests(t, func() simrun.Engine {
//			return sidecar.New(sidecar.WithScript("testdata/engine.py"))
//		})
//	}
package enginetest
