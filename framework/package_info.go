// Package framework contains the low-level infrastructure shared by the
// browser test runner and the benchmark runner.
//
// The general model is:
//
// 1. The harness brings up two kinds of external processes: the application
// server under test, and a WebDriver control server (chromedriver or
// geckodriver). Both need loopback ports that no other concurrent test task is
// using, so port allocation goes through a shared PortAllocator.
//
// 2. Child processes are always owned by exactly one ChildProcess handle,
// whose Close method is safe to defer on every exit path; a leaked driver or
// server process would make later runs fail with port conflicts.
//
// 3. Anything that becomes usable asynchronously - a server binding its
// listener, a driver starting to accept control connections, console output
// appearing in the browser - is waited on with either a ReadinessGate (when
// the producer can signal directly) or Poll (when the only option is to keep
// looking). Fixed-delay sleeps are never used for startup synchronization.
//
// The domain-specific code that knows what is being tested lives in the
// webdriver, browsertest, appserver, and benchmark packages on top of this one.
package framework
